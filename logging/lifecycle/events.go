package lifecycle

import (
	"context"

	"github.com/Yewatermelon/FPSGame/logging"
)

const (
	// EventMatchStarted is emitted once when the match context begins ticking.
	EventMatchStarted logging.EventType = "lifecycle.match_started"
	// EventMatchEnded is emitted once when the match transitions to its terminal state.
	EventMatchEnded logging.EventType = "lifecycle.match_ended"
	// EventEnemySpawned is emitted when the spawn cadence places a new enemy.
	EventEnemySpawned logging.EventType = "lifecycle.enemy_spawned"
	// EventSpawnSkipped is emitted when a spawn cycle is skipped.
	EventSpawnSkipped logging.EventType = "lifecycle.spawn_skipped"
	// EventPlayerJoined is emitted when a player joins the match.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player leaves the match.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventScoreboard is emitted with the final standings at match end.
	EventScoreboard logging.EventType = "lifecycle.scoreboard"
)

type MatchEndedPayload struct {
	Reason   string `json:"reason"`
	WinnerID string `json:"winnerId,omitempty"`
}

type EnemySpawnedPayload struct {
	SpawnPoint string `json:"spawnPoint"`
	EnemyCount int    `json:"enemyCount"`
}

type ScoreboardEntry struct {
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
	IsWinner bool    `json:"isWinner"`
}

type ScoreboardPayload struct {
	Entries []ScoreboardEntry `json:"entries"`
}

func MatchStarted(ctx context.Context, pub logging.Publisher, tick uint64, matchID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: matchID, Kind: logging.EntityKindMatch},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
	})
}

func MatchEnded(ctx context.Context, pub logging.Publisher, tick uint64, matchID, reason, winnerID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: matchID, Kind: logging.EntityKindMatch},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  MatchEndedPayload{Reason: reason, WinnerID: winnerID},
	})
}

func EnemySpawned(ctx context.Context, pub logging.Publisher, tick uint64, enemy logging.EntityRef, spawnPoint string, enemyCount int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEnemySpawned,
		Tick:     tick,
		Actor:    enemy,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  EnemySpawnedPayload{SpawnPoint: spawnPoint, EnemyCount: enemyCount},
	})
}

func SpawnSkipped(ctx context.Context, pub logging.Publisher, tick uint64, matchID, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawnSkipped,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: matchID, Kind: logging.EntityKindMatch},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryMatch,
		Payload:  map[string]string{"reason": reason},
	})
}

func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, player logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    player,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
	})
}

func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, player logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerLeft,
		Tick:     tick,
		Actor:    player,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
	})
}

func Scoreboard(ctx context.Context, pub logging.Publisher, tick uint64, matchID string, entries []ScoreboardEntry) {
	if pub == nil {
		return
	}
	payload := ScoreboardPayload{}
	if len(entries) > 0 {
		payload.Entries = append([]ScoreboardEntry(nil), entries...)
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventScoreboard,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: matchID, Kind: logging.EntityKindMatch},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
	})
}
