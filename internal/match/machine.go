package match

import (
	"context"

	"github.com/google/uuid"

	"github.com/Yewatermelon/FPSGame/logging"
	lifecyclelog "github.com/Yewatermelon/FPSGame/logging/lifecycle"

	"github.com/Yewatermelon/FPSGame/internal/combat"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// Match end reasons.
const (
	EndReasonTimeExpired    = "time expired"
	EndReasonSoleSurvivor   = "sole survivor"
	EndReasonAllPlayersDead = "all players dead"
)

// Spawn-skip reasons surfaced through logging.
const (
	SkipMatchEnded    = "match_ended"
	SkipNoSpawnPoints = "no_spawn_points"
	SkipEnemyCap      = "enemy_cap"
)

// Config tunes the lifecycle machine. Intervals are expressed in simulation
// ticks.
type Config struct {
	MatchID           string
	EnemyMaxHealth    float64
	CountdownInterval uint64
	SpawnInterval     uint64
	WinPollInterval   uint64
	CountdownStepSecs float64
}

// Machine drives the match through its single transition Active -> Ended.
// It owns the match-scoped periodic tasks and cancels them atomically the
// moment the match ends.
type Machine struct {
	cfg       Config
	world     *worldpkg.World
	publisher logging.Publisher
	spawns    *SpawnRegistry
	tasks     TaskSet

	onEnemySpawned func(worldpkg.Combatant)
	enemyDeaths    map[worldpkg.EntityID]struct{}
	started        bool
}

// NewMachine constructs a machine over the given world and spawn registry.
// onEnemySpawned is invoked for every enemy placed by the spawn cadence and
// may be nil.
func NewMachine(cfg Config, w *worldpkg.World, pub logging.Publisher, spawns *SpawnRegistry, onEnemySpawned func(worldpkg.Combatant)) *Machine {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if cfg.MatchID == "" {
		cfg.MatchID = "match-" + uuid.NewString()
	}
	if cfg.CountdownStepSecs <= 0 {
		cfg.CountdownStepSecs = 1
	}
	return &Machine{
		cfg:            cfg,
		world:          w,
		publisher:      pub,
		spawns:         spawns,
		onEnemySpawned: onEnemySpawned,
		enemyDeaths:    make(map[worldpkg.EntityID]struct{}),
	}
}

// MatchID returns the machine's match identifier.
func (m *Machine) MatchID() string {
	if m == nil {
		return ""
	}
	return m.cfg.MatchID
}

// ActiveTasks reports the number of scheduled, non-cancelled tasks.
func (m *Machine) ActiveTasks() int {
	if m == nil {
		return 0
	}
	return m.tasks.Active()
}

// Start schedules the countdown, spawn cadence, and win poll.
func (m *Machine) Start(ctx context.Context, tick uint64) {
	if m == nil || m.started {
		return
	}
	m.started = true
	m.tasks.Schedule("countdown", tick, m.cfg.CountdownInterval, m.countdownTick)
	m.tasks.Schedule("enemy-spawn", tick, m.cfg.SpawnInterval, m.spawnTick)
	m.tasks.Schedule("win-poll", tick, m.cfg.WinPollInterval, func(ctx context.Context, tick uint64) {
		m.CheckForWinner(ctx, tick)
	})
	lifecyclelog.MatchStarted(ctx, m.publisher, tick, m.cfg.MatchID)
}

// Advance runs every due periodic task for the given tick.
func (m *Machine) Advance(ctx context.Context, tick uint64) {
	if m == nil {
		return
	}
	m.tasks.Advance(ctx, tick)
}

func (m *Machine) countdownTick(ctx context.Context, tick uint64) {
	if m.world.Match().Ended {
		return
	}
	_ = m.world.MutateMatch(func(state *worldpkg.MatchState) {
		state.RemainingTime -= m.cfg.CountdownStepSecs
		if state.RemainingTime < 0 {
			state.RemainingTime = 0
		}
	})
	if m.world.Match().RemainingTime <= 0 {
		m.end(ctx, tick, EndReasonTimeExpired)
	}
}

func (m *Machine) spawnTick(ctx context.Context, tick uint64) {
	state := m.world.Match()
	if state.Ended {
		lifecyclelog.SpawnSkipped(ctx, m.publisher, tick, m.cfg.MatchID, SkipMatchEnded)
		return
	}
	if m.spawns == nil || m.spawns.EnemyPointCount() == 0 {
		lifecyclelog.SpawnSkipped(ctx, m.publisher, tick, m.cfg.MatchID, SkipNoSpawnPoints)
		return
	}
	if state.EnemyCount >= state.MaxEnemies {
		lifecyclelog.SpawnSkipped(ctx, m.publisher, tick, m.cfg.MatchID, SkipEnemyCap)
		return
	}
	point, ok := m.spawns.PickEnemyPoint()
	if !ok {
		lifecyclelog.SpawnSkipped(ctx, m.publisher, tick, m.cfg.MatchID, SkipNoSpawnPoints)
		return
	}
	id := worldpkg.EntityID("enemy-" + uuid.NewString())
	controller := worldpkg.ActorID("ai-" + uuid.NewString())
	enemy, err := m.world.AddEnemy(id, controller, point.Position, m.cfg.EnemyMaxHealth)
	if err != nil {
		return
	}
	_ = m.world.MutateMatch(func(state *worldpkg.MatchState) {
		state.EnemyCount++
	})
	lifecyclelog.EnemySpawned(ctx, m.publisher, tick,
		logging.EntityRef{ID: string(id), Kind: logging.EntityKindEnemy},
		point.Name, m.world.Match().EnemyCount)
	if m.onEnemySpawned != nil {
		m.onEnemySpawned(*enemy)
	}
}

// NoteDeath reacts to a death transition: enemy deaths decrement the live
// enemy count exactly once, and player deaths trigger an immediate
// win-condition check.
func (m *Machine) NoteDeath(ctx context.Context, event combat.DeathEvent) {
	if m == nil {
		return
	}
	target, ok := m.world.Combatant(event.TargetID)
	if !ok {
		return
	}
	if target.Controller.Kind == worldpkg.ControllerAI {
		if _, seen := m.enemyDeaths[event.TargetID]; seen {
			return
		}
		m.enemyDeaths[event.TargetID] = struct{}{}
		_ = m.world.MutateMatch(func(state *worldpkg.MatchState) {
			state.EnemyCount--
			if state.EnemyCount < 0 {
				state.EnemyCount = 0
			}
		})
		return
	}
	m.CheckForWinner(ctx, event.Tick)
}

// CheckForWinner evaluates every end condition and performs the terminal
// transition when one holds.
func (m *Machine) CheckForWinner(ctx context.Context, tick uint64) {
	if m == nil || m.world.Match().Ended {
		return
	}
	if m.world.Match().RemainingTime <= 0 {
		m.end(ctx, tick, EndReasonTimeExpired)
		return
	}
	alive := m.world.AlivePlayers()
	switch len(alive) {
	case 1:
		m.end(ctx, tick, EndReasonSoleSurvivor)
	case 0:
		m.end(ctx, tick, EndReasonAllPlayersDead)
	}
}

// EndGame forces the terminal transition with the given reason. It is also
// the single path every automatic end condition funnels through.
func (m *Machine) EndGame(ctx context.Context, tick uint64, reason string) {
	m.end(ctx, tick, reason)
}

func (m *Machine) end(ctx context.Context, tick uint64, reason string) {
	if m == nil || m.world.Match().Ended {
		return
	}
	winnerID, hasWinner := m.resolveWinner()
	if err := m.world.MutateMatch(func(state *worldpkg.MatchState) {
		state.Ended = true
		state.EndReason = reason
	}); err != nil {
		return
	}
	m.tasks.CancelAll()
	if hasWinner {
		_ = m.world.MarkWinner(winnerID)
	}
	entries := make([]lifecyclelog.ScoreboardEntry, 0)
	for _, rec := range m.world.Scores() {
		entries = append(entries, lifecyclelog.ScoreboardEntry{PlayerID: rec.PlayerID, Score: rec.Score, IsWinner: rec.Winner})
	}
	lifecyclelog.Scoreboard(ctx, m.publisher, tick, m.cfg.MatchID, entries)
	lifecyclelog.MatchEnded(ctx, m.publisher, tick, m.cfg.MatchID, reason, winnerID)
}

// resolveWinner picks the sole living player, or among several survivors the
// highest score with the lowest player id breaking ties. No survivors means
// no winner.
func (m *Machine) resolveWinner() (string, bool) {
	alive := m.world.AlivePlayers()
	if len(alive) == 0 {
		return "", false
	}
	if len(alive) == 1 {
		if playerID, ok := alive[0].Controller.PlayerID(); ok {
			return playerID, true
		}
		return "", false
	}
	survivors := make(map[string]struct{}, len(alive))
	for _, c := range alive {
		if playerID, ok := c.Controller.PlayerID(); ok {
			survivors[playerID] = struct{}{}
		}
	}
	bestID := ""
	bestScore := -1.0
	for _, playerID := range m.world.SortedPlayerIDs() {
		if _, isSurvivor := survivors[playerID]; !isSurvivor {
			continue
		}
		rec, ok := m.world.Score(playerID)
		if !ok {
			continue
		}
		if rec.Score > bestScore {
			bestScore = rec.Score
			bestID = playerID
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}
