package world

import (
	"errors"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
)

var (
	// ErrNotAuthority rejects mutation attempts from a non-authority world.
	ErrNotAuthority = errors.New("world: mutation requires authority role")
	// ErrUnknownCombatant rejects operations on an id the world does not track.
	ErrUnknownCombatant = errors.New("world: unknown combatant")
	// ErrUnknownPlayer rejects score operations for an untracked player.
	ErrUnknownPlayer = errors.New("world: unknown player")
	// ErrCombatantDead rejects health mutation on an already-dead combatant.
	ErrCombatantDead = errors.New("world: combatant already dead")
	// ErrAlreadyTracked rejects duplicate combatant registration.
	ErrAlreadyTracked = errors.New("world: combatant already tracked")
	// ErrMatchEnded rejects match mutation after the terminal transition.
	ErrMatchEnded = errors.New("world: match already ended")
)

// AddPlayer registers a player-controlled combatant along with its score
// record. The join is journaled so existing subscribers learn the initial
// state without waiting for a keyframe.
func (w *World) AddPlayer(playerID string, pos Vec2, maxHealth float64) (*Combatant, error) {
	if w.role != RoleAuthority {
		return nil, ErrNotAuthority
	}
	id := EntityID(playerID)
	if _, exists := w.combatants[id]; exists {
		return nil, ErrAlreadyTracked
	}
	c := &Combatant{
		ID:         id,
		Controller: Controller{Kind: ControllerPlayer, ID: ActorID(playerID)},
		Position:   pos,
		Health:     maxHealth,
		MaxHealth:  maxHealth,
	}
	w.combatants[id] = c
	w.order = append(w.order, id)
	if _, exists := w.scores[playerID]; !exists {
		w.scores[playerID] = &ScoreRecord{PlayerID: playerID}
		w.scoreOrder = append(w.scoreOrder, playerID)
	}
	w.appendPatch(journalpkg.PatchCombatantJoined, string(id), journalpkg.CombatantJoinedPayload{
		Controller: c.Controller.String(),
		X:          pos.X,
		Y:          pos.Y,
		Health:     c.Health,
		MaxHealth:  c.MaxHealth,
	})
	return c, nil
}

// AddEnemy registers an AI-controlled combatant.
func (w *World) AddEnemy(id EntityID, controllerID ActorID, pos Vec2, maxHealth float64) (*Combatant, error) {
	if w.role != RoleAuthority {
		return nil, ErrNotAuthority
	}
	if _, exists := w.combatants[id]; exists {
		return nil, ErrAlreadyTracked
	}
	c := &Combatant{
		ID:         id,
		Controller: Controller{Kind: ControllerAI, ID: controllerID},
		Position:   pos,
		Health:     maxHealth,
		MaxHealth:  maxHealth,
	}
	w.combatants[id] = c
	w.order = append(w.order, id)
	w.appendPatch(journalpkg.PatchCombatantJoined, string(id), journalpkg.CombatantJoinedPayload{
		Controller: c.Controller.String(),
		X:          pos.X,
		Y:          pos.Y,
		Health:     c.Health,
		MaxHealth:  c.MaxHealth,
	})
	return c, nil
}

// RemoveCombatant drops a combatant and, for players, its score record.
func (w *World) RemoveCombatant(id EntityID) error {
	if w.role != RoleAuthority {
		return ErrNotAuthority
	}
	c, ok := w.combatants[id]
	if !ok {
		return ErrUnknownCombatant
	}
	delete(w.combatants, id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if playerID, isPlayer := c.Controller.PlayerID(); isPlayer {
		delete(w.scores, playerID)
		for i, existing := range w.scoreOrder {
			if existing == playerID {
				w.scoreOrder = append(w.scoreOrder[:i], w.scoreOrder[i+1:]...)
				break
			}
		}
	}
	w.appendPatch(journalpkg.PatchCombatantRemoved, string(id), nil)
	return nil
}

// ApplyDamageDelta subtracts damage from a combatant's health pool, clamped
// to [0, MaxHealth], and journals the new value. The actual damage applied
// is returned. A dead combatant's pool is frozen.
func (w *World) ApplyDamageDelta(id EntityID, amount float64) (float64, error) {
	if w.role != RoleAuthority {
		return 0, ErrNotAuthority
	}
	c, ok := w.combatants[id]
	if !ok {
		return 0, ErrUnknownCombatant
	}
	if c.Dead {
		return 0, ErrCombatantDead
	}
	actual := amount
	if actual > c.Health {
		actual = c.Health
	}
	next := c.Health - amount
	if next < 0 {
		next = 0
	}
	if next > c.MaxHealth {
		next = c.MaxHealth
	}
	c.Health = next
	w.appendPatch(journalpkg.PatchCombatantHealth, string(id), journalpkg.HealthPayload{Health: c.Health, MaxHealth: c.MaxHealth})
	return actual, nil
}

// RecordDamager notes the most recent damaging controller for attribution.
func (w *World) RecordDamager(id EntityID, damager Controller) error {
	if w.role != RoleAuthority {
		return ErrNotAuthority
	}
	c, ok := w.combatants[id]
	if !ok {
		return ErrUnknownCombatant
	}
	if damager.Kind == ControllerNone {
		return nil
	}
	c.lastDamager = damager
	return nil
}

// SetDead performs a combatant's death transition exactly once.
func (w *World) SetDead(id EntityID) error {
	if w.role != RoleAuthority {
		return ErrNotAuthority
	}
	c, ok := w.combatants[id]
	if !ok {
		return ErrUnknownCombatant
	}
	if c.Dead {
		return ErrCombatantDead
	}
	c.Dead = true
	w.appendPatch(journalpkg.PatchCombatantDead, string(id), journalpkg.DeadPayload{Dead: true})
	return nil
}

// AddScore applies a score increment through the server-internal path and
// returns the new total. Validation of client-originated requests happens
// before this is ever reached.
func (w *World) AddScore(playerID string, delta float64) (float64, error) {
	if w.role != RoleAuthority {
		return 0, ErrNotAuthority
	}
	rec, ok := w.scores[playerID]
	if !ok {
		return 0, ErrUnknownPlayer
	}
	rec.Score += delta
	if rec.Score < 0 {
		rec.Score = 0
	}
	w.appendPatch(journalpkg.PatchPlayerScore, playerID, journalpkg.ScorePayload{Score: rec.Score})
	return rec.Score, nil
}

// MarkWinner flags a player's score record as the match winner.
func (w *World) MarkWinner(playerID string) error {
	if w.role != RoleAuthority {
		return ErrNotAuthority
	}
	rec, ok := w.scores[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	if rec.Winner {
		return nil
	}
	rec.Winner = true
	w.appendPatch(journalpkg.PatchPlayerWinner, playerID, journalpkg.WinnerPayload{Winner: true})
	return nil
}

// MutateMatch applies a mutation to the match state and journals every field
// that changed. Once the match has ended all further mutation is rejected,
// which keeps Ended monotonic.
func (w *World) MutateMatch(mutate func(*MatchState)) error {
	if w.role != RoleAuthority {
		return ErrNotAuthority
	}
	if mutate == nil {
		return nil
	}
	if w.match.Ended {
		return ErrMatchEnded
	}
	before := w.match
	mutate(&w.match)
	if w.match.Ended && !before.Ended {
		w.appendPatch(journalpkg.PatchMatchEnded, "", journalpkg.MatchEndedPayload{Reason: w.match.EndReason})
	}
	if w.match.RemainingTime != before.RemainingTime {
		if w.match.RemainingTime < 0 {
			w.match.RemainingTime = 0
		}
		w.appendPatch(journalpkg.PatchMatchTime, "", journalpkg.MatchTimePayload{RemainingSeconds: w.match.RemainingTime})
	}
	if w.match.EnemyCount != before.EnemyCount {
		if w.match.EnemyCount < 0 {
			w.match.EnemyCount = 0
		}
		w.appendPatch(journalpkg.PatchMatchEnemyCount, "", journalpkg.EnemyCountPayload{Count: w.match.EnemyCount})
	}
	return nil
}
