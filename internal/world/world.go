package world

import (
	"sort"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
)

// Role is the execution context a World instance was constructed for. Only
// the authority role may mutate canonical state; replicas reject every
// mutating entry point.
type Role int

const (
	RoleAuthority Role = iota
	RoleReplica
)

// Config tunes a freshly constructed world.
type Config struct {
	Role          Role
	MatchDuration float64
	MaxEnemies    int
}

// World owns the canonical combatant, score, and match state. It is written
// by exactly one goroutine (the simulation loop); the Role check guards the
// entry points rather than a lock.
type World struct {
	role       Role
	combatants map[EntityID]*Combatant
	order      []EntityID
	scores     map[string]*ScoreRecord
	scoreOrder []string
	match      MatchState
	journal    *journalpkg.Journal
	tick       uint64
}

// New constructs a world bound to the provided journal. Every successful
// mutation appends the corresponding field patch.
func New(cfg Config, j *journalpkg.Journal) *World {
	return &World{
		role:       cfg.Role,
		combatants: make(map[EntityID]*Combatant),
		scores:     make(map[string]*ScoreRecord),
		match: MatchState{
			RemainingTime: cfg.MatchDuration,
			MaxEnemies:    cfg.MaxEnemies,
		},
		journal: j,
	}
}

// Role reports the execution context the world was constructed for.
func (w *World) Role() Role {
	if w == nil {
		return RoleReplica
	}
	return w.role
}

// SetTick records the current simulation tick for journaling context.
func (w *World) SetTick(tick uint64) {
	if w == nil {
		return
	}
	w.tick = tick
}

// Tick returns the current simulation tick.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Combatant returns a copy of the combatant state for id.
func (w *World) Combatant(id EntityID) (Combatant, bool) {
	if w == nil {
		return Combatant{}, false
	}
	c, ok := w.combatants[id]
	if !ok || c == nil {
		return Combatant{}, false
	}
	return *c, true
}

// Combatants returns copies of every combatant in deterministic join order.
func (w *World) Combatants() []Combatant {
	if w == nil {
		return nil
	}
	out := make([]Combatant, 0, len(w.order))
	for _, id := range w.order {
		if c, ok := w.combatants[id]; ok && c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// AlivePlayers returns copies of every living player-controlled combatant.
func (w *World) AlivePlayers() []Combatant {
	if w == nil {
		return nil
	}
	out := make([]Combatant, 0, len(w.order))
	for _, id := range w.order {
		c, ok := w.combatants[id]
		if !ok || c == nil || c.Dead || !c.IsPlayer() {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// Score returns a copy of the score record for playerID.
func (w *World) Score(playerID string) (ScoreRecord, bool) {
	if w == nil {
		return ScoreRecord{}, false
	}
	rec, ok := w.scores[playerID]
	if !ok || rec == nil {
		return ScoreRecord{}, false
	}
	return *rec, true
}

// Scores returns copies of every score record in join order.
func (w *World) Scores() []ScoreRecord {
	if w == nil {
		return nil
	}
	out := make([]ScoreRecord, 0, len(w.scoreOrder))
	for _, id := range w.scoreOrder {
		if rec, ok := w.scores[id]; ok && rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

// Match returns a copy of the match state.
func (w *World) Match() MatchState {
	if w == nil {
		return MatchState{}
	}
	return w.match
}

// Snapshot copies the full canonical state for keyframe delivery.
func (w *World) Snapshot() Snapshot {
	if w == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Combatants: make([]CombatantSnapshot, 0, len(w.order)),
		Scores:     make([]ScoreSnapshot, 0, len(w.scoreOrder)),
		Match: MatchSnapshot{
			RemainingTime: w.match.RemainingTime,
			EnemyCount:    w.match.EnemyCount,
			MaxEnemies:    w.match.MaxEnemies,
			Ended:         w.match.Ended,
			EndReason:     w.match.EndReason,
		},
	}
	for _, id := range w.order {
		c, ok := w.combatants[id]
		if !ok || c == nil {
			continue
		}
		snap.Combatants = append(snap.Combatants, CombatantSnapshot{
			ID:         string(c.ID),
			Controller: c.Controller.String(),
			X:          c.Position.X,
			Y:          c.Position.Y,
			Health:     c.Health,
			MaxHealth:  c.MaxHealth,
			Dead:       c.Dead,
		})
	}
	for _, id := range w.scoreOrder {
		rec, ok := w.scores[id]
		if !ok || rec == nil {
			continue
		}
		snap.Scores = append(snap.Scores, ScoreSnapshot{PlayerID: rec.PlayerID, Score: rec.Score, Winner: rec.Winner})
	}
	return snap
}

// SortedPlayerIDs returns every scored player id in ascending order, the
// deterministic iteration used for tie breaks.
func (w *World) SortedPlayerIDs() []string {
	if w == nil {
		return nil
	}
	ids := append([]string(nil), w.scoreOrder...)
	sort.Strings(ids)
	return ids
}

func (w *World) appendPatch(kind journalpkg.PatchKind, entityID string, payload any) {
	if w == nil || w.journal == nil {
		return
	}
	w.journal.Append(journalpkg.Patch{Kind: kind, EntityID: entityID, Payload: payload})
}
