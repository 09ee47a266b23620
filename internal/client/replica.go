package client

import (
	"encoding/json"
	"sync"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// Combatant is the client-side view of a replicated combatant.
type Combatant struct {
	ID         string
	Controller string
	X          float64
	Y          float64
	Health     float64
	MaxHealth  float64
	Dead       bool
}

// Projectile is the client-side view of an authoritative projectile.
type Projectile struct {
	ID    string
	Owner string
	X     float64
	Y     float64
	VelX  float64
	VelY  float64
}

// ScoreEntry is the client-side view of a player's score record.
type ScoreEntry struct {
	PlayerID string
	Score    float64
	Winner   bool
}

// MatchView is the client-side view of the match state.
type MatchView struct {
	RemainingTime float64
	EnemyCount    int
	MaxEnemies    int
	Ended         bool
	EndReason     string
}

// Replica holds the client's copy of replicated state. Patches arrive
// per-field, possibly duplicated and possibly with related fields split
// across envelopes, so every application is idempotent and tolerant of
// entities it has not seen a join for yet. The dead flag only ever latches
// on.
type Replica struct {
	mu          sync.RWMutex
	combatants  map[string]*Combatant
	projectiles map[string]*Projectile
	scores      map[string]*ScoreEntry
	match       MatchView
	tick        uint64
	keyframeSeq uint64
}

// NewReplica constructs an empty replica.
func NewReplica() *Replica {
	return &Replica{
		combatants:  make(map[string]*Combatant),
		projectiles: make(map[string]*Projectile),
		scores:      make(map[string]*ScoreEntry),
	}
}

// ApplyKeyframe replaces the replica contents with a full snapshot. Stale
// keyframes, ones older than the last applied tick, are ignored.
func (r *Replica) ApplyKeyframe(seq, tick uint64, data json.RawMessage) error {
	var snapshot worldpkg.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tick < r.tick {
		return nil
	}
	r.tick = tick
	r.keyframeSeq = seq
	previous := r.combatants
	r.combatants = make(map[string]*Combatant, len(snapshot.Combatants))
	for _, c := range snapshot.Combatants {
		dead := c.Dead
		if existing, ok := previous[c.ID]; ok && existing.Dead {
			dead = true
		}
		r.combatants[c.ID] = &Combatant{
			ID:         c.ID,
			Controller: c.Controller,
			X:          c.X,
			Y:          c.Y,
			Health:     c.Health,
			MaxHealth:  c.MaxHealth,
			Dead:       dead,
		}
	}
	r.scores = make(map[string]*ScoreEntry, len(snapshot.Scores))
	for _, s := range snapshot.Scores {
		r.scores[s.PlayerID] = &ScoreEntry{PlayerID: s.PlayerID, Score: s.Score, Winner: s.Winner}
	}
	r.match = MatchView{
		RemainingTime: snapshot.Match.RemainingTime,
		EnemyCount:    snapshot.Match.EnemyCount,
		MaxEnemies:    snapshot.Match.MaxEnemies,
		Ended:         snapshot.Match.Ended || r.match.Ended,
		EndReason:     snapshot.Match.EndReason,
	}
	return nil
}

// Apply folds a tick's patches into the replica.
func (r *Replica) Apply(tick uint64, patches []journalpkg.Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tick > r.tick {
		r.tick = tick
	}
	for _, patch := range patches {
		r.applyLocked(patch)
	}
}

func (r *Replica) applyLocked(patch journalpkg.Patch) {
	switch patch.Kind {
	case journalpkg.PatchCombatantJoined:
		payload, ok := decodePayload[journalpkg.CombatantJoinedPayload](patch.Payload)
		if !ok {
			return
		}
		c := r.combatant(patch.EntityID)
		c.Controller = payload.Controller
		c.X = payload.X
		c.Y = payload.Y
		c.Health = payload.Health
		c.MaxHealth = payload.MaxHealth
	case journalpkg.PatchCombatantHealth:
		payload, ok := decodePayload[journalpkg.HealthPayload](patch.Payload)
		if !ok {
			return
		}
		c := r.combatant(patch.EntityID)
		c.Health = payload.Health
		if payload.MaxHealth > 0 {
			c.MaxHealth = payload.MaxHealth
		}
	case journalpkg.PatchCombatantDead:
		payload, ok := decodePayload[journalpkg.DeadPayload](patch.Payload)
		if !ok {
			return
		}
		if payload.Dead {
			r.combatant(patch.EntityID).Dead = true
		}
	case journalpkg.PatchCombatantRemoved:
		delete(r.combatants, patch.EntityID)
	case journalpkg.PatchPlayerScore:
		payload, ok := decodePayload[journalpkg.ScorePayload](patch.Payload)
		if !ok {
			return
		}
		r.score(patch.EntityID).Score = payload.Score
	case journalpkg.PatchPlayerWinner:
		payload, ok := decodePayload[journalpkg.WinnerPayload](patch.Payload)
		if !ok {
			return
		}
		if payload.Winner {
			r.score(patch.EntityID).Winner = true
		}
	case journalpkg.PatchProjectileSpawned:
		payload, ok := decodePayload[journalpkg.ProjectileSpawnPayload](patch.Payload)
		if !ok {
			return
		}
		r.projectiles[patch.EntityID] = &Projectile{
			ID:    patch.EntityID,
			Owner: payload.OwnerID,
			X:     payload.X,
			Y:     payload.Y,
			VelX:  payload.VX,
			VelY:  payload.VY,
		}
	case journalpkg.PatchProjectilePos:
		payload, ok := decodePayload[journalpkg.PositionPayload](patch.Payload)
		if !ok {
			return
		}
		p, ok := r.projectiles[patch.EntityID]
		if !ok {
			p = &Projectile{ID: patch.EntityID}
			r.projectiles[patch.EntityID] = p
		}
		p.X = payload.X
		p.Y = payload.Y
	case journalpkg.PatchProjectileRemoved:
		delete(r.projectiles, patch.EntityID)
	case journalpkg.PatchMatchTime:
		if r.match.Ended {
			return
		}
		payload, ok := decodePayload[journalpkg.MatchTimePayload](patch.Payload)
		if !ok {
			return
		}
		r.match.RemainingTime = payload.RemainingSeconds
	case journalpkg.PatchMatchEnemyCount:
		payload, ok := decodePayload[journalpkg.EnemyCountPayload](patch.Payload)
		if !ok {
			return
		}
		r.match.EnemyCount = payload.Count
	case journalpkg.PatchMatchEnded:
		payload, ok := decodePayload[journalpkg.MatchEndedPayload](patch.Payload)
		if !ok {
			return
		}
		if !r.match.Ended {
			r.match.Ended = true
			r.match.EndReason = payload.Reason
		}
	}
}

func (r *Replica) combatant(id string) *Combatant {
	c, ok := r.combatants[id]
	if !ok {
		c = &Combatant{ID: id}
		r.combatants[id] = c
	}
	return c
}

func (r *Replica) score(playerID string) *ScoreEntry {
	s, ok := r.scores[playerID]
	if !ok {
		s = &ScoreEntry{PlayerID: playerID}
		r.scores[playerID] = s
	}
	return s
}

// Combatant returns a copy of a tracked combatant.
func (r *Replica) Combatant(id string) (Combatant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.combatants[id]
	if !ok {
		return Combatant{}, false
	}
	return *c, true
}

// Combatants returns copies of every tracked combatant.
func (r *Replica) Combatants() []Combatant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Combatant, 0, len(r.combatants))
	for _, c := range r.combatants {
		out = append(out, *c)
	}
	return out
}

// Score returns a copy of a player's score entry.
func (r *Replica) Score(playerID string) (ScoreEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scores[playerID]
	if !ok {
		return ScoreEntry{}, false
	}
	return *s, true
}

// Projectiles returns copies of every live replicated projectile.
func (r *Replica) Projectiles() []Projectile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Projectile, 0, len(r.projectiles))
	for _, p := range r.projectiles {
		out = append(out, *p)
	}
	return out
}

// Match returns the current match view.
func (r *Replica) Match() MatchView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match
}

// Tick reports the newest tick the replica has folded in.
func (r *Replica) Tick() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tick
}

// KeyframeSeq reports the sequence of the last applied keyframe.
func (r *Replica) KeyframeSeq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keyframeSeq
}

// decodePayload coerces a patch payload into its typed form. In-process the
// payload is already typed; off the wire it arrives as decoded JSON and goes
// through a marshal round-trip.
func decodePayload[T any](value any) (T, bool) {
	switch v := value.(type) {
	case T:
		return v, true
	case *T:
		if v == nil {
			var zero T
			return zero, false
		}
		return *v, true
	}
	var out T
	data, err := json.Marshal(value)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}
