package journal

import (
	"encoding/json"
	"sync"
	"time"
)

// Telemetry captures the metrics adapter used by the journal to report drops.
type Telemetry interface {
	RecordJournalDrop(metric string)
}

// PatchKind identifies the type of diff entry.
type PatchKind string

const (
	// PatchCombatantJoined announces a combatant with its full initial state.
	PatchCombatantJoined PatchKind = "combatant_joined"
	// PatchCombatantHealth updates a combatant's health pool.
	PatchCombatantHealth PatchKind = "combatant_health"
	// PatchCombatantDead marks a combatant's death transition.
	PatchCombatantDead PatchKind = "combatant_dead"
	// PatchCombatantRemoved signals that a combatant left the world.
	PatchCombatantRemoved PatchKind = "combatant_removed"

	// PatchPlayerScore updates a player's score record.
	PatchPlayerScore PatchKind = "player_score"
	// PatchPlayerWinner marks a player as the match winner.
	PatchPlayerWinner PatchKind = "player_winner"

	// PatchProjectileSpawned announces an authoritative projectile.
	PatchProjectileSpawned PatchKind = "projectile_spawned"
	// PatchProjectilePos updates a projectile's position.
	PatchProjectilePos PatchKind = "projectile_pos"
	// PatchProjectileRemoved signals that a projectile despawned.
	PatchProjectileRemoved PatchKind = "projectile_removed"

	// PatchMatchTime updates the match countdown.
	PatchMatchTime PatchKind = "match_time"
	// PatchMatchEnemyCount updates the live enemy count.
	PatchMatchEnemyCount PatchKind = "match_enemy_count"
	// PatchMatchEnded marks the terminal match transition.
	PatchMatchEnded PatchKind = "match_ended"
)

// Patch represents a diff entry for a single replicated field. Patches are
// delivered independently; receivers must not assume two patches arrive in
// the same envelope.
type Patch struct {
	Kind     PatchKind `json:"kind"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload,omitempty"`
}

// CombatantJoinedPayload carries the initial state for a new combatant.
type CombatantJoinedPayload struct {
	Controller string  `json:"controller"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Health     float64 `json:"health"`
	MaxHealth  float64 `json:"maxHealth"`
}

// HealthPayload captures the health for a combatant patch.
type HealthPayload struct {
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth,omitempty"`
}

// DeadPayload captures the death flag for a combatant patch.
type DeadPayload struct {
	Dead bool `json:"dead"`
}

// ScorePayload captures a player's score.
type ScorePayload struct {
	Score float64 `json:"score"`
}

// WinnerPayload captures a player's winner flag.
type WinnerPayload struct {
	Winner bool `json:"winner"`
}

// ProjectileSpawnPayload captures the initial kinematics of a projectile.
type ProjectileSpawnPayload struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

// PositionPayload captures the coordinates for an entity position patch.
type PositionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MatchTimePayload captures the remaining match time in seconds.
type MatchTimePayload struct {
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// EnemyCountPayload captures the live enemy count.
type EnemyCountPayload struct {
	Count int `json:"count"`
}

// MatchEndedPayload captures the terminal match outcome.
type MatchEndedPayload struct {
	Reason   string `json:"reason"`
	WinnerID string `json:"winnerId,omitempty"`
}

// Keyframe is a full-state snapshot retained for late or resyncing
// subscribers.
type Keyframe struct {
	Seq        uint64
	Tick       uint64
	RecordedAt time.Time
	Data       json.RawMessage
}

const (
	metricKeyframeEvicted = "journal_keyframe_evicted"
	metricKeyframeExpired = "journal_keyframe_expired"
)

// Journal accumulates patches generated during a tick and keeps a rolling
// buffer of recent keyframes. Drained patches that fail to reach every
// subscriber are restored so the next push cycle delivers them again.
type Journal struct {
	mu        sync.RWMutex
	patches   []Patch
	keyframes []Keyframe
	maxFrames int
	maxAge    time.Duration
	nextSeq   uint64
	telemetry Telemetry
}

// New constructs a journal with storage for the configured number of
// keyframes and retention window.
func New(keyframeCapacity int, maxAge time.Duration, telemetry Telemetry) *Journal {
	if keyframeCapacity < 0 {
		keyframeCapacity = 0
	}
	if maxAge < 0 {
		maxAge = 0
	}
	return &Journal{
		patches:   make([]Patch, 0),
		keyframes: make([]Keyframe, 0, keyframeCapacity),
		maxFrames: keyframeCapacity,
		maxAge:    maxAge,
		telemetry: telemetry,
	}
}

// Append records a patch for the current tick.
func (j *Journal) Append(p Patch) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.patches = append(j.patches, p)
	j.mu.Unlock()
}

// Drain returns the pending patches and clears the buffer.
func (j *Journal) Drain() []Patch {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.patches) == 0 {
		return nil
	}
	drained := j.patches
	j.patches = make([]Patch, 0, len(drained))
	return drained
}

// Pending returns a copy of the buffered patches without clearing them.
func (j *Journal) Pending() []Patch {
	if j == nil {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.patches) == 0 {
		return nil
	}
	return append([]Patch(nil), j.patches...)
}

// Restore prepends patches that were drained but not delivered, preserving
// their original order ahead of anything appended since.
func (j *Journal) Restore(patches []Patch) {
	if j == nil || len(patches) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	combined := make([]Patch, 0, len(patches)+len(j.patches))
	combined = append(combined, patches...)
	combined = append(combined, j.patches...)
	j.patches = combined
}

// RecordKeyframe stores a snapshot and returns its assigned sequence.
func (j *Journal) RecordKeyframe(tick uint64, recordedAt time.Time, data json.RawMessage) uint64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextSeq++
	frame := Keyframe{Seq: j.nextSeq, Tick: tick, RecordedAt: recordedAt, Data: data}
	j.pruneKeyframesLocked(recordedAt)
	if j.maxFrames > 0 && len(j.keyframes) >= j.maxFrames {
		copy(j.keyframes, j.keyframes[1:])
		j.keyframes = j.keyframes[:len(j.keyframes)-1]
		j.recordDropLocked(metricKeyframeEvicted)
	}
	j.keyframes = append(j.keyframes, frame)
	return frame.Seq
}

// KeyframeBySeq returns the stored keyframe for seq, if still retained.
func (j *Journal) KeyframeBySeq(seq uint64) (Keyframe, bool) {
	if j == nil {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, frame := range j.keyframes {
		if frame.Seq == seq {
			return frame, true
		}
	}
	return Keyframe{}, false
}

// LatestKeyframe returns the most recent stored keyframe.
func (j *Journal) LatestKeyframe() (Keyframe, bool) {
	if j == nil {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1], true
}

func (j *Journal) pruneKeyframesLocked(now time.Time) {
	if j.maxAge <= 0 {
		return
	}
	cutoff := now.Add(-j.maxAge)
	kept := j.keyframes[:0]
	for _, frame := range j.keyframes {
		if frame.RecordedAt.Before(cutoff) {
			j.recordDropLocked(metricKeyframeExpired)
			continue
		}
		kept = append(kept, frame)
	}
	j.keyframes = kept
}

func (j *Journal) recordDropLocked(metric string) {
	if j.telemetry == nil {
		return
	}
	j.telemetry.RecordJournalDrop(metric)
}
