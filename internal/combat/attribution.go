package combat

import (
	"context"

	"github.com/Yewatermelon/FPSGame/logging"
	combatlog "github.com/Yewatermelon/FPSGame/logging/combat"

	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// AttributionResult is the defined set of outcomes for a consumed death.
type AttributionResult string

const (
	// AttributionScored means the killer resolved to a player and one score
	// increment was applied.
	AttributionScored AttributionResult = "scored"
	// AttributionNone means no killer was recorded or the killer is not a
	// player; no score changes. This is a defined outcome, not an error.
	AttributionNone AttributionResult = "none"
	// AttributionDuplicate means this death was already processed.
	AttributionDuplicate AttributionResult = "duplicate"
)

// Tracker consumes death events and issues score increments exactly once per
// death. It keeps its own processed set so duplicate delivery of the same
// death is harmless even beyond the resolver's one-event-per-entity
// guarantee.
type Tracker struct {
	world     *worldpkg.World
	publisher logging.Publisher
	killScore float64
	processed map[worldpkg.EntityID]struct{}
}

// NewTracker constructs a tracker issuing killScore points per attributed
// kill.
func NewTracker(w *worldpkg.World, pub logging.Publisher, killScore float64) *Tracker {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Tracker{
		world:     w,
		publisher: pub,
		killScore: killScore,
		processed: make(map[worldpkg.EntityID]struct{}),
	}
}

// HandleDeath resolves the killer and applies the per-kill score increment
// through the server-internal scoring path.
func (t *Tracker) HandleDeath(ctx context.Context, event DeathEvent) AttributionResult {
	if t == nil || t.world == nil || event.TargetID == "" {
		return AttributionNone
	}
	if _, seen := t.processed[event.TargetID]; seen {
		return AttributionDuplicate
	}
	t.processed[event.TargetID] = struct{}{}

	playerID, ok := event.Killer.PlayerID()
	if !ok {
		return AttributionNone
	}
	newScore, err := t.world.AddScore(playerID, t.killScore)
	if err != nil {
		return AttributionNone
	}
	combatlog.KillScore(ctx, t.publisher, event.Tick,
		logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		logging.EntityRef{ID: string(event.TargetID), Kind: logging.EntityKindEnemy},
		t.killScore, newScore)
	return AttributionScored
}

// Forget drops a processed entry, freeing memory when an entity id is
// reclaimed after removal.
func (t *Tracker) Forget(id worldpkg.EntityID) {
	if t == nil {
		return
	}
	delete(t.processed, id)
}
