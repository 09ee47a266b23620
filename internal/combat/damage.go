package combat

import (
	"context"
	"errors"

	"github.com/Yewatermelon/FPSGame/logging"
	combatlog "github.com/Yewatermelon/FPSGame/logging/combat"

	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// DamageRequest asks the resolver to apply damage to a combatant. Requests
// are transient; they only ever originate from server-side collision or AI
// code, never directly from network input.
type DamageRequest struct {
	TargetID   worldpkg.EntityID
	Amount     float64
	Instigator worldpkg.Controller
	CauserID   worldpkg.EntityID
	Tick       uint64
}

// DeathEvent is emitted at most once per combatant, on its death transition.
type DeathEvent struct {
	TargetID worldpkg.EntityID
	Killer   worldpkg.Controller
	Tick     uint64
}

// Ignore reasons surfaced through logging when a request is absorbed.
const (
	IgnoreNonPositiveAmount = "non_positive_amount"
	IgnoreUnknownTarget     = "unknown_target"
	IgnoreTargetDead        = "target_dead"
	IgnoreMatchEnded        = "match_ended"
	IgnoreNotAuthority      = "not_authority"
)

// Outcome reports what a damage request did. Ignored requests are defined
// no-ops, not errors; duplicates and stale deliveries must be harmless.
type Outcome struct {
	Applied      bool
	ActualDamage float64
	Death        *DeathEvent
	IgnoreReason string
}

// Resolver validates and applies damage requests against the world and
// detects death transitions. It runs only under server authority.
type Resolver struct {
	world     *worldpkg.World
	publisher logging.Publisher
	onDeath   func(context.Context, DeathEvent)
}

// NewResolver constructs a resolver. onDeath receives each death transition
// exactly once and may be nil.
func NewResolver(w *worldpkg.World, pub logging.Publisher, onDeath func(context.Context, DeathEvent)) *Resolver {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Resolver{world: w, publisher: pub, onDeath: onDeath}
}

// Apply runs the damage pipeline for a single request.
func (r *Resolver) Apply(ctx context.Context, req DamageRequest) Outcome {
	if r == nil || r.world == nil {
		return Outcome{IgnoreReason: IgnoreUnknownTarget}
	}

	targetRef := logging.EntityRef{ID: string(req.TargetID), Kind: logging.EntityKindUnknown}
	if r.world.Match().Ended {
		combatlog.DamageIgnored(ctx, r.publisher, req.Tick, targetRef, req.Amount, IgnoreMatchEnded)
		return Outcome{IgnoreReason: IgnoreMatchEnded}
	}
	if req.Amount <= 0 {
		combatlog.DamageIgnored(ctx, r.publisher, req.Tick, targetRef, req.Amount, IgnoreNonPositiveAmount)
		return Outcome{IgnoreReason: IgnoreNonPositiveAmount}
	}

	target, ok := r.world.Combatant(req.TargetID)
	if !ok {
		combatlog.DamageIgnored(ctx, r.publisher, req.Tick, targetRef, req.Amount, IgnoreUnknownTarget)
		return Outcome{IgnoreReason: IgnoreUnknownTarget}
	}
	targetRef.Kind = entityKind(target)
	if target.Dead {
		combatlog.DamageIgnored(ctx, r.publisher, req.Tick, targetRef, req.Amount, IgnoreTargetDead)
		return Outcome{IgnoreReason: IgnoreTargetDead}
	}

	// The lethal hit's instigator takes attribution priority; with no
	// instigator on the lethal hit, the most recent prior damager wins.
	priorDamager, hadPrior := (&target).LastDamager()

	healthBefore := target.Health
	actual, err := r.world.ApplyDamageDelta(req.TargetID, req.Amount)
	if err != nil {
		reason := ignoreReasonForError(err)
		combatlog.DamageIgnored(ctx, r.publisher, req.Tick, targetRef, req.Amount, reason)
		return Outcome{IgnoreReason: reason}
	}
	if req.Instigator.Kind != worldpkg.ControllerNone {
		_ = r.world.RecordDamager(req.TargetID, req.Instigator)
	}

	after, _ := r.world.Combatant(req.TargetID)
	combatlog.Damage(ctx, r.publisher, req.Tick, controllerRef(req.Instigator), targetRef, combatlog.DamagePayload{
		Amount:       req.Amount,
		ActualDamage: actual,
		HealthBefore: healthBefore,
		HealthAfter:  after.Health,
	})

	outcome := Outcome{Applied: true, ActualDamage: actual}
	if after.Health > 0 {
		return outcome
	}

	killer := req.Instigator
	if killer.Kind == worldpkg.ControllerNone && hadPrior {
		killer = priorDamager
	}
	if err := r.world.SetDead(req.TargetID); err != nil {
		return outcome
	}

	death := DeathEvent{TargetID: req.TargetID, Killer: killer, Tick: req.Tick}
	killerID := ""
	if killer.Kind != worldpkg.ControllerNone {
		killerID = killer.String()
	}
	combatlog.Death(ctx, r.publisher, req.Tick, targetRef, killerID)
	if r.onDeath != nil {
		r.onDeath(ctx, death)
	}
	outcome.Death = &death
	return outcome
}

// ignoreReasonForError maps a ledger rejection to the ignore reason it is
// reported under.
func ignoreReasonForError(err error) string {
	switch {
	case errors.Is(err, worldpkg.ErrNotAuthority):
		return IgnoreNotAuthority
	case errors.Is(err, worldpkg.ErrUnknownCombatant):
		return IgnoreUnknownTarget
	default:
		return IgnoreTargetDead
	}
}

func entityKind(c worldpkg.Combatant) logging.EntityKind {
	if c.Controller.Kind == worldpkg.ControllerPlayer {
		return logging.EntityKindPlayer
	}
	return logging.EntityKindEnemy
}

func controllerRef(c worldpkg.Controller) logging.EntityRef {
	switch c.Kind {
	case worldpkg.ControllerPlayer:
		return logging.EntityRef{ID: string(c.ID), Kind: logging.EntityKindPlayer}
	case worldpkg.ControllerAI:
		return logging.EntityRef{ID: string(c.ID), Kind: logging.EntityKindEnemy}
	default:
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
}
