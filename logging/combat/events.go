package combat

import (
	"context"

	"github.com/Yewatermelon/FPSGame/logging"
)

const (
	// EventDamage is emitted when a damage request mutates a combatant.
	EventDamage logging.EventType = "combat.damage"
	// EventDamageIgnored is emitted when a damage request is absorbed as a no-op.
	EventDamageIgnored logging.EventType = "combat.damage_ignored"
	// EventDeath is emitted exactly once per combatant, on its death transition.
	EventDeath logging.EventType = "combat.death"
	// EventKillScore is emitted when a death is attributed to a player and scored.
	EventKillScore logging.EventType = "combat.kill_score"
)

type DamagePayload struct {
	Amount       float64 `json:"amount"`
	ActualDamage float64 `json:"actualDamage"`
	HealthBefore float64 `json:"healthBefore"`
	HealthAfter  float64 `json:"healthAfter"`
}

type DamageIgnoredPayload struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

type DeathPayload struct {
	KillerID string `json:"killerId,omitempty"`
}

type KillScorePayload struct {
	Points   float64 `json:"points"`
	NewScore float64 `json:"newScore"`
}

func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func DamageIgnored(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, amount float64, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamageIgnored,
		Tick:     tick,
		Actor:    target,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  DamageIgnoredPayload{Amount: amount, Reason: reason},
	})
}

func Death(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, killerID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeath,
		Tick:     tick,
		Actor:    target,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  DeathPayload{KillerID: killerID},
	})
}

func KillScore(ctx context.Context, pub logging.Publisher, tick uint64, killer, victim logging.EntityRef, points, newScore float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKillScore,
		Tick:     tick,
		Actor:    killer,
		Targets:  []logging.EntityRef{victim},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  KillScorePayload{Points: points, NewScore: newScore},
	})
}
