package ai

import (
	"context"
	"math"

	"github.com/Yewatermelon/FPSGame/internal/combat"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// EnemyConfig tunes the autonomous combatant behavior.
type EnemyConfig struct {
	AttackRange    float64
	AttackDamage   float64
	AttackInterval float64
}

type brain struct {
	entityID   worldpkg.EntityID
	controller worldpkg.Controller
	cooldown   float64
}

// Executor drives every AI-controlled combatant: each tick an enemy strikes
// the nearest living player inside its attack range, honoring the attack
// cooldown. All damage flows through the resolver with the enemy's
// controller as instigator.
type Executor struct {
	cfg      EnemyConfig
	world    *worldpkg.World
	resolver *combat.Resolver
	brains   map[worldpkg.EntityID]*brain
	order    []worldpkg.EntityID
}

// NewExecutor constructs an executor feeding attacks into resolver.
func NewExecutor(cfg EnemyConfig, w *worldpkg.World, resolver *combat.Resolver) *Executor {
	return &Executor{
		cfg:      cfg,
		world:    w,
		resolver: resolver,
		brains:   make(map[worldpkg.EntityID]*brain),
	}
}

// Track registers a freshly spawned AI combatant.
func (e *Executor) Track(c worldpkg.Combatant) {
	if e == nil || c.Controller.Kind != worldpkg.ControllerAI {
		return
	}
	if _, exists := e.brains[c.ID]; exists {
		return
	}
	e.brains[c.ID] = &brain{entityID: c.ID, controller: c.Controller}
	e.order = append(e.order, c.ID)
}

// Forget drops a combatant from the executor, typically after its death.
func (e *Executor) Forget(id worldpkg.EntityID) {
	if e == nil {
		return
	}
	if _, exists := e.brains[id]; !exists {
		return
	}
	delete(e.brains, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Tracked reports the number of live brains.
func (e *Executor) Tracked() int {
	if e == nil {
		return 0
	}
	return len(e.brains)
}

// Step advances cooldowns and executes due attacks.
func (e *Executor) Step(ctx context.Context, delta float64, tick uint64) {
	if e == nil || e.world == nil || delta <= 0 {
		return
	}
	players := e.world.AlivePlayers()
	for _, id := range e.order {
		b, ok := e.brains[id]
		if !ok {
			continue
		}
		self, ok := e.world.Combatant(id)
		if !ok || self.Dead {
			continue
		}
		if b.cooldown > 0 {
			b.cooldown -= delta
		}
		target, ok := nearestInRange(self.Position, players, e.cfg.AttackRange)
		if !ok || b.cooldown > 0 {
			continue
		}
		b.cooldown = e.cfg.AttackInterval
		if e.resolver != nil {
			e.resolver.Apply(ctx, combat.DamageRequest{
				TargetID:   target.ID,
				Amount:     e.cfg.AttackDamage,
				Instigator: b.controller,
				CauserID:   id,
				Tick:       tick,
			})
		}
	}
}

func nearestInRange(from worldpkg.Vec2, candidates []worldpkg.Combatant, radius float64) (worldpkg.Combatant, bool) {
	best := worldpkg.Combatant{}
	bestDist := radius
	found := false
	for _, candidate := range candidates {
		dist := math.Hypot(candidate.Position.X-from.X, candidate.Position.Y-from.Y)
		if dist <= bestDist {
			best = candidate
			bestDist = dist
			found = true
		}
	}
	return best, found
}
