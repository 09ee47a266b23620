package combat

import (
	"context"
	"math"

	"github.com/google/uuid"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// ProjectileConfig tunes the authoritative projectile set.
type ProjectileConfig struct {
	Speed         float64
	Damage        float64
	Lifetime      float64
	Radius        float64
	CombatantHalf float64
}

// Projectile is a server-owned, replicated projectile instance. It carries
// real damage potential and resolves at most one collision.
type Projectile struct {
	ID          worldpkg.EntityID
	Owner       worldpkg.Controller
	OwnerEntity worldpkg.EntityID
	Position    worldpkg.Vec2
	Velocity    worldpkg.Vec2
	remaining   float64
}

// ProjectileSet owns every live authoritative projectile and steps them
// against the world each tick.
type ProjectileSet struct {
	cfg         ProjectileConfig
	resolver    *Resolver
	journal     *journalpkg.Journal
	projectiles []*Projectile
}

// NewProjectileSet constructs an empty set feeding hits into resolver.
func NewProjectileSet(cfg ProjectileConfig, resolver *Resolver, j *journalpkg.Journal) *ProjectileSet {
	return &ProjectileSet{cfg: cfg, resolver: resolver, journal: j}
}

// Spawn creates an authoritative projectile owned by the given combatant,
// travelling along dir. A zero direction is rejected.
func (s *ProjectileSet) Spawn(owner worldpkg.Combatant, dir worldpkg.Vec2) (*Projectile, bool) {
	if s == nil {
		return nil, false
	}
	length := math.Hypot(dir.X, dir.Y)
	if length == 0 {
		return nil, false
	}
	p := &Projectile{
		ID:          worldpkg.EntityID("projectile-" + uuid.NewString()),
		Owner:       owner.Controller,
		OwnerEntity: owner.ID,
		Position:    owner.Position,
		Velocity: worldpkg.Vec2{
			X: dir.X / length * s.cfg.Speed,
			Y: dir.Y / length * s.cfg.Speed,
		},
		remaining: s.cfg.Lifetime,
	}
	s.projectiles = append(s.projectiles, p)
	s.appendPatch(journalpkg.PatchProjectileSpawned, p.ID, journalpkg.ProjectileSpawnPayload{
		OwnerID: string(p.OwnerEntity),
		X:       p.Position.X,
		Y:       p.Position.Y,
		VX:      p.Velocity.X,
		VY:      p.Velocity.Y,
	})
	return p, true
}

// Live reports the number of in-flight projectiles.
func (s *ProjectileSet) Live() int {
	if s == nil {
		return 0
	}
	return len(s.projectiles)
}

// Step advances every projectile by delta seconds, resolving first-hit-wins
// collisions against the provided combatants. A projectile never hits its
// own owner entity and despawns after exactly one resolved collision or when
// its lifetime expires.
func (s *ProjectileSet) Step(ctx context.Context, delta float64, targets []worldpkg.Combatant, tick uint64) {
	if s == nil || delta <= 0 {
		return
	}
	kept := s.projectiles[:0]
	for _, p := range s.projectiles {
		p.Position.X += p.Velocity.X * delta
		p.Position.Y += p.Velocity.Y * delta
		p.remaining -= delta

		if target, hit := s.firstOverlap(p, targets); hit {
			if s.resolver != nil {
				s.resolver.Apply(ctx, DamageRequest{
					TargetID:   target.ID,
					Amount:     s.cfg.Damage,
					Instigator: p.Owner,
					CauserID:   p.ID,
					Tick:       tick,
				})
			}
			s.appendPatch(journalpkg.PatchProjectileRemoved, p.ID, nil)
			continue
		}
		if p.remaining <= 0 {
			s.appendPatch(journalpkg.PatchProjectileRemoved, p.ID, nil)
			continue
		}
		s.appendPatch(journalpkg.PatchProjectilePos, p.ID, journalpkg.PositionPayload{X: p.Position.X, Y: p.Position.Y})
		kept = append(kept, p)
	}
	s.projectiles = kept
}

func (s *ProjectileSet) firstOverlap(p *Projectile, targets []worldpkg.Combatant) (worldpkg.Combatant, bool) {
	reach := s.cfg.Radius + s.cfg.CombatantHalf
	for _, target := range targets {
		if target.Dead || target.ID == p.OwnerEntity {
			continue
		}
		dx := target.Position.X - p.Position.X
		dy := target.Position.Y - p.Position.Y
		if math.Hypot(dx, dy) <= reach {
			return target, true
		}
	}
	return worldpkg.Combatant{}, false
}

func (s *ProjectileSet) appendPatch(kind journalpkg.PatchKind, id worldpkg.EntityID, payload any) {
	if s.journal == nil {
		return
	}
	s.journal.Append(journalpkg.Patch{Kind: kind, EntityID: string(id), Payload: payload})
}
