package combat

import (
	"context"
	"math"
	"testing"
	"time"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

func testProjectileConfig() ProjectileConfig {
	return ProjectileConfig{
		Speed:         100,
		Damage:        20,
		Lifetime:      3,
		Radius:        5,
		CombatantHalf: 10,
	}
}

func newProjectileFixture(t *testing.T) (*worldpkg.World, *journalpkg.Journal, *ProjectileSet) {
	t.Helper()
	j := journalpkg.New(8, time.Minute, nil)
	w := worldpkg.New(worldpkg.Config{Role: worldpkg.RoleAuthority, MatchDuration: 180, MaxEnemies: 6}, j)
	resolver := NewResolver(w, nil, nil)
	set := NewProjectileSet(testProjectileConfig(), resolver, j)
	return w, j, set
}

func TestSpawnRejectsZeroDirection(t *testing.T) {
	_, _, set := newProjectileFixture(t)
	owner := worldpkg.Combatant{ID: "player-1", Controller: playerController("player-1")}
	if _, ok := set.Spawn(owner, worldpkg.Vec2{}); ok {
		t.Fatal("zero direction accepted")
	}
}

func TestSpawnNormalizesDirectionToSpeed(t *testing.T) {
	_, _, set := newProjectileFixture(t)
	owner := worldpkg.Combatant{ID: "player-1", Controller: playerController("player-1")}
	p, ok := set.Spawn(owner, worldpkg.Vec2{X: 3, Y: 4})
	if !ok {
		t.Fatal("spawn rejected")
	}
	speed := math.Hypot(p.Velocity.X, p.Velocity.Y)
	if math.Abs(speed-100) > 1e-9 {
		t.Fatalf("speed = %v, want 100", speed)
	}
}

func TestProjectileHitsAtMostOneTarget(t *testing.T) {
	w, _, set := newProjectileFixture(t)
	if _, err := w.AddPlayer("shooter", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	// Two victims stacked inside the projectile's path.
	if _, err := w.AddEnemy("enemy-a", "ai-a", worldpkg.Vec2{X: 10, Y: 0}, 100); err != nil {
		t.Fatalf("AddEnemy: %v", err)
	}
	if _, err := w.AddEnemy("enemy-b", "ai-b", worldpkg.Vec2{X: 12, Y: 0}, 100); err != nil {
		t.Fatalf("AddEnemy: %v", err)
	}

	shooter, _ := w.Combatant("shooter")
	if _, ok := set.Spawn(shooter, worldpkg.Vec2{X: 1, Y: 0}); !ok {
		t.Fatal("spawn rejected")
	}
	set.Step(context.Background(), 0.1, w.Combatants(), 1)

	if set.Live() != 0 {
		t.Fatalf("live projectiles = %d, want 0 after collision", set.Live())
	}
	a, _ := w.Combatant("enemy-a")
	b, _ := w.Combatant("enemy-b")
	damaged := 0
	if a.Health < 100 {
		damaged++
	}
	if b.Health < 100 {
		damaged++
	}
	if damaged != 1 {
		t.Fatalf("%d targets damaged, want exactly 1", damaged)
	}
}

func TestProjectileNeverHitsOwner(t *testing.T) {
	w, _, set := newProjectileFixture(t)
	if _, err := w.AddPlayer("shooter", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	shooter, _ := w.Combatant("shooter")
	if _, ok := set.Spawn(shooter, worldpkg.Vec2{X: 1, Y: 0}); !ok {
		t.Fatal("spawn rejected")
	}
	// Tiny step keeps the projectile overlapping its owner.
	set.Step(context.Background(), 0.001, w.Combatants(), 1)

	c, _ := w.Combatant("shooter")
	if c.Health != 100 {
		t.Fatalf("owner health = %v, want untouched", c.Health)
	}
	if set.Live() != 1 {
		t.Fatalf("live projectiles = %d, want 1", set.Live())
	}
}

func TestProjectileSkipsDeadTargets(t *testing.T) {
	w, _, set := newProjectileFixture(t)
	if _, err := w.AddPlayer("shooter", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if _, err := w.AddEnemy("enemy-a", "ai-a", worldpkg.Vec2{X: 10, Y: 0}, 100); err != nil {
		t.Fatalf("AddEnemy: %v", err)
	}
	if err := w.SetDead("enemy-a"); err != nil {
		t.Fatalf("SetDead: %v", err)
	}

	shooter, _ := w.Combatant("shooter")
	set.Spawn(shooter, worldpkg.Vec2{X: 1, Y: 0})
	set.Step(context.Background(), 0.1, w.Combatants(), 1)

	if set.Live() != 1 {
		t.Fatalf("live projectiles = %d, want 1 (corpse must not block)", set.Live())
	}
}

func TestProjectileExpiresAfterLifetime(t *testing.T) {
	w, j, set := newProjectileFixture(t)
	if _, err := w.AddPlayer("shooter", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	shooter, _ := w.Combatant("shooter")
	p, _ := set.Spawn(shooter, worldpkg.Vec2{X: 0, Y: 1})
	j.Drain()

	set.Step(context.Background(), 4, nil, 1)

	if set.Live() != 0 {
		t.Fatalf("live projectiles = %d, want 0 after expiry", set.Live())
	}
	patches := j.Drain()
	if len(patches) != 1 || patches[0].Kind != journalpkg.PatchProjectileRemoved || patches[0].EntityID != string(p.ID) {
		t.Fatalf("patches = %+v, want single projectile_removed for %s", patches, p.ID)
	}
}
