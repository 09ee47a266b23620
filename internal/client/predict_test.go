package client

import (
	"math"
	"strings"
	"testing"
)

func TestSpawnRejectsZeroDirection(t *testing.T) {
	p := NewPredictor(PredictorConfig{Speed: 3000})
	if _, ok := p.Spawn(0, 0, 0, 0); ok {
		t.Fatal("zero direction should be rejected")
	}
	if len(p.Live()) != 0 {
		t.Fatal("nothing should be tracked")
	}
}

func TestSpawnNormalizesToSpeed(t *testing.T) {
	p := NewPredictor(PredictorConfig{Speed: 3000})
	proj, ok := p.Spawn(10, 20, 3, 4)
	if !ok {
		t.Fatal("spawn rejected")
	}
	if !strings.HasPrefix(proj.ID, "predicted-") {
		t.Fatalf("id = %q, want predicted- prefix", proj.ID)
	}
	if speed := math.Hypot(proj.VelX, proj.VelY); math.Abs(speed-3000) > 1e-9 {
		t.Fatalf("speed = %v, want 3000", speed)
	}
}

func TestStepAdvancesAndExpires(t *testing.T) {
	p := NewPredictor(PredictorConfig{Speed: 100, Lifetime: 0.5})
	p.Spawn(0, 0, 1, 0)

	p.Step(0.25)
	live := p.Live()
	if len(live) != 1 || math.Abs(live[0].X-25) > 1e-9 {
		t.Fatalf("live = %+v, want one projectile at x=25", live)
	}

	p.Step(0.3)
	if len(p.Live()) != 0 {
		t.Fatal("projectile should expire after its lifetime")
	}
}

func TestProjectilesExpireIndependently(t *testing.T) {
	p := NewPredictor(PredictorConfig{Speed: 100, Lifetime: 0.5})
	p.Spawn(0, 0, 1, 0)
	p.Step(0.4)
	p.Spawn(0, 0, 0, 1)

	p.Step(0.2)
	live := p.Live()
	if len(live) != 1 {
		t.Fatalf("live = %d, want only the younger projectile", len(live))
	}
	if live[0].VelY != 100 {
		t.Fatalf("survivor = %+v, want the second spawn", live[0])
	}
}

func TestLifetimeDefaultApplied(t *testing.T) {
	p := NewPredictor(PredictorConfig{Speed: 100})
	proj, _ := p.Spawn(0, 0, 1, 0)
	if proj == nil {
		t.Fatal("spawn rejected")
	}
	p.Step(DefaultPredictedLifetime - 0.01)
	if len(p.Live()) != 1 {
		t.Fatal("projectile should still be live just under the default lifetime")
	}
	p.Step(0.02)
	if len(p.Live()) != 0 {
		t.Fatal("projectile should expire past the default lifetime")
	}
}
