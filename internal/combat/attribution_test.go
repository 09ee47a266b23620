package combat

import (
	"context"
	"testing"

	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

func TestPlayerKillScoresOnce(t *testing.T) {
	w := newCombatWorld(t)
	if _, err := w.AddPlayer("killer", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	tracker := NewTracker(w, nil, 5)

	event := DeathEvent{TargetID: "enemy-1", Killer: playerController("killer")}
	if got := tracker.HandleDeath(context.Background(), event); got != AttributionScored {
		t.Fatalf("first delivery = %v, want scored", got)
	}
	if got := tracker.HandleDeath(context.Background(), event); got != AttributionDuplicate {
		t.Fatalf("second delivery = %v, want duplicate", got)
	}

	rec, ok := w.Score("killer")
	if !ok || rec.Score != 5 {
		t.Fatalf("score = %+v ok=%v, want 5", rec, ok)
	}
}

func TestNonPlayerKillerNeverScores(t *testing.T) {
	w := newCombatWorld(t)
	if _, err := w.AddPlayer("bystander", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	tracker := NewTracker(w, nil, 5)

	cases := []struct {
		name   string
		killer worldpkg.Controller
	}{
		{"ai killer", aiController("enemy-1")},
		{"no killer", worldpkg.Controller{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := DeathEvent{TargetID: worldpkg.EntityID("victim-" + tc.name), Killer: tc.killer}
			if got := tracker.HandleDeath(context.Background(), event); got != AttributionNone {
				t.Fatalf("result = %v, want none", got)
			}
		})
	}

	rec, _ := w.Score("bystander")
	if rec.Score != 0 {
		t.Fatalf("score = %v, want untouched 0", rec.Score)
	}
}

func TestForgetAllowsReusedEntityID(t *testing.T) {
	w := newCombatWorld(t)
	if _, err := w.AddPlayer("killer", worldpkg.Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	tracker := NewTracker(w, nil, 5)

	event := DeathEvent{TargetID: "enemy-1", Killer: playerController("killer")}
	tracker.HandleDeath(context.Background(), event)
	tracker.Forget("enemy-1")
	if got := tracker.HandleDeath(context.Background(), event); got != AttributionScored {
		t.Fatalf("after forget = %v, want scored", got)
	}
}
