package world

import (
	"errors"
	"testing"
	"time"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
)

func newTestWorld(t *testing.T) (*World, *journalpkg.Journal) {
	t.Helper()
	j := journalpkg.New(8, time.Minute, nil)
	w := New(Config{Role: RoleAuthority, MatchDuration: 180, MaxEnemies: 6}, j)
	return w, j
}

func TestReplicaRoleRejectsMutation(t *testing.T) {
	j := journalpkg.New(8, time.Minute, nil)
	w := New(Config{Role: RoleReplica, MatchDuration: 180, MaxEnemies: 6}, j)

	if _, err := w.AddPlayer("player-1", Vec2{}, 100); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("AddPlayer on replica: got %v, want ErrNotAuthority", err)
	}
	if _, err := w.ApplyDamageDelta("player-1", 10); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("ApplyDamageDelta on replica: got %v, want ErrNotAuthority", err)
	}
	if err := w.MutateMatch(func(state *MatchState) { state.Ended = true }); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("MutateMatch on replica: got %v, want ErrNotAuthority", err)
	}
}

func TestAddPlayerDuplicate(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{X: 10, Y: 20}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if _, err := w.AddPlayer("player-1", Vec2{}, 100); !errors.Is(err, ErrAlreadyTracked) {
		t.Fatalf("duplicate AddPlayer: got %v, want ErrAlreadyTracked", err)
	}
}

func TestApplyDamageDeltaClampsAtZero(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}

	actual, err := w.ApplyDamageDelta("player-1", 30)
	if err != nil {
		t.Fatalf("ApplyDamageDelta: %v", err)
	}
	if actual != 30 {
		t.Fatalf("actual damage = %v, want 30", actual)
	}

	// Overkill only reports the health that was actually removed.
	actual, err = w.ApplyDamageDelta("player-1", 500)
	if err != nil {
		t.Fatalf("ApplyDamageDelta overkill: %v", err)
	}
	if actual != 70 {
		t.Fatalf("overkill actual damage = %v, want 70", actual)
	}

	c, _ := w.Combatant("player-1")
	if c.Health != 0 {
		t.Fatalf("health = %v, want 0", c.Health)
	}
}

func TestDeadCombatantHealthFrozen(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := w.SetDead("player-1"); err != nil {
		t.Fatalf("SetDead: %v", err)
	}
	if err := w.SetDead("player-1"); !errors.Is(err, ErrCombatantDead) {
		t.Fatalf("second SetDead: got %v, want ErrCombatantDead", err)
	}
	if _, err := w.ApplyDamageDelta("player-1", 10); !errors.Is(err, ErrCombatantDead) {
		t.Fatalf("damage after death: got %v, want ErrCombatantDead", err)
	}
	c, _ := w.Combatant("player-1")
	if !c.Dead || c.Health != 100 {
		t.Fatalf("dead=%v health=%v, want dead with frozen health", c.Dead, c.Health)
	}
}

func TestAddScoreFloorsAtZero(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if _, err := w.AddScore("nobody", 5); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("AddScore unknown: got %v, want ErrUnknownPlayer", err)
	}
	score, err := w.AddScore("player-1", -10)
	if err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if score != 0 {
		t.Fatalf("score = %v, want 0", score)
	}
}

func TestMatchEndedIsMonotonic(t *testing.T) {
	w, _ := newTestWorld(t)
	if err := w.MutateMatch(func(state *MatchState) {
		state.Ended = true
		state.EndReason = "time expired"
	}); err != nil {
		t.Fatalf("MutateMatch: %v", err)
	}
	err := w.MutateMatch(func(state *MatchState) { state.RemainingTime = 55 })
	if !errors.Is(err, ErrMatchEnded) {
		t.Fatalf("mutation after end: got %v, want ErrMatchEnded", err)
	}
	state := w.Match()
	if !state.Ended || state.EndReason != "time expired" {
		t.Fatalf("state = %+v, want ended with original reason", state)
	}
}

func TestRemovePlayerDropsScoreRecord(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := w.RemoveCombatant("player-1"); err != nil {
		t.Fatalf("RemoveCombatant: %v", err)
	}
	if _, ok := w.Score("player-1"); ok {
		t.Fatal("score record survived player removal")
	}
	if _, ok := w.Combatant("player-1"); ok {
		t.Fatal("combatant survived removal")
	}
}

func TestSortedPlayerIDsAscending(t *testing.T) {
	w, _ := newTestWorld(t)
	for _, id := range []string{"player-c", "player-a", "player-b"} {
		if _, err := w.AddPlayer(id, Vec2{}, 100); err != nil {
			t.Fatalf("AddPlayer %s: %v", id, err)
		}
	}
	got := w.SortedPlayerIDs()
	want := []string{"player-a", "player-b", "player-c"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestMutationsJournalPerFieldPatches(t *testing.T) {
	w, j := newTestWorld(t)
	if _, err := w.AddPlayer("player-1", Vec2{X: 5, Y: 6}, 100); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if _, err := w.ApplyDamageDelta("player-1", 40); err != nil {
		t.Fatalf("ApplyDamageDelta: %v", err)
	}
	if err := w.SetDead("player-1"); err != nil {
		t.Fatalf("SetDead: %v", err)
	}

	patches := j.Drain()
	kinds := make([]journalpkg.PatchKind, 0, len(patches))
	for _, p := range patches {
		kinds = append(kinds, p.Kind)
	}
	want := []journalpkg.PatchKind{
		journalpkg.PatchCombatantJoined,
		journalpkg.PatchCombatantHealth,
		journalpkg.PatchCombatantDead,
	}
	if len(kinds) != len(want) {
		t.Fatalf("patch kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("patch kinds = %v, want %v", kinds, want)
		}
	}
	if patches[0].EntityID != "player-1" {
		t.Fatalf("entity id = %q, want player-1", patches[0].EntityID)
	}
}
