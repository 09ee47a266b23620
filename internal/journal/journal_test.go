package journal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDrainReturnsPatchesInOrder(t *testing.T) {
	j := New(4, time.Minute, nil)
	j.Append(Patch{Kind: PatchCombatantJoined, EntityID: "a"})
	j.Append(Patch{Kind: PatchCombatantHealth, EntityID: "a"})
	j.Append(Patch{Kind: PatchCombatantDead, EntityID: "a"})

	if got := len(j.Pending()); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	patches := j.Drain()
	if len(patches) != 3 {
		t.Fatalf("drained %d patches, want 3", len(patches))
	}
	if patches[0].Kind != PatchCombatantJoined || patches[2].Kind != PatchCombatantDead {
		t.Fatalf("unexpected order: %v", patches)
	}
	if remaining := j.Drain(); remaining != nil {
		t.Fatalf("second drain returned %v, want nil", remaining)
	}
}

func TestRestorePrependsUndelivered(t *testing.T) {
	j := New(4, time.Minute, nil)
	j.Append(Patch{Kind: PatchCombatantJoined, EntityID: "a"})
	undelivered := j.Drain()

	j.Append(Patch{Kind: PatchCombatantHealth, EntityID: "a"})
	j.Restore(undelivered)

	patches := j.Drain()
	if len(patches) != 2 {
		t.Fatalf("drained %d patches, want 2", len(patches))
	}
	if patches[0].Kind != PatchCombatantJoined {
		t.Fatalf("restored patch not first: %v", patches)
	}
}

func TestKeyframeCapacityEviction(t *testing.T) {
	metrics := &countingTelemetry{counts: make(map[string]int)}
	j := New(2, time.Hour, metrics)

	now := time.Now()
	first := j.RecordKeyframe(1, now, json.RawMessage(`{"t":1}`))
	j.RecordKeyframe(2, now, json.RawMessage(`{"t":2}`))
	third := j.RecordKeyframe(3, now, json.RawMessage(`{"t":3}`))

	if _, ok := j.KeyframeBySeq(first); ok {
		t.Fatal("evicted keyframe still resolvable")
	}
	if _, ok := j.KeyframeBySeq(third); !ok {
		t.Fatal("latest keyframe missing")
	}
	if metrics.counts[metricKeyframeEvicted] == 0 {
		t.Fatal("eviction not recorded")
	}
}

func TestKeyframeAgeExpiry(t *testing.T) {
	j := New(8, time.Minute, nil)

	base := time.Now()
	old := j.RecordKeyframe(1, base, json.RawMessage(`{"t":1}`))
	fresh := j.RecordKeyframe(2, base.Add(2*time.Minute), json.RawMessage(`{"t":2}`))

	if _, ok := j.KeyframeBySeq(old); ok {
		t.Fatal("expired keyframe still resolvable")
	}
	frame, ok := j.LatestKeyframe()
	if !ok || frame.Seq != fresh {
		t.Fatalf("latest = %+v ok=%v, want seq %d", frame, ok, fresh)
	}
}

type countingTelemetry struct {
	counts map[string]int
}

func (c *countingTelemetry) RecordJournalDrop(metric string) {
	c.counts[metric]++
}
