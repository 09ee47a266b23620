package intake

import (
	"testing"
	"time"

	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/sim"
)

type stubEngine struct {
	staged []sim.Command
	reject string
}

func (s *stubEngine) Enqueue(cmd sim.Command) (bool, string) {
	if s.reject != "" {
		return false, s.reject
	}
	s.staged = append(s.staged, cmd)
	return true, ""
}

func testContext(engine *stubEngine) CommandContext {
	return CommandContext{
		Engine:    engine,
		HasPlayer: func(id string) bool { return id == "player-1" },
		Tick:      func() uint64 { return 7 },
		Now:       func() time.Time { return time.Unix(100, 0) },
	}
}

func TestStageFireCommand(t *testing.T) {
	engine := &stubEngine{}
	cmd, ok, reason := StageClientCommand(testContext(engine), "player-1", proto.ClientMessage{Type: proto.TypeFire, DirX: 1})
	if !ok {
		t.Fatalf("rejected: %s", reason)
	}
	if cmd.ActorID != "player-1" || cmd.OriginTick != 7 || !cmd.IssuedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("cmd = %+v, want stamped actor/tick/time", cmd)
	}
	if len(engine.staged) != 1 {
		t.Fatalf("staged %d commands, want 1", len(engine.staged))
	}
}

func TestStageRejections(t *testing.T) {
	cases := []struct {
		name     string
		playerID string
		msg      proto.ClientMessage
		want     string
	}{
		{"unknown type", "player-1", proto.ClientMessage{Type: "teleport"}, RejectInvalidCommand},
		{"zero direction fire", "player-1", proto.ClientMessage{Type: proto.TypeFire}, RejectInvalidCommand},
		{"unknown player", "ghost", proto.ClientMessage{Type: proto.TypeFire, DirX: 1}, RejectUnknownActor},
		{"score delta zero", "player-1", proto.ClientMessage{Type: proto.TypeScoreAdd, Delta: 0}, RejectDeltaOutOfRange},
		{"score delta over cap", "player-1", proto.ClientMessage{Type: proto.TypeScoreAdd, Delta: proto.MaxScoreDelta + 1}, RejectDeltaOutOfRange},
		{"well-formed score still refused", "player-1", proto.ClientMessage{Type: proto.TypeScoreAdd, Delta: 100}, RejectNotAuthoritative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{}
			_, ok, reason := StageClientCommand(testContext(engine), tc.playerID, tc.msg)
			if ok || reason != tc.want {
				t.Fatalf("ok=%v reason=%q, want %q", ok, reason, tc.want)
			}
			if len(engine.staged) != 0 {
				t.Fatalf("staged %d commands, want none", len(engine.staged))
			}
		})
	}
}

func TestStagePropagatesQueueRejection(t *testing.T) {
	engine := &stubEngine{reject: sim.RejectQueueFull}
	_, ok, reason := StageClientCommand(testContext(engine), "player-1", proto.ClientMessage{Type: proto.TypeFire, DirY: -1})
	if ok || reason != sim.RejectQueueFull {
		t.Fatalf("ok=%v reason=%q, want %q", ok, reason, sim.RejectQueueFull)
	}
}
