package intake

import (
	"time"

	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/sim"
)

// Rejection reasons returned by StageClientCommand before a command ever
// reaches the engine queue.
const (
	RejectInvalidCommand   = "invalid_command"
	RejectUnknownActor     = "unknown_actor"
	RejectDeltaOutOfRange  = "delta_out_of_range"
	RejectNotAuthoritative = "not_authoritative"
)

// Engine is the queue surface the intake layer stages commands into.
type Engine interface {
	Enqueue(sim.Command) (bool, string)
}

// CommandContext carries the dependencies needed to stage a client command.
type CommandContext struct {
	Engine    Engine
	HasPlayer func(string) bool
	Tick      func() uint64
	Now       func() time.Time
}

// StageClientCommand validates an inbound message and stages it on the
// engine queue. Score changes are validated for shape first and then refused
// outright: clients are never an authority over score, so even a well-formed
// delta is rejected.
func StageClientCommand(ctx CommandContext, playerID string, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, RejectInvalidCommand
	}

	switch command.Type {
	case sim.CommandFire:
		if command.Fire == nil || (command.Fire.DirX == 0 && command.Fire.DirY == 0) {
			return zero, false, RejectInvalidCommand
		}
	case sim.CommandScoreAdd:
		if command.Score == nil {
			return zero, false, RejectInvalidCommand
		}
		if !proto.ValidScoreDelta(command.Score.Delta) {
			return zero, false, RejectDeltaOutOfRange
		}
		return zero, false, RejectNotAuthoritative
	default:
		return zero, false, RejectInvalidCommand
	}

	if ctx.HasPlayer != nil && !ctx.HasPlayer(playerID) {
		return zero, false, RejectUnknownActor
	}

	command.ActorID = playerID
	if ctx.Tick != nil {
		command.OriginTick = ctx.Tick()
	}
	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ctx.Engine == nil {
		return zero, false, sim.RejectQueueFull
	}
	if ok, reason := ctx.Engine.Enqueue(command); !ok {
		return zero, false, reason
	}

	return command, true, ""
}
