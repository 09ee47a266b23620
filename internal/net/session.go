package net

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Yewatermelon/FPSGame/internal/net/intake"
	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/sim"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
)

// SessionHandler coordinates a websocket session for a player.
type SessionHandler struct {
	hub    *Hub
	logger telemetry.Logger
}

// NewSessionHandler constructs a websocket session handler for the given hub.
func NewSessionHandler(hub *Hub, logger telemetry.Logger) *SessionHandler {
	return &SessionHandler{hub: hub, logger: logger}
}

// Serve runs the read loop for a player connection until it drops. On
// subscribe the client receives the latest keyframe so its replica starts
// from a coherent snapshot before patches stream in.
func (h *SessionHandler) Serve(ctx context.Context, playerID string, conn *websocket.Conn) {
	if h == nil || h.hub == nil || conn == nil {
		return
	}

	sub, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	if !h.sendLatestKeyframe(ctx, playerID, sub) {
		return
	}

	engine := h.hub.Engine()
	cmdCtx := intake.CommandContext{
		Engine:    engine,
		HasPlayer: engine.HasPlayer,
		Tick:      engine.Tick,
		Now:       time.Now,
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(ctx, playerID)
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		seq := uint64(0)
		if msg.CommandSeq != nil {
			seq = *msg.CommandSeq
		}

		switch msg.Type {
		case proto.TypeFire, proto.TypeScoreAdd:
			if seq > 0 {
				if last := sub.LastCommandSeq(); last > 0 && seq <= last {
					if !h.writeAck(ctx, playerID, sub, proto.CommandAck{Seq: seq}) {
						return
					}
					continue
				}
			}
			cmd, ok, reason := intake.StageClientCommand(cmdCtx, playerID, msg)
			if ok {
				sub.StoreLastCommandSeq(seq)
				if seq > 0 && !h.writeAck(ctx, playerID, sub, proto.CommandAck{Seq: seq, Tick: cmd.OriginTick}) {
					return
				}
				continue
			}
			if reason == intake.RejectUnknownActor {
				h.printf("%s ignored for unknown player %s", msg.Type, playerID)
			}
			if seq > 0 {
				retry := reason == sim.RejectQueueLimit || reason == sim.RejectQueueFull
				if !h.writeReject(ctx, playerID, sub, proto.CommandReject{Seq: seq, Reason: reason, Retry: retry}) {
					return
				}
			}
		case proto.TypeHeartbeat:
			now := time.Now()
			data, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rttMillis(now, msg.SentAt),
			})
			if err != nil {
				h.printf("failed to marshal heartbeat ack for %s: %v", playerID, err)
				continue
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(ctx, playerID)
				return
			}
		case proto.TypeKeyframeReq:
			if msg.KeyframeSeq == nil {
				continue
			}
			if !h.sendKeyframe(ctx, playerID, sub, *msg.KeyframeSeq) {
				return
			}
		default:
			h.printf("unknown message type %q from %s", msg.Type, playerID)
		}
	}
}

func (h *SessionHandler) sendLatestKeyframe(ctx context.Context, playerID string, sub *subscriber) bool {
	frame, ok := h.hub.LatestKeyframe()
	if !ok {
		return true
	}
	data, err := proto.EncodeKeyframeMessage(proto.KeyframeMessage{
		Sequence: frame.Seq,
		Tick:     frame.Tick,
		Snapshot: frame.Data,
	})
	if err != nil {
		h.printf("failed to marshal keyframe for %s: %v", playerID, err)
		return true
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(ctx, playerID)
		return false
	}
	return true
}

func (h *SessionHandler) sendKeyframe(ctx context.Context, playerID string, sub *subscriber, seq uint64) bool {
	var data []byte
	var err error
	if frame, ok := h.hub.KeyframeBySeq(seq); ok {
		data, err = proto.EncodeKeyframeMessage(proto.KeyframeMessage{
			Sequence: frame.Seq,
			Tick:     frame.Tick,
			Snapshot: frame.Data,
		})
	} else {
		data, err = proto.EncodeKeyframeNack(proto.KeyframeNack{Sequence: seq, Reason: "expired"})
	}
	if err != nil {
		h.printf("failed to marshal keyframe response for %s: %v", playerID, err)
		return true
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(ctx, playerID)
		return false
	}
	return true
}

func (h *SessionHandler) writeAck(ctx context.Context, playerID string, sub *subscriber, ack proto.CommandAck) bool {
	data, err := proto.EncodeCommandAck(ack)
	if err != nil {
		h.printf("failed to marshal ack for %s: %v", playerID, err)
		return true
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(ctx, playerID)
		return false
	}
	return true
}

func (h *SessionHandler) writeReject(ctx context.Context, playerID string, sub *subscriber, reject proto.CommandReject) bool {
	data, err := proto.EncodeCommandReject(reject)
	if err != nil {
		h.printf("failed to marshal reject for %s: %v", playerID, err)
		return true
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(ctx, playerID)
		return false
	}
	return true
}

func (h *SessionHandler) printf(format string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Printf(format, args...)
}

func rttMillis(now time.Time, clientSent int64) int64 {
	if clientSent <= 0 {
		return 0
	}
	rtt := now.UnixMilli() - clientSent
	if rtt < 0 {
		return 0
	}
	return rtt
}
