package net

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/sim"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
)

const (
	broadcastBytesMetricKey    = "net_broadcast_bytes_total"
	broadcastFailuresMetricKey = "net_broadcast_failures_total"
	patchesSentMetricKey       = "net_patches_sent_total"
)

// DefaultKeyframeInterval is the cadence, in ticks, at which the hub records
// keyframes for late subscribers.
const DefaultKeyframeInterval = 60

// subscriber wraps a websocket connection with a write lock so the broadcast
// goroutine and the session goroutine never interleave frames.
type subscriber struct {
	conn           *websocket.Conn
	mu             sync.Mutex
	lastCommandSeq atomic.Uint64
}

func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *subscriber) LastCommandSeq() uint64 {
	return s.lastCommandSeq.Load()
}

func (s *subscriber) StoreLastCommandSeq(seq uint64) {
	s.lastCommandSeq.Store(seq)
}

// HubConfig tunes broadcast behavior.
type HubConfig struct {
	KeyframeInterval int
}

// Hub fans drained patches out to every websocket subscriber once per tick.
// Delivery is at-least-once: when any write fails the tick's patches are
// restored to the journal and retried on the next tick, so healthy
// subscribers may see duplicates and must apply patches idempotently.
type Hub struct {
	engine  *sim.Engine
	cfg     HubConfig
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu          sync.Mutex
	subscribers map[string]*subscriber
}

// NewHub constructs a hub over the given engine.
func NewHub(engine *sim.Engine, cfg HubConfig, logger telemetry.Logger, metrics telemetry.Metrics) *Hub {
	if cfg.KeyframeInterval <= 0 {
		cfg.KeyframeInterval = DefaultKeyframeInterval
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Hub{
		engine:      engine,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		subscribers: make(map[string]*subscriber),
	}
}

// Engine exposes the underlying simulation engine.
func (h *Hub) Engine() *sim.Engine {
	if h == nil {
		return nil
	}
	return h.engine
}

// Subscribe registers a websocket connection for a joined player. An
// existing connection for the same player is closed and replaced.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, bool) {
	if h == nil || conn == nil {
		return nil, false
	}
	if !h.engine.HasPlayer(playerID) {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub
	return sub, true
}

// Disconnect drops a player's subscription and removes them from the match.
func (h *Hub) Disconnect(ctx context.Context, playerID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	sub, ok := h.subscribers[playerID]
	if ok {
		delete(h.subscribers, playerID)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
	if err := h.engine.Leave(ctx, playerID); err != nil && h.logger != nil {
		h.logger.Printf("leave failed for %s: %v", playerID, err)
	}
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Broadcast drains the journal and pushes the tick's patches to every
// subscriber. Keyframes are recorded on the configured cadence so late
// subscribers have a recent snapshot to request.
func (h *Hub) Broadcast(ctx context.Context, result sim.StepResult) {
	if h == nil {
		return
	}

	var keyframeSeq uint64
	if h.cfg.KeyframeInterval > 0 && result.Tick%uint64(h.cfg.KeyframeInterval) == 0 {
		seq, err := h.engine.CaptureKeyframe()
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("keyframe capture failed at tick %d: %v", result.Tick, err)
			}
		} else {
			keyframeSeq = seq
		}
	}

	patches := h.engine.DrainPatches()

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	data, err := proto.EncodeStateMessage(proto.StateMessage{
		Tick:        result.Tick,
		Patches:     patches,
		KeyframeSeq: keyframeSeq,
		ServerTime:  result.Now.UnixMilli(),
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("failed to marshal state message: %v", err)
		}
		h.engine.RestorePatches(patches)
		return
	}

	failed := make([]string, 0)
	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			failed = append(failed, id)
			continue
		}
		h.metrics.Add(broadcastBytesMetricKey, uint64(len(data)))
	}
	h.metrics.Add(patchesSentMetricKey, uint64(len(patches)))

	if len(failed) > 0 {
		h.metrics.Add(broadcastFailuresMetricKey, uint64(len(failed)))
		h.engine.RestorePatches(patches)
		for _, id := range failed {
			h.Disconnect(ctx, id)
		}
	}
}

// KeyframeBySeq resolves a keyframe request into either the stored snapshot
// or a nack when the sequence has left the retention window.
func (h *Hub) KeyframeBySeq(seq uint64) (journalpkg.Keyframe, bool) {
	if h == nil {
		return journalpkg.Keyframe{}, false
	}
	return h.engine.KeyframeBySeq(seq)
}

// LatestKeyframe returns the most recent keyframe, recording one on demand
// when the ring is still empty.
func (h *Hub) LatestKeyframe() (journalpkg.Keyframe, bool) {
	if h == nil {
		return journalpkg.Keyframe{}, false
	}
	if frame, ok := h.engine.LatestKeyframe(); ok {
		return frame, true
	}
	if _, err := h.engine.CaptureKeyframe(); err != nil {
		return journalpkg.Keyframe{}, false
	}
	return h.engine.LatestKeyframe()
}
