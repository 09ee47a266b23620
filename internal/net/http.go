package net

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// HTTPHandlerConfig tunes the HTTP surface.
type HTTPHandlerConfig struct {
	Logger  telemetry.Logger
	Metrics *telemetry.Counters
}

// NewHTTPHandler builds the server mux: join, websocket upgrade, health, and
// diagnostics.
func NewHTTPHandler(hub *Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	sessions := NewSessionHandler(hub, logger)

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string            `json:"status"`
			ServerTime  int64             `json:"serverTime"`
			MatchID     string            `json:"matchId"`
			Tick        uint64            `json:"tick"`
			Subscribers int               `json:"subscribers"`
			Counters    map[string]uint64 `json:"counters,omitempty"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			MatchID:     hub.Engine().MatchID(),
			Tick:        hub.Engine().Tick(),
			Subscribers: hub.SubscriberCount(),
			Counters:    cfg.Metrics.Snapshot(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		playerID := "player-" + uuid.NewString()
		if _, err := hub.Engine().Join(r.Context(), playerID); err != nil {
			if errors.Is(err, worldpkg.ErrMatchEnded) {
				httpError(w, "match ended", nethttp.StatusConflict)
				return
			}
			httpError(w, "join failed", nethttp.StatusServiceUnavailable)
			return
		}

		data, err := proto.EncodeJoinResponse(proto.JoinResponse{
			ID:       playerID,
			MatchID:  hub.Engine().MatchID(),
			Snapshot: hub.Engine().Snapshot(),
		})
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		playerID := r.URL.Query().Get("id")
		if playerID == "" {
			httpError(w, "missing id", nethttp.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if logger != nil {
				logger.Printf("upgrade failed for %s: %v", playerID, err)
			}
			return
		}

		sessions.Serve(r.Context(), playerID, conn)
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
