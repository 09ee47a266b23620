package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Yewatermelon/FPSGame/internal/match"
	"github.com/Yewatermelon/FPSGame/internal/net/proto"
	"github.com/Yewatermelon/FPSGame/internal/sim"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	engine := sim.New(sim.Config{Seed: 1}, sim.Deps{})
	engine.Spawns().RegisterPlayerStart(match.SpawnPoint{Name: "start-nw", Position: worldpkg.Vec2{X: 500, Y: 500}})
	hub := NewHub(engine, HubConfig{}, nil, nil)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{Metrics: telemetry.NewCounters()})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, hub
}

func joinViaHTTP(t *testing.T, srv *httptest.Server) proto.JoinResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/join", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}
	var joined proto.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	return joined
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestJoinAssignsPlayerAndSnapshot(t *testing.T) {
	srv, hub := newTestServer(t)

	joined := joinViaHTTP(t, srv)
	if !strings.HasPrefix(joined.ID, "player-") {
		t.Fatalf("id = %q, want player- prefix", joined.ID)
	}
	if joined.MatchID == "" {
		t.Fatal("match id missing")
	}
	if len(joined.Snapshot.Combatants) != 1 {
		t.Fatalf("snapshot has %d combatants, want 1", len(joined.Snapshot.Combatants))
	}
	if !hub.Engine().HasPlayer(joined.ID) {
		t.Fatal("engine should track the joined player")
	}
}

func TestJoinRejectsNonPost(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/join")
	if err != nil {
		t.Fatalf("GET /join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestJoinConflictAfterMatchEnd(t *testing.T) {
	engine := sim.New(sim.Config{
		Seed:      1,
		Lifecycle: match.Config{CountdownInterval: 1000, SpawnInterval: 1000, WinPollInterval: 1},
	}, sim.Deps{})
	engine.Spawns().RegisterPlayerStart(match.SpawnPoint{Name: "start-nw", Position: worldpkg.Vec2{X: 500, Y: 500}})
	hub := NewHub(engine, HubConfig{}, nil, nil)
	srv := httptest.NewServer(NewHTTPHandler(hub, HTTPHandlerConfig{Metrics: telemetry.NewCounters()}))
	t.Cleanup(srv.Close)

	joinViaHTTP(t, srv)
	engine.Start(context.Background())
	engine.Step(context.Background(), 1.0/30)
	if !engine.Snapshot().Match.Ended {
		t.Fatal("match should have ended on the first win poll")
	}

	resp, err := http.Post(srv.URL+"/join", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409 after match end", resp.StatusCode)
	}
}

func TestDiagnosticsReportsMatch(t *testing.T) {
	srv, hub := newTestServer(t)
	resp, err := http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("GET /diagnostics: %v", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Status  string `json:"status"`
		MatchID string `json:"matchId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "ok" || payload.MatchID != hub.Engine().MatchID() {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestWebsocketRequiresPlayerID(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebsocketSessionSeedsKeyframe(t *testing.T) {
	srv, _ := newTestServer(t)
	joined := joinViaHTTP(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?id=" + joined.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frame struct {
		Type     string `json:"type"`
		Sequence uint64 `json:"sequence"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read keyframe: %v", err)
	}
	if frame.Type != proto.TypeKeyframe {
		t.Fatalf("first message type = %q, want %q", frame.Type, proto.TypeKeyframe)
	}

	seq := uint64(1)
	if err := conn.WriteJSON(map[string]any{"type": proto.TypeFire, "dirX": 1, "seq": seq}); err != nil {
		t.Fatalf("write fire: %v", err)
	}
	var ack struct {
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != proto.TypeCommandAck || ack.Seq != seq {
		t.Fatalf("ack = %+v, want ack for seq %d", ack, seq)
	}
}
