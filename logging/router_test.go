package logging_test

import (
	"context"
	"testing"
	"time"

	"github.com/Yewatermelon/FPSGame/logging"
	"github.com/Yewatermelon/FPSGame/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	clock := logging.ClockFunc(func() time.Time { return time.Unix(1000, 0) })
	router, err := logging.NewRouter(clock, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, memory
}

func closeRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRouterDeliversToSink(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     "combat.damage",
		Tick:     7,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if events[0].Type != "combat.damage" || events[0].Tick != 7 {
		t.Fatalf("event = %+v", events[0])
	}
	if !events[0].Time.Equal(time.Unix(1000, 0)) {
		t.Fatalf("time = %v, want stamped by the router clock", events[0].Time)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "combat.damage", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "network.request_rejected", Severity: logging.SeverityWarn})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "network.request_rejected" {
		t.Fatalf("events = %+v, want only the warn event", events)
	}
}

func TestRouterDropsUntypedEvents(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	closeRouter(t, router)

	if len(memory.Events()) != 0 {
		t.Fatal("untyped events must be ignored")
	}
}

func TestRouterMergesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"matchId": "match-test"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "lifecycle.match_started", Severity: logging.SeverityInfo})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if events[0].Extra["matchId"] != "match-test" {
		t.Fatalf("extra = %v, want configured field merged", events[0].Extra)
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())
	closeRouter(t, router)

	router.Publish(context.Background(), logging.Event{Type: "lifecycle.match_started", Severity: logging.SeverityInfo})

	if len(memory.Events()) != 0 {
		t.Fatal("closed router must not deliver")
	}
}
