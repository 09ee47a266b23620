package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Yewatermelon/FPSGame/logging"
	loggingSinks "github.com/Yewatermelon/FPSGame/logging/sinks"

	"github.com/Yewatermelon/FPSGame/internal/match"
	servernet "github.com/Yewatermelon/FPSGame/internal/net"
	"github.com/Yewatermelon/FPSGame/internal/sim"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// Run wires the logging router, simulation engine, and HTTP surface, then
// serves until the context is cancelled.
func Run(ctx context.Context, logger telemetry.Logger) error {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	cfg := LoadConfig(logger)

	router, err := logging.NewRouter(logging.SystemClock{}, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logging.ConsoleConfig{})},
	})
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := telemetry.NewCounters()
	engine := sim.New(sim.Config{
		TickRate:      cfg.TickRate,
		MatchDuration: cfg.MatchDuration,
		MaxEnemies:    cfg.MaxEnemies,
		Seed:          cfg.Seed,
	}, sim.Deps{
		Publisher: router,
		Logger:    logger,
		Metrics:   metrics,
		Clock:     logging.SystemClock{},
	})
	registerDefaultLayout(engine.Spawns())

	hub := servernet.NewHub(engine, servernet.HubConfig{KeyframeInterval: cfg.KeyframeInterval}, logger, metrics)
	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger:  logger,
		Metrics: metrics,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	logger.Printf("server listening on %s match=%s", cfg.Addr, engine.MatchID())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := engine.Run(ctx, hub.Broadcast); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// registerDefaultLayout seeds the arena's spawn geometry: round-robin player
// starts in the corners and enemy spawn points at the edge midpoints.
func registerDefaultLayout(spawns *match.SpawnRegistry) {
	spawns.RegisterPlayerStart(match.SpawnPoint{Name: "start-nw", Position: worldpkg.Vec2{X: 500, Y: 500}})
	spawns.RegisterPlayerStart(match.SpawnPoint{Name: "start-ne", Position: worldpkg.Vec2{X: 1500, Y: 500}})
	spawns.RegisterPlayerStart(match.SpawnPoint{Name: "start-sw", Position: worldpkg.Vec2{X: 500, Y: 1500}})
	spawns.RegisterPlayerStart(match.SpawnPoint{Name: "start-se", Position: worldpkg.Vec2{X: 1500, Y: 1500}})

	spawns.RegisterEnemyPoint(match.SpawnPoint{Name: "gate-north", Position: worldpkg.Vec2{X: 1000, Y: 200}})
	spawns.RegisterEnemyPoint(match.SpawnPoint{Name: "gate-south", Position: worldpkg.Vec2{X: 1000, Y: 1800}})
	spawns.RegisterEnemyPoint(match.SpawnPoint{Name: "gate-east", Position: worldpkg.Vec2{X: 1800, Y: 1000}})
	spawns.RegisterEnemyPoint(match.SpawnPoint{Name: "gate-west", Position: worldpkg.Vec2{X: 200, Y: 1000}})
}
