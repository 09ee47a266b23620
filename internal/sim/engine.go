package sim

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/Yewatermelon/FPSGame/logging"
	lifecyclelog "github.com/Yewatermelon/FPSGame/logging/lifecycle"
	networklog "github.com/Yewatermelon/FPSGame/logging/network"

	"github.com/Yewatermelon/FPSGame/internal/ai"
	"github.com/Yewatermelon/FPSGame/internal/combat"
	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	"github.com/Yewatermelon/FPSGame/internal/match"
	"github.com/Yewatermelon/FPSGame/internal/telemetry"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// Command rejection reasons reported during tick processing, after the
// command has already cleared the queue.
const (
	RejectUnknownActor     = "unknown_actor"
	RejectActorDead        = "actor_dead"
	RejectMatchEnded       = "match_ended"
	RejectNotAuthoritative = "not_authoritative"
	RejectDeltaOutOfRange  = "delta_out_of_range"
)

// Default tuning applied by New when the corresponding Config field is zero.
const (
	DefaultTickRate         = 30
	DefaultCommandCapacity  = 256
	DefaultPerActorLimit    = 16
	DefaultPlayerMaxHealth  = 100
	DefaultEnemyMaxHealth   = 100
	DefaultKillScore        = 5
	DefaultMatchDuration    = 180
	DefaultMaxEnemies       = 6
	DefaultKeyframeCapacity = 32
	DefaultKeyframeMaxAge   = 10 * time.Second
)

// Config tunes the engine and every subsystem it owns.
type Config struct {
	TickRate         int
	CatchupMaxTicks  int
	CommandCapacity  int
	PerActorLimit    int
	PlayerMaxHealth  float64
	KillScore        float64
	MatchDuration    float64
	MaxEnemies       int
	Projectile       combat.ProjectileConfig
	Enemy            ai.EnemyConfig
	Lifecycle        match.Config
	KeyframeCapacity int
	KeyframeMaxAge   time.Duration
	Seed             int64
}

// Deps carries shared infrastructure dependencies required by the engine.
type Deps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Clock     logging.Clock
}

// Engine is the authoritative simulation. All world mutation funnels through
// Step, Join, and Leave, which share one mutex so the world only ever sees a
// single writer. Client intents enter through Enqueue and are applied on the
// next tick.
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps

	world       *worldpkg.World
	journal     *journalpkg.Journal
	resolver    *combat.Resolver
	tracker     *combat.Tracker
	projectiles *combat.ProjectileSet
	enemies     *ai.Executor
	spawns      *match.SpawnRegistry
	machine     *match.Machine
	buffer      *CommandBuffer

	tick    uint64
	started bool
}

type journalTelemetry struct {
	metrics telemetry.Metrics
}

func (t journalTelemetry) RecordJournalDrop(metric string) {
	if t.metrics == nil {
		return
	}
	t.metrics.Add(metric, 1)
}

// New wires the world, journal, combat pipeline, enemy executor, and match
// machine into a single engine.
func New(cfg Config, deps Deps) *Engine {
	cfg = withDefaults(cfg)
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics()
	}
	if deps.Clock == nil {
		deps.Clock = logging.SystemClock{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = deps.Clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	j := journalpkg.New(cfg.KeyframeCapacity, cfg.KeyframeMaxAge, journalTelemetry{metrics: deps.Metrics})
	w := worldpkg.New(worldpkg.Config{
		Role:          worldpkg.RoleAuthority,
		MatchDuration: cfg.MatchDuration,
		MaxEnemies:    cfg.MaxEnemies,
	}, j)

	e := &Engine{
		cfg:     cfg,
		deps:    deps,
		world:   w,
		journal: j,
		spawns:  match.NewSpawnRegistry(rng),
		buffer:  NewCommandBuffer(cfg.CommandCapacity, cfg.PerActorLimit, deps.Metrics),
	}
	e.resolver = combat.NewResolver(w, deps.Publisher, e.handleDeath)
	e.tracker = combat.NewTracker(w, deps.Publisher, cfg.KillScore)
	e.projectiles = combat.NewProjectileSet(cfg.Projectile, e.resolver, j)
	e.enemies = ai.NewExecutor(cfg.Enemy, w, e.resolver)
	e.machine = match.NewMachine(cfg.Lifecycle, w, deps.Publisher, e.spawns, func(c worldpkg.Combatant) {
		e.enemies.Track(c)
	})
	return e
}

func withDefaults(cfg Config) Config {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = DefaultCommandCapacity
	}
	if cfg.PerActorLimit <= 0 {
		cfg.PerActorLimit = DefaultPerActorLimit
	}
	if cfg.PlayerMaxHealth <= 0 {
		cfg.PlayerMaxHealth = DefaultPlayerMaxHealth
	}
	if cfg.KillScore <= 0 {
		cfg.KillScore = DefaultKillScore
	}
	if cfg.MatchDuration <= 0 {
		cfg.MatchDuration = DefaultMatchDuration
	}
	if cfg.MaxEnemies <= 0 {
		cfg.MaxEnemies = DefaultMaxEnemies
	}
	if cfg.Projectile.Speed <= 0 {
		cfg.Projectile.Speed = 3000
	}
	if cfg.Projectile.Damage <= 0 {
		cfg.Projectile.Damage = 20
	}
	if cfg.Projectile.Lifetime <= 0 {
		cfg.Projectile.Lifetime = 3
	}
	if cfg.Projectile.Radius <= 0 {
		cfg.Projectile.Radius = 5
	}
	if cfg.Projectile.CombatantHalf <= 0 {
		cfg.Projectile.CombatantHalf = 50
	}
	if cfg.Enemy.AttackRange <= 0 {
		cfg.Enemy.AttackRange = 150
	}
	if cfg.Enemy.AttackDamage <= 0 {
		cfg.Enemy.AttackDamage = 20
	}
	if cfg.Enemy.AttackInterval <= 0 {
		cfg.Enemy.AttackInterval = 1
	}
	if cfg.Lifecycle.EnemyMaxHealth <= 0 {
		cfg.Lifecycle.EnemyMaxHealth = DefaultEnemyMaxHealth
	}
	if cfg.Lifecycle.CountdownInterval == 0 {
		cfg.Lifecycle.CountdownInterval = uint64(cfg.TickRate)
	}
	if cfg.Lifecycle.SpawnInterval == 0 {
		cfg.Lifecycle.SpawnInterval = uint64(cfg.TickRate) * 3
	}
	if cfg.Lifecycle.WinPollInterval == 0 {
		cfg.Lifecycle.WinPollInterval = uint64(cfg.TickRate) * 5
	}
	if cfg.KeyframeCapacity <= 0 {
		cfg.KeyframeCapacity = DefaultKeyframeCapacity
	}
	if cfg.KeyframeMaxAge <= 0 {
		cfg.KeyframeMaxAge = DefaultKeyframeMaxAge
	}
	return cfg
}

// Spawns exposes the spawn registry so callers can register level geometry
// before Start.
func (e *Engine) Spawns() *match.SpawnRegistry {
	if e == nil {
		return nil
	}
	return e.spawns
}

// MatchID reports the identifier of the match this engine runs.
func (e *Engine) MatchID() string {
	if e == nil {
		return ""
	}
	return e.machine.MatchID()
}

// Tick reports the last processed simulation tick.
func (e *Engine) Tick() uint64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Start begins the match lifecycle. It is a no-op when called twice.
func (e *Engine) Start(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	e.machine.Start(ctx, e.tick)
}

// Enqueue stages a client or server command for the next tick. On rejection
// it returns false with the queue reason.
func (e *Engine) Enqueue(cmd Command) (bool, string) {
	if e == nil {
		return false, RejectQueueFull
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = e.deps.Clock.Now()
	}
	ok, reason := e.buffer.Push(cmd)
	if !ok && e.deps.Logger != nil {
		e.deps.Logger.Printf("[backpressure] dropping command actor=%s type=%s reason=%s", cmd.ActorID, cmd.Type, reason)
	}
	return ok, reason
}

// Pending reports the number of staged commands.
func (e *Engine) Pending() int {
	if e == nil {
		return 0
	}
	return e.buffer.Len()
}

// Join registers a player at the next round-robin start point and returns
// the resulting combatant state.
func (e *Engine) Join(ctx context.Context, playerID string) (worldpkg.Combatant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world.Match().Ended {
		networklog.RequestRejected(ctx, e.deps.Publisher, e.tick, logging.EntityRef{
			ID:   playerID,
			Kind: logging.EntityKindPlayer,
		}, "Join", RejectMatchEnded)
		return worldpkg.Combatant{}, worldpkg.ErrMatchEnded
	}
	start, _ := e.spawns.NextPlayerStart()
	c, err := e.world.AddPlayer(playerID, start.Position, e.cfg.PlayerMaxHealth)
	if err != nil {
		return worldpkg.Combatant{}, err
	}
	lifecyclelog.PlayerJoined(ctx, e.deps.Publisher, e.tick, logging.EntityRef{
		ID:   playerID,
		Kind: logging.EntityKindPlayer,
	})
	return *c, nil
}

// HasPlayer reports whether a player-controlled combatant is tracked.
func (e *Engine) HasPlayer(playerID string) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.world.Combatant(worldpkg.EntityID(playerID))
	return ok && c.IsPlayer()
}

// Leave removes a player's combatant and score record.
func (e *Engine) Leave(ctx context.Context, playerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.world.RemoveCombatant(worldpkg.EntityID(playerID)); err != nil {
		return err
	}
	e.tracker.Forget(worldpkg.EntityID(playerID))
	lifecyclelog.PlayerLeft(ctx, e.deps.Publisher, e.tick, logging.EntityRef{
		ID:   playerID,
		Kind: logging.EntityKindPlayer,
	})
	return nil
}

// Step advances the simulation one tick: staged commands first, then the
// match tasks, enemy attacks, and projectile integration.
func (e *Engine) Step(ctx context.Context, delta float64) uint64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick++
	e.world.SetTick(e.tick)
	for _, cmd := range e.buffer.Drain() {
		e.applyCommand(ctx, cmd)
	}
	e.machine.Advance(ctx, e.tick)
	// Combat halts the moment the match ends; the periodic tasks are
	// cancelled, but enemy AI and in-flight projectiles run outside the
	// task set and need their own gate. Re-checked between sub-steps since
	// a death during the enemy pass can end the match mid-tick.
	if !e.world.Match().Ended {
		e.enemies.Step(ctx, delta, e.tick)
	}
	if !e.world.Match().Ended {
		e.projectiles.Step(ctx, delta, e.world.Combatants(), e.tick)
	}
	return e.tick
}

func (e *Engine) applyCommand(ctx context.Context, cmd Command) {
	switch cmd.Type {
	case CommandFire:
		e.applyFire(ctx, cmd)
	case CommandScoreAdd:
		e.applyScoreAdd(ctx, cmd)
	}
}

func (e *Engine) applyFire(ctx context.Context, cmd Command) {
	if cmd.Fire == nil {
		return
	}
	if e.world.Match().Ended {
		e.rejectCommand(ctx, cmd, RejectMatchEnded)
		return
	}
	c, ok := e.world.Combatant(worldpkg.EntityID(cmd.ActorID))
	if !ok {
		e.rejectCommand(ctx, cmd, RejectUnknownActor)
		return
	}
	if c.Dead {
		e.rejectCommand(ctx, cmd, RejectActorDead)
		return
	}
	e.projectiles.Spawn(c, worldpkg.Vec2{X: cmd.Fire.DirX, Y: cmd.Fire.DirY})
}

// applyScoreAdd handles server-internal score grants. Score changes are never
// accepted from clients regardless of payload validity.
func (e *Engine) applyScoreAdd(ctx context.Context, cmd Command) {
	if cmd.Score == nil {
		return
	}
	if cmd.Origin != OriginServer {
		e.rejectCommand(ctx, cmd, RejectNotAuthoritative)
		return
	}
	if e.world.Match().Ended {
		e.rejectCommand(ctx, cmd, RejectMatchEnded)
		return
	}
	if cmd.Score.Delta <= 0 || cmd.Score.Delta > MaxScoreDelta {
		e.rejectCommand(ctx, cmd, RejectDeltaOutOfRange)
		return
	}
	if _, err := e.world.AddScore(cmd.ActorID, cmd.Score.Delta); err != nil {
		e.rejectCommand(ctx, cmd, RejectUnknownActor)
	}
}

func (e *Engine) rejectCommand(ctx context.Context, cmd Command, reason string) {
	networklog.RequestRejected(ctx, e.deps.Publisher, e.tick, logging.EntityRef{
		ID:   cmd.ActorID,
		Kind: logging.EntityKindPlayer,
	}, string(cmd.Type), reason)
}

func (e *Engine) handleDeath(ctx context.Context, event combat.DeathEvent) {
	e.tracker.HandleDeath(ctx, event)
	if c, ok := e.world.Combatant(event.TargetID); ok && c.Controller.Kind == worldpkg.ControllerAI {
		e.enemies.Forget(event.TargetID)
	}
	e.machine.NoteDeath(ctx, event)
}

// Snapshot returns a full copy of the replicated state.
func (e *Engine) Snapshot() worldpkg.Snapshot {
	if e == nil {
		return worldpkg.Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot()
}

// DrainPatches removes and returns every pending journal entry.
func (e *Engine) DrainPatches() []journalpkg.Patch {
	if e == nil {
		return nil
	}
	return e.journal.Drain()
}

// RestorePatches prepends patches that could not be delivered so the next
// drain retries them.
func (e *Engine) RestorePatches(patches []journalpkg.Patch) {
	if e == nil {
		return
	}
	e.journal.Restore(patches)
}

// CaptureKeyframe records the current snapshot in the keyframe ring and
// returns its sequence number.
func (e *Engine) CaptureKeyframe() (uint64, error) {
	if e == nil {
		return 0, nil
	}
	e.mu.Lock()
	snapshot := e.world.Snapshot()
	tick := e.tick
	e.mu.Unlock()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}
	return e.journal.RecordKeyframe(tick, e.deps.Clock.Now(), data), nil
}

// KeyframeBySeq returns a recorded keyframe when it is still in the ring.
func (e *Engine) KeyframeBySeq(seq uint64) (journalpkg.Keyframe, bool) {
	if e == nil {
		return journalpkg.Keyframe{}, false
	}
	return e.journal.KeyframeBySeq(seq)
}

// LatestKeyframe returns the most recently recorded keyframe.
func (e *Engine) LatestKeyframe() (journalpkg.Keyframe, bool) {
	if e == nil {
		return journalpkg.Keyframe{}, false
	}
	return e.journal.LatestKeyframe()
}
