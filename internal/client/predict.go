package client

import (
	"math"
	"sync"

	"github.com/google/uuid"
)

// DefaultPredictedLifetime is how long, in seconds, a locally predicted
// projectile lives before it is discarded.
const DefaultPredictedLifetime = 0.75

// PredictedProjectile is a purely cosmetic local projectile spawned the
// moment the player fires, before the server confirms anything. It carries
// no damage and is never matched against a server projectile instance: the
// authoritative one replicates independently and this one simply times out.
type PredictedProjectile struct {
	ID        string
	X         float64
	Y         float64
	VelX      float64
	VelY      float64
	remaining float64
}

// PredictorConfig tunes local projectile prediction.
type PredictorConfig struct {
	Speed    float64
	Lifetime float64
}

// Predictor owns the set of locally predicted projectiles.
type Predictor struct {
	mu        sync.Mutex
	cfg       PredictorConfig
	predicted []*PredictedProjectile
}

// NewPredictor constructs a predictor. Lifetime defaults to
// DefaultPredictedLifetime.
func NewPredictor(cfg PredictorConfig) *Predictor {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultPredictedLifetime
	}
	return &Predictor{cfg: cfg}
}

// Spawn creates a predicted projectile at the given origin travelling along
// dir. A zero direction is rejected.
func (p *Predictor) Spawn(x, y, dirX, dirY float64) (*PredictedProjectile, bool) {
	if p == nil {
		return nil, false
	}
	length := math.Hypot(dirX, dirY)
	if length == 0 {
		return nil, false
	}
	proj := &PredictedProjectile{
		ID:        "predicted-" + uuid.NewString(),
		X:         x,
		Y:         y,
		VelX:      dirX / length * p.cfg.Speed,
		VelY:      dirY / length * p.cfg.Speed,
		remaining: p.cfg.Lifetime,
	}
	p.mu.Lock()
	p.predicted = append(p.predicted, proj)
	p.mu.Unlock()
	return proj, true
}

// Step advances every predicted projectile and drops the ones whose
// lifetime expired. Expiry is independent of anything the server does.
func (p *Predictor) Step(delta float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.predicted[:0]
	for _, proj := range p.predicted {
		proj.remaining -= delta
		if proj.remaining <= 0 {
			continue
		}
		proj.X += proj.VelX * delta
		proj.Y += proj.VelY * delta
		kept = append(kept, proj)
	}
	p.predicted = kept
}

// Live returns copies of the current predicted projectiles.
func (p *Predictor) Live() []PredictedProjectile {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PredictedProjectile, 0, len(p.predicted))
	for _, proj := range p.predicted {
		out = append(out, *proj)
	}
	return out
}
