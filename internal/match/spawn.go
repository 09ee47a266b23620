package match

import (
	"math/rand"

	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// SpawnPoint is a named candidate location supplied by the level.
type SpawnPoint struct {
	Name     string
	Position worldpkg.Vec2
}

// SpawnRegistry holds the enemy spawn points and player starts for a match.
// Enemy spawns pick uniformly at random; player starts rotate round-robin.
type SpawnRegistry struct {
	enemyPoints  []SpawnPoint
	playerStarts []SpawnPoint
	nextStart    int
	rng          *rand.Rand
}

// NewSpawnRegistry constructs a registry. rng may be nil, in which case the
// global source is used; tests inject a seeded source for determinism.
func NewSpawnRegistry(rng *rand.Rand) *SpawnRegistry {
	return &SpawnRegistry{rng: rng}
}

// RegisterEnemyPoint adds an enemy spawn candidate.
func (r *SpawnRegistry) RegisterEnemyPoint(point SpawnPoint) {
	if r == nil {
		return
	}
	r.enemyPoints = append(r.enemyPoints, point)
}

// RegisterPlayerStart adds a player start candidate.
func (r *SpawnRegistry) RegisterPlayerStart(point SpawnPoint) {
	if r == nil {
		return
	}
	r.playerStarts = append(r.playerStarts, point)
}

// EnemyPointCount reports the number of registered enemy spawn points.
func (r *SpawnRegistry) EnemyPointCount() int {
	if r == nil {
		return 0
	}
	return len(r.enemyPoints)
}

// PickEnemyPoint selects an enemy spawn point uniformly at random.
func (r *SpawnRegistry) PickEnemyPoint() (SpawnPoint, bool) {
	if r == nil || len(r.enemyPoints) == 0 {
		return SpawnPoint{}, false
	}
	idx := 0
	if len(r.enemyPoints) > 1 {
		if r.rng != nil {
			idx = r.rng.Intn(len(r.enemyPoints))
		} else {
			idx = rand.Intn(len(r.enemyPoints))
		}
	}
	return r.enemyPoints[idx], true
}

// NextPlayerStart rotates through the registered player starts.
func (r *SpawnRegistry) NextPlayerStart() (SpawnPoint, bool) {
	if r == nil || len(r.playerStarts) == 0 {
		return SpawnPoint{}, false
	}
	point := r.playerStarts[r.nextStart%len(r.playerStarts)]
	r.nextStart++
	return point, true
}
