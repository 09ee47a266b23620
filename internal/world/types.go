package world

// ActorID identifies a controller: a player session or an AI controller.
type ActorID string

// EntityID identifies a combatant or projectile instance in the world.
type EntityID string

// ControllerKind is the closed set of controller classifications.
type ControllerKind int

const (
	ControllerNone ControllerKind = iota
	ControllerPlayer
	ControllerAI
)

// Controller tags a combatant with the identity steering it.
type Controller struct {
	Kind ControllerKind
	ID   ActorID
}

// PlayerID resolves the controller to a player identity when it is
// player-controlled.
func (c Controller) PlayerID() (string, bool) {
	if c.Kind != ControllerPlayer || c.ID == "" {
		return "", false
	}
	return string(c.ID), true
}

func (c Controller) String() string {
	switch c.Kind {
	case ControllerPlayer:
		return "player:" + string(c.ID)
	case ControllerAI:
		return "ai:" + string(c.ID)
	default:
		return "none"
	}
}

// Vec2 is a world-space position.
type Vec2 struct {
	X float64
	Y float64
}

// Combatant is the canonical per-entity combat state. Once Dead is set the
// health pool and the flag never change again for the entity's lifetime.
type Combatant struct {
	ID         EntityID
	Controller Controller
	Position   Vec2
	Health     float64
	MaxHealth  float64
	Dead       bool

	lastDamager Controller
}

// LastDamager reports the most recent damaging controller, used as the
// attribution fallback when a lethal hit carries no instigator.
func (c *Combatant) LastDamager() (Controller, bool) {
	if c == nil || c.lastDamager.Kind == ControllerNone {
		return Controller{}, false
	}
	return c.lastDamager, true
}

// IsPlayer reports whether the combatant is player-controlled.
func (c *Combatant) IsPlayer() bool {
	if c == nil {
		return false
	}
	return c.Controller.Kind == ControllerPlayer
}

// ScoreRecord is the canonical per-player score state.
type ScoreRecord struct {
	PlayerID string
	Score    float64
	Winner   bool
}

// MatchState is the singleton per-match session state. Ended is monotonic.
type MatchState struct {
	RemainingTime float64
	EnemyCount    int
	MaxEnemies    int
	Ended         bool
	EndReason     string
}

// Snapshot is a full copy of the canonical state, used for keyframes.
type Snapshot struct {
	Combatants []CombatantSnapshot `json:"combatants"`
	Scores     []ScoreSnapshot     `json:"scores"`
	Match      MatchSnapshot       `json:"match"`
}

type CombatantSnapshot struct {
	ID         string  `json:"id"`
	Controller string  `json:"controller"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Health     float64 `json:"health"`
	MaxHealth  float64 `json:"maxHealth"`
	Dead       bool    `json:"dead"`
}

type ScoreSnapshot struct {
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
	Winner   bool    `json:"winner"`
}

type MatchSnapshot struct {
	RemainingTime float64 `json:"remainingTime"`
	EnemyCount    int     `json:"enemyCount"`
	MaxEnemies    int     `json:"maxEnemies"`
	Ended         bool    `json:"ended"`
	EndReason     string  `json:"endReason,omitempty"`
}
