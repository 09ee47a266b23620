package sim

import "time"

// CommandType enumerates the intents the engine accepts through its queue.
type CommandType string

const (
	CommandFire     CommandType = "Fire"
	CommandScoreAdd CommandType = "ScoreAdd"
)

// Origin records which side of the authority boundary issued a command.
type Origin string

const (
	OriginClient Origin = "client"
	OriginServer Origin = "server"
)

// FireCommand carries the aim direction for a weapon discharge.
type FireCommand struct {
	DirX float64 `json:"dirX"`
	DirY float64 `json:"dirY"`
}

// MaxScoreDelta bounds a single score increment. The range holds on the
// server-internal path too, not just for client-facing validation.
const MaxScoreDelta = 1000

// ScoreAddCommand carries a score increment request.
type ScoreAddCommand struct {
	Delta float64 `json:"delta"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64           `json:"originTick"`
	ActorID    string           `json:"actorId"`
	Type       CommandType      `json:"type"`
	Origin     Origin           `json:"origin"`
	IssuedAt   time.Time        `json:"issuedAt"`
	Fire       *FireCommand     `json:"fire,omitempty"`
	Score      *ScoreAddCommand `json:"score,omitempty"`
}
