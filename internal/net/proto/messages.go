package proto

import (
	"encoding/json"
	"fmt"

	journalpkg "github.com/Yewatermelon/FPSGame/internal/journal"
	"github.com/Yewatermelon/FPSGame/internal/sim"
	worldpkg "github.com/Yewatermelon/FPSGame/internal/world"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeFire        = "fire"
	TypeScoreAdd    = "scoreAdd"
	TypeHeartbeat   = "heartbeat"
	TypeKeyframeReq = "keyframeRequest"
)

// Server message type identifiers.
const (
	TypeState         = "state"
	TypeKeyframe      = "keyframe"
	TypeKeyframeNack  = "keyframeNack"
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"
)

// Score delta bounds enforced before the authority check. A delta outside
// (0, MaxScoreDelta] is malformed regardless of who sent it.
const MaxScoreDelta = sim.MaxScoreDelta

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver         int     `json:"ver,omitempty"`
	Type        string  `json:"type"`
	DirX        float64 `json:"dirX"`
	DirY        float64 `json:"dirY"`
	Delta       float64 `json:"delta"`
	SentAt      int64   `json:"sentAt"`
	KeyframeSeq *uint64 `json:"keyframeSeq,omitempty"`
	CommandSeq  *uint64 `json:"seq,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured
// message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand converts a client message into a simulation command. Origin
// metadata is populated by the intake layer when the command is accepted.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeFire:
		return sim.Command{
			Type:   sim.CommandFire,
			Origin: sim.OriginClient,
			Fire: &sim.FireCommand{
				DirX: msg.DirX,
				DirY: msg.DirY,
			},
		}, true
	case TypeScoreAdd:
		return sim.Command{
			Type:   sim.CommandScoreAdd,
			Origin: sim.OriginClient,
			Score: &sim.ScoreAddCommand{
				Delta: msg.Delta,
			},
		}, true
	default:
		return sim.Command{}, false
	}
}

// ValidScoreDelta reports whether a score increment is inside the accepted
// range.
func ValidScoreDelta(delta float64) bool {
	return delta > 0 && delta <= MaxScoreDelta
}

// StateMessage carries one tick's drained patches to every subscriber.
// Patches are per-field diffs; a receiver must tolerate seeing related
// fields arrive in different envelopes.
type StateMessage struct {
	Ver         int                `json:"ver"`
	Type        string             `json:"type"`
	Tick        uint64             `json:"t"`
	Patches     []journalpkg.Patch `json:"patches"`
	KeyframeSeq uint64             `json:"keyframeSeq,omitempty"`
	ServerTime  int64              `json:"serverTime"`
}

// EncodeStateMessage renders a per-tick state payload.
func EncodeStateMessage(msg StateMessage) ([]byte, error) {
	msg.Ver = Version
	if msg.Type == "" {
		msg.Type = TypeState
	}
	return json.Marshal(msg)
}

// KeyframeMessage carries a full snapshot for late or resyncing subscribers.
type KeyframeMessage struct {
	Ver      int             `json:"ver"`
	Type     string          `json:"type"`
	Sequence uint64          `json:"sequence"`
	Tick     uint64          `json:"t"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// EncodeKeyframeMessage renders a keyframe payload.
func EncodeKeyframeMessage(msg KeyframeMessage) ([]byte, error) {
	msg.Ver = Version
	if msg.Type == "" {
		msg.Type = TypeKeyframe
	}
	return json.Marshal(msg)
}

// KeyframeNack tells a client the requested keyframe left the retention
// window.
type KeyframeNack struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Sequence uint64 `json:"sequence"`
	Reason   string `json:"reason"`
}

// EncodeKeyframeNack renders a keyframe nack payload.
func EncodeKeyframeNack(msg KeyframeNack) ([]byte, error) {
	msg.Ver = Version
	if msg.Type == "" {
		msg.Type = TypeKeyframeNack
	}
	return json.Marshal(msg)
}

// JoinResponse is the HTTP join payload: the assigned player id plus a full
// snapshot to seed the client replica.
type JoinResponse struct {
	Ver      int               `json:"ver"`
	ID       string            `json:"id"`
	MatchID  string            `json:"matchId"`
	Snapshot worldpkg.Snapshot `json:"snapshot"`
}

// EncodeJoinResponse renders a join response payload.
func EncodeJoinResponse(msg JoinResponse) ([]byte, error) {
	msg.Ver = Version
	return json.Marshal(msg)
}

// CommandAck acknowledges a processed command sequence.
type CommandAck struct {
	Seq  uint64
	Tick uint64
}

// EncodeCommandAck renders a command acknowledgement response.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
		Tick uint64 `json:"tick,omitempty"`
	}{
		Ver:  Version,
		Type: TypeCommandAck,
		Seq:  msg.Seq,
		Tick: msg.Tick,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the client that a command was refused.
type CommandReject struct {
	Seq    uint64
	Reason string
	Retry  bool
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
	}{
		Ver:    Version,
		Type:   TypeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
		Retry:  msg.Retry,
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       TypeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}
