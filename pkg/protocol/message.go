// Package protocol defines the WebSocket message types exchanged with player
// clients. A player streams camera frames and control actions in, and
// receives game events back.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Player → Server messages
	TypeFrame   MessageType = "frame"   // Camera frame
	TypeControl MessageType = "control" // Game control action

	// Server → Player messages
	TypeEvent MessageType = "event" // Game event
	TypeError MessageType = "error" // Rejected message

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Player → Server Message Types
// =============================================================================

// FrameData contains a camera frame
type FrameData struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// Action is a game control action
type Action string

const (
	ActionStart  Action = "start" // also restarts after game over
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionStop   Action = "stop" // back to the menu
	ActionToggle Action = "toggle"
)

// Actions lists every accepted control action
var Actions = []Action{ActionStart, ActionPause, ActionResume, ActionStop, ActionToggle}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ControlData carries a control action
type ControlData struct {
	Action Action `json:"action"`
}

// =============================================================================
// Server → Player Message Types
// =============================================================================

// EventKind identifies a game event
type EventKind string

const (
	EventScore    EventKind = "score"
	EventSpeed    EventKind = "speed"
	EventGameOver EventKind = "gameover"
	EventBall     EventKind = "ball"
	EventState    EventKind = "state"
)

// EventData is a game event. Only the fields of the given kind are set.
type EventData struct {
	Kind EventKind `json:"kind"`

	Score      *int     `json:"score,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
	HighScore  *int     `json:"high_score,omitempty"`
	NewRecord  bool     `json:"new_record,omitempty"`

	// Ball position, normalized
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`

	// State transition
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// ErrorData explains a rejected message
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
