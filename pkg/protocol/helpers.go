package protocol

import (
	"encoding/base64"
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewControlMessage creates a control message
func NewControlMessage(action Action) (*Message, error) {
	return NewMessage(TypeControl, ControlData{Action: action})
}

// NewScoreEvent reports the current score
func NewScoreEvent(score int) (*Message, error) {
	return NewMessage(TypeEvent, EventData{Kind: EventScore, Score: &score})
}

// NewSpeedEvent reports the speed multiplier
func NewSpeedEvent(multiplier float64) (*Message, error) {
	return NewMessage(TypeEvent, EventData{Kind: EventSpeed, Multiplier: &multiplier})
}

// NewGameOverEvent reports the final score and the high score after it
func NewGameOverEvent(final, highScore int, newRecord bool) (*Message, error) {
	return NewMessage(TypeEvent, EventData{
		Kind:      EventGameOver,
		Score:     &final,
		HighScore: &highScore,
		NewRecord: newRecord,
	})
}

// NewBallEvent reports a tracked ball position
func NewBallEvent(x, y, confidence float64) (*Message, error) {
	return NewMessage(TypeEvent, EventData{Kind: EventBall, X: &x, Y: &y, Confidence: &confidence})
}

// NewStateEvent reports a game state transition
func NewStateEvent(from, to string) (*Message, error) {
	return NewMessage(TypeEvent, EventData{Kind: EventState, From: from, To: to})
}

// NewErrorMessage creates an error message
func NewErrorMessage(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetControlData extracts a control action from a message
func (m *Message) GetControlData() (*ControlData, error) {
	var data ControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEventData extracts a game event from a message
func (m *Message) GetEventData() (*EventData, error) {
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
