package protocol

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "frame message",
			msgType: TypeFrame,
			data:    FrameData{Width: 640, Height: 480, Format: "jpeg"},
			wantErr: false,
		},
		{
			name:    "control message",
			msgType: TypeControl,
			data:    ControlData{Action: ActionStart},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeEvent,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MessageType
		wantErr bool
	}{
		{"control", `{"type":"control","data":{"action":"pause"}}`, TypeControl, false},
		{"ping without data", `{"type":"ping"}`, TypePing, false},
		{"missing type", `{"data":{}}`, "", true},
		{"not json", `frame`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && msg.Type != tt.want {
				t.Errorf("Type = %v, want %v", msg.Type, tt.want)
			}
		})
	}
}

func TestFrameMessage(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10} // Fake JPEG header

	msg, err := NewFrameMessage(640, 480, jpegData, 7)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeFrame {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeFrame)
	}

	frameData, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if frameData.Format != "jpeg" {
		t.Errorf("Format = %v, want jpeg", frameData.Format)
	}
	if frameData.FrameID != 7 {
		t.Errorf("FrameID = %v, want 7", frameData.FrameID)
	}

	decoded, err := frameData.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData() error = %v", err)
	}
	if string(decoded) != string(jpegData) {
		t.Errorf("Decoded = %v, want %v", decoded, jpegData)
	}
}

func TestFrameData_BadBase64(t *testing.T) {
	f := FrameData{Format: "jpeg", Data: "not base64!"}
	if _, err := f.DecodeFrameData(); err == nil {
		t.Error("expected error for invalid base64")
	}

	ok := FrameData{Data: base64.StdEncoding.EncodeToString([]byte{1, 2})}
	if _, err := ok.DecodeFrameData(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAction_Valid(t *testing.T) {
	for _, a := range Actions {
		if !a.Valid() {
			t.Errorf("expected %q to be valid", a)
		}
	}
	if Action("jump").Valid() {
		t.Error("expected unknown action to be invalid")
	}
}

func TestControlMessage(t *testing.T) {
	msg, err := NewControlMessage(ActionToggle)
	if err != nil {
		t.Fatalf("NewControlMessage() error = %v", err)
	}

	ctrl, err := msg.GetControlData()
	if err != nil {
		t.Fatalf("GetControlData() error = %v", err)
	}
	if ctrl.Action != ActionToggle {
		t.Errorf("Action = %v, want %v", ctrl.Action, ActionToggle)
	}
}

func TestEventMessages(t *testing.T) {
	t.Run("score", func(t *testing.T) {
		msg, _ := NewScoreEvent(0)
		ev, err := msg.GetEventData()
		if err != nil {
			t.Fatal(err)
		}
		if ev.Kind != EventScore || ev.Score == nil || *ev.Score != 0 {
			t.Errorf("expected score 0 event, got %+v", ev)
		}
	})

	t.Run("speed", func(t *testing.T) {
		msg, _ := NewSpeedEvent(1.5)
		ev, _ := msg.GetEventData()
		if ev.Kind != EventSpeed || ev.Multiplier == nil || *ev.Multiplier != 1.5 {
			t.Errorf("expected speed 1.5 event, got %+v", ev)
		}
	})

	t.Run("gameover", func(t *testing.T) {
		msg, _ := NewGameOverEvent(12, 30, false)
		ev, _ := msg.GetEventData()
		if ev.Kind != EventGameOver || *ev.Score != 12 || *ev.HighScore != 30 || ev.NewRecord {
			t.Errorf("unexpected gameover event %+v", ev)
		}
	})

	t.Run("ball", func(t *testing.T) {
		msg, _ := NewBallEvent(0.25, 0.5, 0.9)
		ev, _ := msg.GetEventData()
		if ev.Kind != EventBall || *ev.X != 0.25 || *ev.Y != 0.5 || *ev.Confidence != 0.9 {
			t.Errorf("unexpected ball event %+v", ev)
		}
		if ev.Score != nil {
			t.Error("expected score omitted from ball event")
		}
	})

	t.Run("state", func(t *testing.T) {
		msg, _ := NewStateEvent("idle", "running")
		ev, _ := msg.GetEventData()
		if ev.Kind != EventState || ev.From != "idle" || ev.To != "running" {
			t.Errorf("unexpected state event %+v", ev)
		}
	})
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}
	if pingData.Timestamp == 0 {
		t.Error("ping timestamp should be set")
	}

	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingData.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}
