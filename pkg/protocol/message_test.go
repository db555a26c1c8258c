package protocol

import (
	"encoding/json"
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
			name:    "state message",
			msgType: TypeState,
			data:    StateData{Position: Vec3{Y: 0.5}, Busy: true},
		},
		{
			name:    "event message",
			msgType: TypeEvent,
			data:    EventData{Kind: "started", Command: &CommandData{Type: "forward", Value: 1}},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeState,
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

func TestStateMessage(t *testing.T) {
	msg, err := NewStateMessage(StateData{
		Position: Vec3{X: 1, Y: 0.5, Z: 2},
		Yaw:      1.5,
		Busy:     true,
		Active:   &CommandData{Type: "turnLeft", Value: 90},
		Frame:    42,
	})
	if err != nil {
		t.Fatalf("NewStateMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeState {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeState)
	}

	state, err := parsed.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData() error = %v", err)
	}
	if state.Position != (Vec3{X: 1, Y: 0.5, Z: 2}) {
		t.Errorf("Position = %+v", state.Position)
	}
	if state.Active == nil || state.Active.Type != "turnLeft" || state.Active.Value != 90 {
		t.Errorf("Active = %+v", state.Active)
	}
	if state.Queue == nil || len(state.Queue) != 0 {
		t.Errorf("Queue = %v, want empty list", state.Queue)
	}
	if state.Frame != 42 {
		t.Errorf("Frame = %d, want 42", state.Frame)
	}
}

func TestStateMessageEmptyQueueIsList(t *testing.T) {
	msg, _ := NewStateMessage(StateData{})
	var raw map[string]interface{}
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["queue"].([]interface{}); !ok {
		t.Errorf("queue = %#v, want []", raw["queue"])
	}
	if _, ok := raw["active"]; ok {
		t.Error("active should be omitted when idle")
	}
}

func TestEventMessage(t *testing.T) {
	msg, err := NewEventMessage("queued", &CommandData{Type: "turnRight", Value: 45}, 3)
	if err != nil {
		t.Fatalf("NewEventMessage() error = %v", err)
	}
	ev, err := msg.GetEventData()
	if err != nil {
		t.Fatalf("GetEventData() error = %v", err)
	}
	if ev.Kind != "queued" || ev.Queued != 3 {
		t.Errorf("event = %+v", ev)
	}
	if ev.Command == nil || ev.Command.Type != "turnRight" {
		t.Errorf("Command = %+v", ev.Command)
	}
}

func TestNotificationMessage(t *testing.T) {
	msg, err := NewNotificationMessage(NotificationData{
		Level:   LevelError,
		Kind:    KindParse,
		Message: "unexpected token",
		Line:    3,
		Column:  7,
	})
	if err != nil {
		t.Fatalf("NewNotificationMessage() error = %v", err)
	}
	if msg.Type != TypeNotification {
		t.Errorf("Type = %v, want %v", msg.Type, TypeNotification)
	}
	n, err := msg.GetNotificationData()
	if err != nil {
		t.Fatalf("GetNotificationData() error = %v", err)
	}
	if n.Level != LevelError || n.Line != 3 || n.Column != 7 {
		t.Errorf("notification = %+v", n)
	}

	// Level defaults to info
	msg, _ = NewNotificationMessage(NotificationData{Message: "hello"})
	n, _ = msg.GetNotificationData()
	if n.Level != LevelInfo {
		t.Errorf("Level = %q, want %q", n.Level, LevelInfo)
	}

	msg, _ = NewErrorMessage(KindRuntime, "boom")
	n, _ = msg.GetNotificationData()
	if n.Level != LevelError || n.Kind != KindRuntime || n.Message != "boom" {
		t.Errorf("error notification = %+v", n)
	}
}

func TestRunMessage(t *testing.T) {
	msg, err := NewRunMessage(RunData{ID: "abc", Status: "FAILED", Steps: 4, Error: "1:1: boom"})
	if err != nil {
		t.Fatalf("NewRunMessage() error = %v", err)
	}
	run, err := msg.GetRunData()
	if err != nil {
		t.Fatalf("GetRunData() error = %v", err)
	}
	if run.ID != "abc" || run.Status != "FAILED" || run.Steps != 4 {
		t.Errorf("run = %+v", run)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123", time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}

	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	// Create pong response
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

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	// Verify JSON structure matches expected format
	msg, _ := NewEventMessage("reset", nil, 0)

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "event" {
		t.Errorf("type = %v, want event", parsed["type"])
	}

	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	if _, ok := parsed["data"]; !ok {
		t.Error("data field should be present")
	}
}

func BenchmarkNewStateMessage(b *testing.B) {
	state := StateData{Position: Vec3{X: 1, Y: 0.5, Z: 2}, Busy: true}
	for i := 0; i < b.N; i++ {
		NewStateMessage(state)
	}
}
