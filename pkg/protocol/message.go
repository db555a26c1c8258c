// Package protocol defines the WebSocket messages the blobot server streams
// to renderers and watchers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → client messages
	TypeState        MessageType = "state"        // Robot pose, one per changed frame
	TypeEvent        MessageType = "event"        // Controller queue/start/finish/reset
	TypeNotification MessageType = "notification" // User-facing info or error
	TypeRun          MessageType = "run"          // Script run status change

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
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// Vec3 is a position in world units. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CommandData is a motion command as shown to clients
type CommandData struct {
	Type  string  `json:"type"`  // "forward", "backward", "turnLeft", "turnRight"
	Value float64 `json:"value"` // units or degrees
}

// StateData contains the robot pose
type StateData struct {
	Position Vec3          `json:"position"`
	Yaw      float64       `json:"yaw"` // radians
	Busy     bool          `json:"busy"`
	Active   *CommandData  `json:"active,omitempty"`
	Queue    []CommandData `json:"queue"`
	Frame    uint64        `json:"frame,omitempty"` // animation frame counter
}

// EventData describes a controller event
type EventData struct {
	Kind    string       `json:"kind"` // "queued", "started", "finished", "reset"
	Command *CommandData `json:"command,omitempty"`
	Queued  int          `json:"queued"`
}

// Notification levels
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notification kinds
const (
	KindParse   = "parse"   // script did not parse
	KindRuntime = "runtime" // script failed while running
	KindRun     = "run"     // run lifecycle
)

// NotificationData is a message for the user, typically a script error
type NotificationData struct {
	Level   string `json:"level"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Run     string `json:"run,omitempty"`    // script run ID
	Line    int    `json:"line,omitempty"`   // 1-based source line
	Column  int    `json:"column,omitempty"` // 1-based source column
}

// RunData is a script run status snapshot
type RunData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Steps  int    `json:"steps"`
	Error  string `json:"error,omitempty"`
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
