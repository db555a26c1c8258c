package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStateMessage creates a state message
func NewStateMessage(state StateData) (*Message, error) {
	if state.Queue == nil {
		state.Queue = []CommandData{}
	}
	return NewMessage(TypeState, state)
}

// NewEventMessage creates a controller event message
func NewEventMessage(kind string, cmd *CommandData, queued int) (*Message, error) {
	return NewMessage(TypeEvent, EventData{
		Kind:    kind,
		Command: cmd,
		Queued:  queued,
	})
}

// NewNotificationMessage creates a notification message
func NewNotificationMessage(n NotificationData) (*Message, error) {
	if n.Level == "" {
		n.Level = LevelInfo
	}
	return NewMessage(TypeNotification, n)
}

// NewErrorMessage creates an error notification
func NewErrorMessage(kind, message string) (*Message, error) {
	return NewNotificationMessage(NotificationData{
		Level:   LevelError,
		Kind:    kind,
		Message: message,
	})
}

// NewRunMessage creates a run status message
func NewRunMessage(run RunData) (*Message, error) {
	return NewMessage(TypeRun, run)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string, ts int64) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: ts,
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

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEventData extracts event data from a message
func (m *Message) GetEventData() (*EventData, error) {
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetNotificationData extracts a notification from a message
func (m *Message) GetNotificationData() (*NotificationData, error) {
	var data NotificationData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRunData extracts run status from a message
func (m *Message) GetRunData() (*RunData, error) {
	var data RunData
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
