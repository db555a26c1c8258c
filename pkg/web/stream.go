package web

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/command"
	"github.com/teslashibe/go-blobot/pkg/protocol"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
)

// PublishState broadcasts the current pose on /ws/state unless it is
// unchanged since the last call. Wire it to the render loop's frames.
func (s *Server) PublishState(frame uint64) {
	state := s.snapshot()

	s.mu.Lock()
	if s.published && sameState(s.last, state) {
		s.mu.Unlock()
		return
	}
	s.last = state
	s.published = true
	s.mu.Unlock()

	state.Frame = frame
	msg, err := protocol.NewStateMessage(state)
	if err != nil {
		log.Error("encode state", "error", err)
		return
	}
	s.states.Add(1)
	s.stateHub.Publish(msg)
}

// StatesPublished returns how many state frames have been broadcast.
func (s *Server) StatesPublished() uint64 {
	return s.states.Load()
}

// HandleEvent forwards a controller event to /ws/events.
func (s *Server) HandleEvent(ev robot.Event) {
	var cmd *protocol.CommandData
	if ev.Command != nil {
		c := commandData(*ev.Command)
		cmd = &c
	}
	msg, err := protocol.NewEventMessage(string(ev.Kind), cmd, ev.State.Queued)
	if err != nil {
		log.Error("encode event", "error", err)
		return
	}
	s.eventHub.Publish(msg)
}

// NotifyRun forwards run status changes to /ws/events. A failed run also
// produces an error notification pointing at the failing statement.
func (s *Server) NotifyRun(run runner.Run) {
	msg, err := protocol.NewRunMessage(protocol.RunData{
		ID:     run.ID,
		Status: string(run.Status),
		Steps:  run.Steps,
		Error:  run.Error,
	})
	if err != nil {
		log.Error("encode run", "error", err)
		return
	}
	s.eventHub.Publish(msg)

	if run.Status == runner.StatusFailed {
		s.notify(protocol.NotificationData{
			Level:   protocol.LevelError,
			Kind:    protocol.KindRuntime,
			Message: run.Error,
			Run:     run.ID,
			Line:    run.Line,
			Column:  run.Column,
		})
	}
}

func (s *Server) notify(n protocol.NotificationData) {
	msg, err := protocol.NewNotificationMessage(n)
	if err != nil {
		log.Error("encode notification", "error", err)
		return
	}
	s.eventHub.Publish(msg)
}

func (s *Server) welcomeState() []byte {
	msg, err := protocol.NewStateMessage(s.snapshot())
	if err != nil {
		return nil
	}
	data, err := msg.Bytes()
	if err != nil {
		return nil
	}
	return data
}

func (s *Server) snapshot() protocol.StateData {
	st, pending := s.robot.Snapshot()

	state := protocol.StateData{
		Position: vec(st.Position),
		Yaw:      finite(st.Yaw),
		Busy:     st.Busy,
		Queue:    make([]protocol.CommandData, 0, len(pending)),
	}
	if st.Active != nil {
		a := commandData(*st.Active)
		state.Active = &a
	}
	for _, cmd := range pending {
		state.Queue = append(state.Queue, commandData(cmd))
	}
	return state
}

func sameState(a, b protocol.StateData) bool {
	if a.Position != b.Position || a.Yaw != b.Yaw || a.Busy != b.Busy {
		return false
	}
	if (a.Active == nil) != (b.Active == nil) {
		return false
	}
	if a.Active != nil && *a.Active != *b.Active {
		return false
	}
	if len(a.Queue) != len(b.Queue) {
		return false
	}
	for i := range a.Queue {
		if a.Queue[i] != b.Queue[i] {
			return false
		}
	}
	return true
}

func commandData(cmd command.Command) protocol.CommandData {
	return protocol.CommandData{Type: string(cmd.Kind), Value: finite(cmd.Value)}
}

func vec(v r3.Vector) protocol.Vec3 {
	return protocol.Vec3{X: finite(v.X), Y: finite(v.Y), Z: finite(v.Z)}
}

// finite clamps values JSON cannot encode. Infinities saturate and NaN
// becomes 0.
func finite(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
