package web

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/command"
	"github.com/teslashibe/go-blobot/pkg/hub"
	"github.com/teslashibe/go-blobot/pkg/protocol"
	"github.com/teslashibe/go-blobot/pkg/runner"
	"github.com/teslashibe/go-blobot/pkg/script"
)

// handleState returns the robot pose and pending queue
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

// ConfigResponse tells the renderer how to animate.
type ConfigResponse struct {
	DurationMS      int64              `json:"duration_ms"`
	FrameRate       float64            `json:"frame_rate"`
	InitialPosition protocol.Vec3      `json:"initial_position"`
	InitialYaw      float64            `json:"initial_yaw"`
	Defaults        map[string]float64 `json:"defaults"`
}

// handleConfig returns animation settings and manual trigger defaults
func (s *Server) handleConfig(c *fiber.Ctx) error {
	rc := s.robot.Config()
	defaults := make(map[string]float64)
	for _, k := range command.Kinds() {
		defaults[string(k)] = k.DefaultValue()
	}
	return c.JSON(ConfigResponse{
		DurationMS:      rc.Duration.Milliseconds(),
		FrameRate:       s.cfg.FrameRate,
		InitialPosition: vec(rc.InitialPosition),
		InitialYaw:      rc.InitialYaw,
		Defaults:        defaults,
	})
}

// handleStats returns websocket hub counters
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats := make([]hub.Stats, 0, 2)
	for _, h := range s.Hubs() {
		stats = append(stats, h.Stats())
	}
	return c.JSON(fiber.Map{"hubs": stats, "states_published": s.StatesPublished()})
}

// handleReset snaps the robot back to its initial pose
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.robot.Reset()
	return c.JSON(s.snapshot())
}

// MoveRequest is the optional body of a manual trigger.
type MoveRequest struct {
	Value *float64 `json:"value"`
}

// MoveResponse reports whether the command started or was queued.
type MoveResponse struct {
	Command command.Command `json:"command"`
	Queued  bool            `json:"queued"`
}

// handleMove issues one motion, as the manual control buttons do
func (s *Server) handleMove(c *fiber.Ctx) error {
	kind, err := command.ParseKind(c.Params("action"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	var req MoveRequest
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
	}
	value := kind.DefaultValue()
	if req.Value != nil {
		value = *req.Value
	}

	cmd := command.Command{Kind: kind, Value: value}
	queued, err := s.robot.Submit(cmd)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(MoveResponse{Command: cmd, Queued: queued})
}

// handleDefaultScript returns the example program the editor starts with
func (s *Server) handleDefaultScript(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"source": script.DefaultProgram})
}

// ScriptRequest is the body of POST /api/scripts.
type ScriptRequest struct {
	Source string `json:"source"`
}

// handleStartScript parses and starts a script run
func (s *Server) handleStartScript(c *fiber.Ctx) error {
	var req ScriptRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
	}

	run, err := s.scripts.Start(req.Source)
	var pe *script.ParseError
	switch {
	case errors.As(err, &pe):
		n := protocol.NotificationData{
			Level:   protocol.LevelError,
			Kind:    protocol.KindParse,
			Message: pe.Error(),
			Line:    pe.Pos.Line,
			Column:  pe.Pos.Column,
		}
		s.notify(n)
		log.Info("script rejected", "error", pe.Error())
		return c.Status(fiber.StatusBadRequest).JSON(n)
	case errors.Is(err, runner.ErrTooManyRuns):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case err != nil:
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(run)
}

// handleListScripts returns known runs, oldest first
func (s *Server) handleListScripts(c *fiber.Ctx) error {
	return c.JSON(s.scripts.List())
}

// handleGetScript returns one run
func (s *Server) handleGetScript(c *fiber.Ctx) error {
	run, err := s.scripts.Get(c.Params("id"))
	if err != nil {
		return runError(err)
	}
	return c.JSON(run)
}

// handleCancelScript stops a run. Motions already issued keep playing.
func (s *Server) handleCancelScript(c *fiber.Ctx) error {
	run, err := s.scripts.Cancel(c.Params("id"))
	if err != nil {
		return runError(err)
	}
	return c.JSON(run)
}

func runError(err error) error {
	if errors.Is(err, runner.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
