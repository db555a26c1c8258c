// Package web serves the blobot HTTP API, the state and event websockets,
// and the browser renderer.
package web

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/command"
	"github.com/teslashibe/go-blobot/pkg/hub"
	"github.com/teslashibe/go-blobot/pkg/protocol"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
)

const shutdownTimeout = 5 * time.Second

// Robot is the controller surface the server drives.
type Robot interface {
	Submit(cmd command.Command) (queued bool, err error)
	Reset()
	Snapshot() (robot.State, []command.Command)
	Config() robot.Config
}

// Scripts starts and tracks script runs.
type Scripts interface {
	Start(src string) (runner.Run, error)
	Get(id string) (runner.Run, error)
	List() []runner.Run
	Cancel(id string) (runner.Run, error)
}

// Server is the blobot web server
type Server struct {
	cfg     Config
	app     *fiber.App
	robot   Robot
	scripts Scripts

	// Hubs for websocket broadcast
	stateHub *hub.Hub
	eventHub *hub.Hub

	// Last published state, to skip frames where nothing moved
	mu        sync.Mutex
	last      protocol.StateData
	published bool
	states    atomic.Uint64
}

// NewServer creates the server and registers its routes. Hubs are not
// started; run them with Hubs.
func NewServer(cfg Config, r Robot, scripts Scripts) *Server {
	s := &Server{
		cfg:      cfg,
		robot:    r,
		scripts:  scripts,
		stateHub: hub.New("state"),
		eventHub: hub.New("events"),
	}
	s.stateHub.OnConnect(s.welcomeState)

	app := fiber.New(fiber.Config{
		AppName:               "blobot",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	// API routes
	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/config", s.handleConfig)
	api.Get("/stats", s.handleStats)
	api.Post("/robot/reset", s.handleReset)
	api.Post("/robot/:action", s.handleMove)
	api.Get("/scripts/default", s.handleDefaultScript)
	api.Get("/scripts", s.handleListScripts)
	api.Post("/scripts", s.handleStartScript)
	api.Get("/scripts/:id", s.handleGetScript)
	api.Delete("/scripts/:id", s.handleCancelScript)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.serveHub(s.stateHub)))
	app.Get("/ws/events", websocket.New(s.serveHub(s.eventHub)))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hubs returns the websocket hubs. Each must be Run for its stream to flow.
func (s *Server) Hubs() []*hub.Hub {
	return []*hub.Hub{s.stateHub, s.eventHub}
}

// Run listens on the configured port until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info("web server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("web server shutting down")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		client := hub.NewClient(h, c)
		if client == nil {
			return
		}
		client.Run()
	}
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
