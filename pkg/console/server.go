// Package console serves the operator dashboard: REST control of the
// robot's actuators and gestures, plus live websocket streams for the
// camera feed and telemetry-derived state.
package console

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/Adam-Vandervorst/pithon/pkg/actuator"
	"github.com/Adam-Vandervorst/pithon/pkg/gesture"
	"github.com/Adam-Vandervorst/pithon/pkg/hub"
	"github.com/Adam-Vandervorst/pithon/pkg/orientation"
	"github.com/Adam-Vandervorst/pithon/pkg/telemetry"
)

// fpsWindow is how many recent frame arrivals the rate estimate spans.
const fpsWindow = 20

// Server is the operator dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	gestures *gesture.Controller
	registry *actuator.Registry

	// Hubs for websocket broadcast
	videoHub *hub.Hub
	stateHub *hub.Hub

	// Link status callbacks, wired by the daemon once the robot dials in.
	OnShutdown func() error
	LinkAlive  func() bool

	// Stream statistics
	statsMu sync.RWMutex
	frames  uint64
	bytes   uint64
	arrived []time.Time
	report  orientation.Report
}

// NewServer creates the dashboard server. The server doubles as the
// gesture controller's display, so the controller is attached with
// SetController after construction. Call Start to serve.
func NewServer(addr string, registry *actuator.Registry, logger *slog.Logger) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger,
		registry: registry,
		videoHub: hub.New("video", logger),
		stateHub: hub.New("state", logger),
		arrived:  make([]time.Time, 0, fpsWindow),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Pithon Console",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/channels", s.handleChannels)
	api.Post("/channels/:id", s.handleSetChannel)
	api.Post("/gesture/forwards", s.handleForwards)
	api.Post("/gesture/turn", s.handleTurn)
	api.Post("/gesture/safe", s.handleSafe)
	api.Post("/gesture/zero", s.handleZero)
	api.Post("/ramp/:side/:action", s.handleRamp)
	api.Post("/shutdown", s.handleShutdown)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/video", websocket.New(s.handleVideoWS))
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// SetController attaches the gesture controller the REST handlers drive.
// Must be called before Start.
func (s *Server) SetController(g *gesture.Controller) {
	s.gestures = g
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	go s.videoHub.Run()
	go s.stateHub.Run()
	s.logger.Info("console listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync serves in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("console server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishFrame pushes a received camera frame to video subscribers and
// folds it into the stream statistics.
func (s *Server) PublishFrame(f telemetry.Frame) {
	s.statsMu.Lock()
	s.frames = f.Seq
	s.bytes += uint64(len(f.Image))
	s.arrived = append(s.arrived, time.Now())
	if len(s.arrived) > fpsWindow {
		s.arrived = s.arrived[1:]
	}
	s.statsMu.Unlock()

	s.videoHub.BroadcastBinary(f.Image)
}

// PublishOrientation pushes an orientation estimate to state subscribers.
func (s *Server) PublishOrientation(r orientation.Report) {
	s.statsMu.Lock()
	s.report = r
	s.statsMu.Unlock()

	s.broadcastState(stateEvent{Type: "orientation", Orientation: &r})
}

// fps estimates the frame rate over the recent arrival window.
// Callers hold statsMu.
func (s *Server) fps() float64 {
	if len(s.arrived) < 2 {
		return 0
	}
	span := s.arrived[len(s.arrived)-1].Sub(s.arrived[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(s.arrived)-1) / span
}

// stateEvent is one JSON message on the state stream.
type stateEvent struct {
	Type        string              `json:"type"`
	Channel     string              `json:"channel,omitempty"`
	Value       int                 `json:"value"`
	Orientation *orientation.Report `json:"orientation,omitempty"`
}

func (s *Server) broadcastState(ev stateEvent) {
	if err := s.stateHub.BroadcastJSON(ev); err != nil {
		s.logger.Warn("state broadcast failed", "error", err)
	}
}

// ShowChannel mirrors a channel value to state subscribers. Together
// with ShowForwards and ShowTurn this makes the Server the display the
// gesture controller reports to.
func (s *Server) ShowChannel(id string, value int) {
	s.broadcastState(stateEvent{Type: "channel", Channel: id, Value: value})
}

// ShowForwards mirrors the shared forwards indicator.
func (s *Server) ShowForwards(value int) {
	s.broadcastState(stateEvent{Type: "forwards", Value: value})
}

// ShowTurn mirrors the shared turn indicator.
func (s *Server) ShowTurn(value int) {
	s.broadcastState(stateEvent{Type: "turn", Value: value})
}
