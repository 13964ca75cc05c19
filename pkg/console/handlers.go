package console

import (
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Adam-Vandervorst/pithon/pkg/hub"
	"github.com/Adam-Vandervorst/pithon/pkg/orientation"
)

// Status is the dashboard's health snapshot.
type Status struct {
	LinkAlive   bool               `json:"link_alive"`
	Frames      uint64             `json:"frames"`
	Bytes       uint64             `json:"bytes"`
	BytesHuman  string             `json:"bytes_human"`
	FPS         float64            `json:"fps"`
	Subscribers int                `json:"subscribers"`
	Orientation orientation.Report `json:"orientation"`
}

// valueRequest is the body of every value-carrying control route.
type valueRequest struct {
	Value int `json:"value"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statsMu.RLock()
	st := Status{
		Frames:      s.frames,
		Bytes:       s.bytes,
		BytesHuman:  humanize.Bytes(s.bytes),
		FPS:         s.fps(),
		Orientation: s.report,
	}
	s.statsMu.RUnlock()

	st.Subscribers = s.videoHub.ClientCount() + s.stateHub.ClientCount()
	if s.LinkAlive != nil {
		st.LinkAlive = s.LinkAlive()
	}
	return c.JSON(st)
}

func (s *Server) handleChannels(c *fiber.Ctx) error {
	return c.JSON(s.registry.Snapshot())
}

// handleSetChannel drives a single channel through the validated path:
// the value is clipped to the channel's bounds and an opposed channel
// is cleared first.
func (s *Server) handleSetChannel(c *fiber.Ctx) error {
	var req valueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	id := c.Params("id")
	if err := s.gestures.SetSingle(id, req.Value); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	ch, _ := s.registry.Get(id)
	return c.JSON(ch)
}

func (s *Server) handleForwards(c *fiber.Ctx) error {
	var req valueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.gestures.SetForwardsAll(req.Value)
	return c.JSON(fiber.Map{"value": req.Value})
}

func (s *Server) handleTurn(c *fiber.Ctx) error {
	var req valueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.gestures.SetTurn(req.Value)
	return c.JSON(fiber.Map{"value": req.Value})
}

func (s *Server) handleSafe(c *fiber.Ctx) error {
	s.gestures.SafeValue()
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleZero(c *fiber.Ctx) error {
	s.gestures.ResetToZero()
	return c.JSON(fiber.Map{"momentum": s.gestures.Momentum()})
}

// handleRamp maps held strafe controls onto the REST surface: press
// starts the auto-repeating ramp, release stops it and resets.
func (s *Server) handleRamp(c *fiber.Ctx) error {
	side := c.Params("side")
	action := c.Params("action")

	switch {
	case side == "left" && action == "press":
		s.gestures.PressLeft()
	case side == "left" && action == "release":
		s.gestures.ReleaseLeft()
	case side == "right" && action == "press":
		s.gestures.PressRight()
	case side == "right" && action == "release":
		s.gestures.ReleaseRight()
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown ramp control " + side + "/" + action,
		})
	}
	return c.JSON(fiber.Map{"momentum": s.gestures.Momentum()})
}

// handleShutdown tells the robot to power down and acknowledges.
func (s *Server) handleShutdown(c *fiber.Ctx) error {
	if s.OnShutdown == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no robot link",
		})
	}
	if err := s.OnShutdown(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleVideoWS(c *websocket.Conn) {
	hub.NewClient(s.videoHub, c).Run()
}

func (s *Server) handleStateWS(c *websocket.Conn) {
	hub.NewClient(s.stateHub, c).Run()
}
