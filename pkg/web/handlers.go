package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/hub"
	"github.com/teslashibe/go-ballrunner/pkg/session"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the game and tracking snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.session.Status())
}

// handleTracker returns tracker throughput and configuration
func (s *Server) handleTracker(c *fiber.Ctx) error {
	stats, err := s.session.TrackerStats()
	if errors.Is(err, session.ErrNoTracker) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	cfg, _ := s.session.TrackerConfig()

	return c.JSON(fiber.Map{
		"stats":  stats,
		"config": cfg,
		"last":   s.session.Status().Ball,
	})
}

// handleHighScore returns the best score and recent runs
func (s *Server) handleHighScore(c *fiber.Ctx) error {
	runs, err := s.session.Runs()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"high_score": s.session.HighScore(),
		"runs":       runs,
	})
}

// handleGameAction applies start, pause, resume, stop or toggle
func (s *Server) handleGameAction(c *fiber.Ctx) error {
	action := c.Params("action")

	state, err := s.session.Control(action)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"action": action,
		"state":  state,
	})
}

// handleGetCamera returns the camera config and the choices for it
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return c.Status(404).JSON(fiber.Map{"error": "camera control not available"})
	}
	return c.JSON(fiber.Map{
		"config":       s.cameras.GetConfigJSON(),
		"capabilities": camera.Capabilities(),
	})
}

// handleSetCamera applies a partial camera config update
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return c.Status(404).JSON(fiber.Map{"error": "camera control not available"})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	if err := s.cameras.UpdateConfig(params); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Info("camera config updated", "params", params)
	return c.JSON(fiber.Map{
		"status": "ok",
		"config": s.cameras.GetConfigJSON(),
	})
}

// serveHub attaches a websocket connection to h until it closes
func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}
