// Package web serves the ballrunner dashboard: a REST API to control the game
// and inspect the tracker, and websockets streaming status, events and the
// annotated camera preview.
package web

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/game"
	"github.com/teslashibe/go-ballrunner/pkg/hub"
	"github.com/teslashibe/go-ballrunner/pkg/protocol"
	"github.com/teslashibe/go-ballrunner/pkg/session"
)

// statusInterval is how often /ws/status clients get a snapshot
const statusInterval = 100 * time.Millisecond

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	port    string
	logger  *slog.Logger
	session *session.Session
	cameras *camera.Manager

	// Hubs for websocket broadcast
	statusHub  *hub.Hub
	eventsHub  *hub.Hub
	previewHub *hub.Hub
}

// NewServer creates the dashboard for sess. cameras may be nil, which
// disables the camera API. static, when set, is a directory served at /.
func NewServer(port string, sess *session.Session, cameras *camera.Manager, static string) *Server {
	s := &Server{
		port:       port,
		logger:     log.Component("web"),
		session:    sess,
		cameras:    cameras,
		statusHub:  hub.New("status").KeepLast(),
		eventsHub:  hub.New("events"),
		previewHub: hub.New("preview").KeepLast(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Ballrunner",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	if static != "" {
		app.Static("/", static)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/tracker", s.handleTracker)
	api.Get("/highscore", s.handleHighScore)
	api.Post("/game/:action", s.handleGameAction)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/events", websocket.New(s.serveHub(s.eventsHub)))
	app.Get("/ws/preview", websocket.New(s.serveHub(s.previewHub)))

	s.app = app
	sess.AddSink(s)
	return s
}

// App returns the fiber app, for mounting more routes before Run.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on the configured port until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return errors.Wrapf(err, "listen on port %s", s.port)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and the HTTP server on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.statusHub.Run(ctx)
	go s.eventsHub.Run(ctx)
	go s.previewHub.Run(ctx)
	go s.pushStatus(ctx)

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	select {
	case <-ctx.Done():
		return errors.Wrap(s.app.ShutdownWithTimeout(5*time.Second), "shutdown dashboard")
	case err := <-errc:
		return errors.Wrap(err, "dashboard server")
	}
}

func (s *Server) pushStatus(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.session.Status()); err != nil {
				s.logger.Warn("status encode failed", "error", err)
			}
		}
	}
}

// Session sink: every game event goes to /ws/events as a protocol event
// message, previews go to /ws/preview as binary JPEG.

func (s *Server) ScoreChanged(score int) {
	s.sendEvent(protocol.NewScoreEvent(score))
}

func (s *Server) SpeedChanged(multiplier float64) {
	s.sendEvent(protocol.NewSpeedEvent(multiplier))
}

func (s *Server) GameOver(final, best int, newRecord bool) {
	s.sendEvent(protocol.NewGameOverEvent(final, best, newRecord))
}

func (s *Server) BallUpdated(x, y, confidence float64) {
	s.sendEvent(protocol.NewBallEvent(x, y, confidence))
}

func (s *Server) StateChanged(from, to game.State) {
	s.sendEvent(protocol.NewStateEvent(from.String(), to.String()))
}

func (s *Server) Preview(jpeg []byte) {
	if s.previewHub.ClientCount() > 0 {
		s.previewHub.BroadcastBinary(jpeg)
	}
}

func (s *Server) sendEvent(msg *protocol.Message, err error) {
	if err != nil {
		s.logger.Warn("event encode failed", "error", err)
		return
	}
	if s.eventsHub.ClientCount() == 0 {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("event encode failed", "error", err)
		return
	}
	s.eventsHub.Broadcast(hub.NewJSONMessage(data))
}
