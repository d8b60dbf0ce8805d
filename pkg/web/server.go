// Package web provides the HTTP/API surface for peer: session control,
// history, live stats over websocket, evidence serving and metrics.
// The engine itself lives in pkg/focus; this layer is glue.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/peerhq/peer/internal/log"
	"github.com/peerhq/peer/internal/metrics"
	"github.com/peerhq/peer/pkg/evidence"
	"github.com/peerhq/peer/pkg/focus"
	"github.com/peerhq/peer/pkg/history"
	"github.com/peerhq/peer/pkg/hub"
)

// Server is the peer API server.
type Server struct {
	app  *fiber.App
	port string

	manager  *focus.Manager
	history  history.Store
	evidence evidence.Store

	// Hub for live stats broadcast (thread-safe!)
	liveHub *hub.Hub
}

// NewServer creates the API server and wires the manager's update
// stream into the live websocket hub.
func NewServer(port string, manager *focus.Manager, hist history.Store, ev evidence.Store, m *metrics.Metrics) *Server {
	s := &Server{
		port:     port,
		manager:  manager,
		history:  hist,
		evidence: ev,
		liveHub:  hub.New("live"),
	}

	manager.OnUpdate = func(stats focus.LiveStats) {
		s.liveHub.BroadcastJSON(stats)
	}

	app := fiber.New(fiber.Config{
		AppName:               "peer",
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024, // detection payloads carry JPEG evidence
	})

	// CORS for local development
	app.Use(cors.New())

	// Static dashboard assets
	app.Static("/", "./web")

	// Mock auth flow (demo only)
	app.Get("/auth/login", s.handleLogin)
	app.Get("/auth/callback", s.handleCallback)
	app.Get("/auth/logout", s.handleLogout)

	api := app.Group("/api")
	api.Get("/user/me", s.handleMe)

	authed := api.Group("", s.requireAuth)
	authed.Get("/stats", s.handleStats)
	authed.Get("/history", s.handleHistory)
	authed.Post("/session/start", s.handleStartSession)
	authed.Post("/session/:id/calibrate", s.handleCalibrate)
	authed.Post("/session/:id/recalibrate", s.handleRecalibrate)
	authed.Post("/session/:id/activate", s.handleActivate)
	authed.Post("/session/:id/frames", s.handleFrame)
	authed.Post("/session/:id/end", s.handleEndSession)
	authed.Get("/session/:id", s.handleSessionDetail)

	app.Get("/evidence/:ref", s.requireAuth, s.handleEvidence)

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/live", websocket.New(s.handleLiveWS))

	s.app = app
	return s
}

// Start starts the web server and the broadcast hub. Blocks.
func (s *Server) Start() error {
	go s.liveHub.Run()
	log.Info("api server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleLiveWS streams live stats updates to dashboard clients.
func (s *Server) handleLiveWS(c *websocket.Conn) {
	client := hub.NewClient(s.liveHub, c)
	client.Run()
}
