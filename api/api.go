package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/forge"
)

// Server is the API server for the reel system.
type Server struct {
	config Config
	forge  forge.Client
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The forge client is injected so the
// same client (and token) can be shared with the view command. mcpHandler
// is mounted at /mcp when non-nil.
func NewServer(config Config, client forge.Client, mcpHandler http.Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		forge:  client,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/runs/:owner/:repo/:run", s.handleGetRun)
	app.Get("/v1/runs/:owner/:repo/:run/artifacts/:artifact", s.handleGetArtifact)
	app.Post("/v1/trajectories", s.handleClassifyTrajectory)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
