package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspection-service/internal/handler"
	"inspection-service/internal/middleware"
)

// Handlers groups the HTTP handlers the server routes to.
type Handlers struct {
	Classify handler.ClassifyHandler
	Alerts   handler.AlertHandler
	Stats    handler.StatsHandler
	Health   handler.HealthHandler
}

// Options configure the router.
type Options struct {
	Mode           string // gin mode: debug, release, test
	AllowedOrigins []string
	JWTSecret      string // empty disables authentication
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	log    *zap.Logger
}

func NewServer(addr string, h Handlers, opts Options, log *zap.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(opts.AllowedOrigins),
	)

	s := &Server{
		router: router,
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}

	s.setupRoutes(h, opts)

	return s
}

func (s *Server) setupRoutes(h Handlers, opts Options) {
	s.router.GET("/health", h.Health.Health)

	api := s.router.Group("/api/v1")
	if opts.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware([]byte(opts.JWTSecret), s.log))
	} else {
		s.log.Warn("Authentication is disabled (auth.jwt_secret is empty); user_id is taken from requests")
	}
	{
		api.POST("/classify", h.Classify.Classify)
		api.POST("/spam/check", h.Classify.CheckSpam)
		api.POST("/dlp/check", h.Classify.CheckDLP)

		api.GET("/alerts", h.Alerts.ListAlerts)
		api.GET("/alerts/:id", h.Alerts.GetAlert)
		api.PUT("/alerts/:id", h.Alerts.UpdateAlertAction)

		api.GET("/stats/:user_id", h.Stats.GetStats)
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the server is shut down. It returns nil after a graceful
// Shutdown.
func (s *Server) Run() error {
	s.log.Info("Server starting", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server...")
	return s.srv.Shutdown(ctx)
}
