package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crashwatch-go/internal/api/handlers"
	"crashwatch-go/internal/api/middleware"
	"crashwatch-go/internal/config"
	"crashwatch-go/internal/services/publisher/mjpeg"
	"crashwatch-go/internal/services/session"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler   *handlers.HealthHandler
	sessionHandler  *handlers.SessionHandler
	uploadHandler   *handlers.UploadHandler
	evidenceHandler *handlers.EvidenceHandler
	systemHandler   *handlers.SystemHandler
}

func NewServer(cfg *config.Config, manager *session.Manager, publisher *mjpeg.Publisher, messaging handlers.MessagingStatus) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config:          cfg,
		router:          gin.New(),
		healthHandler:   handlers.NewHealthHandler(cfg.AppID, cfg.Version, messaging),
		sessionHandler:  handlers.NewSessionHandler(manager, publisher),
		uploadHandler:   handlers.NewUploadHandler(cfg),
		evidenceHandler: handlers.NewEvidenceHandler(manager),
		systemHandler:   handlers.NewSystemHandler(cfg, manager),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting API server")
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}

// Router exposes the gin engine, used by handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
