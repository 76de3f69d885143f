// Package http exposes the case workflow over a JSON REST API.
// It only translates requests into engine and service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mediation-desk/internal/application/service"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestObserver records served requests
type RequestObserver interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
}

// PushEndpoint upgrades a request to a live notification stream for a user
type PushEndpoint interface {
	Serve(w http.ResponseWriter, r *http.Request, userID int64)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxUploadBytes: service.DefaultMaxEvidenceBytes,
	}
}

// Dependencies groups everything the handlers call
type Dependencies struct {
	Engine        workflow.CaseEngine
	Notifications service.NotificationService
	Evidence      service.EvidenceService
	Export        service.ExportService
	Tokens        *TokenService

	// Optional
	Push           PushEndpoint
	Observer       RequestObserver
	MetricsHandler http.Handler
	HealthCheck    func(ctx context.Context) error
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	deps       Dependencies
	httpServer *http.Server
	router     *gin.Engine
	logger     Logger
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = service.DefaultMaxEvidenceBytes
	}

	server := &Server{
		config: config,
		deps:   deps,
		router: gin.New(),
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	if s.deps.MetricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.MetricsHandler))
	}
	if s.deps.Push != nil {
		s.router.GET("/ws/notifications", s.streamNotifications)
	}

	api := s.router.Group("/api/v1", s.authMiddleware())
	{
		api.POST("/cases", s.createCase)
		api.GET("/cases", s.listCases)
		api.GET("/cases/:id", s.getCase)
		api.GET("/cases/:id/history", s.getHistory)
		api.GET("/cases/:id/history/export", s.exportHistory)
		api.GET("/cases/:id/witnesses", s.listWitnesses)
		api.GET("/cases/:id/panel", s.getPanel)

		api.POST("/cases/:id/respondent", s.linkRespondent)
		api.POST("/cases/:id/respond", s.respond)
		api.POST("/cases/:id/witnesses", s.nominateWitnesses)
		api.POST("/cases/:id/witness-statement", s.submitStatement)
		api.POST("/cases/:id/panel", s.createPanel)
		api.POST("/cases/:id/mediation", s.beginMediation)
		api.POST("/cases/:id/resolve", s.resolve)
		api.POST("/cases/:id/unresolved", s.markUnresolved)
		api.POST("/cases/:id/status", s.setStatus)
		api.POST("/cases/:id/cancel", s.cancel)

		api.POST("/cases/:id/evidence", s.attachEvidence)
		api.GET("/cases/:id/evidence", s.listEvidence)
		api.GET("/cases/:id/evidence/:evidenceID", s.downloadEvidence)

		api.GET("/notifications", s.listNotifications)
		api.GET("/notifications/unread-count", s.unreadCount)
		api.POST("/notifications/read-all", s.markAllRead)
		api.POST("/notifications/:notificationID/read", s.markRead)
		api.DELETE("/notifications/:notificationID", s.deleteNotification)
	}
}

// Start starts the HTTP server and blocks until ctx is done or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
