package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akhmadev/gym-membership-service/internal/config"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// Server представляет HTTP сервер
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	log        *logger.Logger
	cfg        *config.Config
}

// NewServer создает новый HTTP сервер
func NewServer(router *gin.Engine, cfg *config.Config, log *logger.Logger) *Server {
	return &Server{
		router: router,
		log:    log,
		cfg:    cfg,
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	port := s.cfg.App.Port
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.App.ReadTimeout,
		WriteTimeout: s.cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Starting server on port %s", port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown выполняет graceful shutdown сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Server is shutting down...")
	return s.httpServer.Shutdown(ctx)
}
