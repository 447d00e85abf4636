// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/guardrails"
)

// DefaultQuery is used when a request carries no query.
const DefaultQuery = "Analyze my Blood Test Report"

// Analyzer runs the crew for one uploaded report.
type Analyzer interface {
	Kickoff(ctx context.Context, input core.ExecutionInput) (string, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	UploadDir      string
	MaxUploadBytes int64
	CORS           bool
	Debug          bool
	Logger         *slog.Logger
	// Health backs GET /healthz. Nil reports healthy.
	Health *core.HealthRegistry
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// Guard screens the query before the upload is stored.
	Guard *guardrails.Guardrails
}

// Server is the gin-based HTTP front end.
type Server struct {
	analyzer Analyzer
	opts     Options
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds a server around analyzer.
func New(analyzer Analyzer, opts Options) (*Server, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "data"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	if opts.CORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		analyzer: analyzer,
		opts:     opts,
		logger:   logger,
		engine:   engine,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.POST("/analyze", s.handleAnalyze)
	s.engine.GET("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", slog.String("addr", s.opts.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Blood Test Report Analyser API is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": core.HealthHealthy}
	code := http.StatusOK
	if s.opts.Health != nil {
		results, status := s.opts.Health.CheckAll(c.Request.Context())
		if status == core.HealthUnhealthy {
			code = http.StatusServiceUnavailable
		}
		body["status"] = status
		body["components"] = results
	}
	if s.opts.Guard != nil {
		body["guardrails"] = s.opts.Guard.Stats()
	}
	c.JSON(code, body)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
