// Package server serves the upload, mapping, preview and download web form.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/nconklindev/freightmap/internal/config"
	"github.com/nconklindev/freightmap/internal/converter"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	engine      *gin.Engine
	processor   *converter.Processor
	uploads     *uploadStore
	jobs        *semaphore.Weighted
	logger      logrus.FieldLogger
	maxUploadMB int64
}

func New(cfg config.ServerConfig, processor *converter.Processor, logger logrus.FieldLogger) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}

	s := &Server{
		engine:      gin.New(),
		processor:   processor,
		uploads:     newUploadStore(cfg.UploadTTL),
		jobs:        semaphore.NewWeighted(maxJobs(cfg.MaxJobs)),
		logger:      logger,
		maxUploadMB: cfg.MaxUploadMB,
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.MaxMultipartMemory = cfg.MaxUploadMB << 20
	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/upload", s.limitBody, s.handleUpload)
	s.engine.POST("/process", s.limitBody, s.handleProcess)
	s.engine.GET("/download/:id", s.handleDownload)
	s.engine.POST("/api/process", s.limitBody, s.handleAPIProcess)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func maxJobs(n int64) int64 {
	if n <= 0 {
		return 1
	}
	return n
}

// process runs one conversion once a job slot is free.
func (s *Server) process(ctx context.Context, req converter.Request) (*converter.Output, error) {
	if err := s.jobs.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for a free worker")
	}
	defer s.jobs.Release(1)
	return s.processor.Process(ctx, req)
}

// limitBody caps request bodies at the configured upload size.
func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadMB<<20)
	c.Next()
}
