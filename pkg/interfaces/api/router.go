// Package api exposes allocation sessions over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/fulfillment/pkg/application/services/activity"
	"github.com/vsinha/fulfillment/pkg/application/services/session"
)

// Server holds the handler dependencies
type Server struct {
	sessions *session.Service
	activity *activity.Tracker
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer creates the HTTP surface over a session service. A nil gatherer
// falls back to the default Prometheus registry.
func NewServer(sessions *session.Service, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sessions: sessions, gatherer: gatherer, logger: logger}
}

// WithActivity serves per-demand activity from tracker
func (s *Server) WithActivity(tracker *activity.Tracker) *Server {
	s.activity = tracker
	return s
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	api := r.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", s.openSession)
			sessions.GET("/:id", s.getSession)
			sessions.DELETE("/:id", s.cancelSession)
			sessions.POST("/:id/locations", s.addLocation)
			sessions.PUT("/:id/locations/:location_id", s.editLocation)
			sessions.DELETE("/:id/locations/:location_id", s.removeLocation)
			sessions.PUT("/:id/external/:channel", s.setExternal)
			sessions.POST("/:id/submit", s.submit)
		}
		if s.activity != nil {
			api.GET("/demands/:demand_id/activity", s.demandActivity)
		}
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return r
}

// ListenAndServe runs the router on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
