// Package api exposes the HTTP surface of the activity service: event
// ingest, feed and notification reads, the SSE notification stream, and
// sliding-window top-K queries.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/config"
	"github.com/streampulse/activityd/pkg/database"
	"github.com/streampulse/activityd/pkg/metrics"
	"github.com/streampulse/activityd/pkg/services"
)

// Server is the HTTP API server.
type Server struct {
	cfg     *config.Config
	db      *database.Client
	echo    *echo.Echo
	httpSrv *http.Server

	ingestService       *services.IngestService
	feedService         *services.FeedService
	notificationService *services.NotificationService
	topService          *services.TopService
	broker              *broker.Broker
	metrics             *metrics.Collector
}

// NewServer creates a new API server and registers all routes.
func NewServer(
	cfg *config.Config,
	db *database.Client,
	ingestService *services.IngestService,
	feedService *services.FeedService,
	notificationService *services.NotificationService,
	topService *services.TopService,
	b *broker.Broker,
	m *metrics.Collector,
) *Server {
	s := &Server{
		cfg:                 cfg,
		db:                  db,
		ingestService:       ingestService,
		feedService:         feedService,
		notificationService: notificationService,
		topService:          topService,
		broker:              b,
		metrics:             m,
	}

	e := echo.New()
	e.Use(securityHeaders())

	e.GET("/health", s.healthHandler)
	if m != nil {
		metricsHandler := m.Handler()
		e.GET("/metrics", func(c *echo.Context) error {
			metricsHandler.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}

	g := e.Group("/api", requireUser())
	g.POST("/events", s.ingestEventHandler)
	g.GET("/feed", s.getFeedHandler)
	g.GET("/notifications", s.listNotificationsHandler)
	g.GET("/notifications/stream", s.streamNotificationsHandler)
	g.GET("/top", s.getTopHandler)

	s.echo = e
	return s
}

// Handler returns the root HTTP handler, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and serves until Shutdown or a fatal error.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
