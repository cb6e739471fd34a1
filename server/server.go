package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lanternworks/lanternworks/ai/metrics"
	"github.com/lanternworks/lanternworks/internal/blob"
	"github.com/lanternworks/lanternworks/internal/profile"
	apiv1 "github.com/lanternworks/lanternworks/server/router/api/v1"
	"github.com/lanternworks/lanternworks/server/router/frontend"
	"github.com/lanternworks/lanternworks/store"
)

// Server wires the HTTP surface together: the marketing frontend, the
// versioned API, the image blob directory, and the Prometheus endpoint.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   store,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s.echoServer = e

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowCredentials: false,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Error("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
			} else {
				slog.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			}
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	recorder := metrics.NewRecorder()
	e.GET("/metrics", echo.WrapHandler(recorder.Handler()))

	blobs, err := blob.NewStore(profile.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create blob store")
	}
	e.Static(blob.PublicPrefix, blobs.Dir())

	apiv1.NewAPIV1Service(profile, store, blobs, recorder).Register(e)
	frontend.NewFrontendService(profile).Register(e)

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("server shutdown")
}
