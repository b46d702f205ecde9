package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/net/netutil"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/ai/metrics"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/internal/version"
	apiv1 "github.com/hrygo/loconomy/server/router/api/v1"
	"github.com/hrygo/loconomy/server/router/frontend"
	"github.com/hrygo/loconomy/server/service/booking"
	"github.com/hrygo/loconomy/store"
)

// maxConnections caps concurrently open client connections.
const maxConnections = 1024

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Agent   *agent.Agent

	echoServer *echo.Echo
	listener   net.Listener
	cleanups   []func(context.Context) error
}

// NewServer wires the HTTP surface. store and exporter may be nil; the
// booking routes and /metrics are then omitted.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, a *agent.Agent, exporter *metrics.PrometheusExporter) (*Server, error) {
	if a == nil {
		return nil, errors.New("agent is required")
	}

	s := &Server{
		Profile: profile,
		Store:   store,
		Agent:   a,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelDebug
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			slog.LogAttrs(c.Request().Context(), level, "http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", s.healthz)
	if exporter != nil {
		echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	var bookings *booking.Service
	if store != nil {
		bookings = booking.NewService(store, booking.DefaultSearchLimit)
	}
	apiv1.NewAPIV1Service(profile, a, bookings).RegisterRoutes(echoServer)

	frontend.NewFrontendService(profile).Serve(ctx, echoServer)

	return s, nil
}

// OnShutdown registers fn to run after the HTTP server stops, in reverse
// registration order.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.cleanups = append(s.cleanups, fn)
}

// Handler exposes the echo router.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on Profile.Addr:Profile.Port and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := net.JoinHostPort(s.Profile.Addr, fmt.Sprint(s.Profile.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	listener = netutil.LimitListener(listener, maxConnections)
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve http", "error", err)
		}
	}()

	slog.Info("server started", "addr", listener.Addr().String(), "version", version.String(), "mode", s.Profile.Mode)
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting requests and releases the agent's resources.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](ctx); err != nil {
			slog.Error("shutdown hook failed", "error", err)
		}
	}

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}

	slog.Info("server stopped properly")
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}
