// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/apiresponses"
	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/metrics"
	"github.com/telekom/booking-mailer/pkg/ratelimit"
	"github.com/telekom/booking-mailer/pkg/system"
	"github.com/telekom/booking-mailer/pkg/version"
)

const shutdownTimeout = 10 * time.Second

type APIController interface {
	BasePath() string
	Register(rg *gin.RouterGroup) error
	Handlers() []gin.HandlerFunc
}

type Server struct {
	gin           *gin.Engine
	config        config.Server
	log           *zap.SugaredLogger
	clientLimiter *ratelimit.ClientLimiter
}

func NewServer(log *zap.Logger, cfg config.Server, debug bool) (*Server, error) {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.CustomRecoveryWithZap(log, true, func(c *gin.Context, recovered any) {
			apiresponses.RespondInternalError(c, "Server error", fmt.Errorf("%v", recovered), nil)
			c.Abort()
		}),
		// the booking form is served from arbitrary origins, including file:// previews
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:    []string{"Origin", "Content-Type", system.RequestIDHeader},
			ExposeHeaders:   []string{system.RequestIDHeader},
			MaxAge:          12 * time.Hour,
		}),
		system.RequestLogger(log.Sugar()),
	)

	s := &Server{
		gin:    engine,
		config: cfg,
		log:    log.Sugar(),
	}

	if !cfg.ClientRate.Disabled {
		s.clientLimiter = ratelimit.NewClientLimiter(ratelimit.ClientConfig{
			Rate:  cfg.ClientRate.RPS,
			Burst: cfg.ClientRate.Burst,
		})
		engine.Use(s.clientLimiter.Middleware())
	}

	engine.NoRoute(apiresponses.RespondNotFound)
	engine.GET("health", s.health)
	engine.GET("version", s.version)
	if cfg.MetricsAddress == "" {
		engine.GET("metrics", gin.WrapH(metrics.MetricsHandler()))
	}

	return s, nil
}

// RegisterAll mounts every controller at the root and again below /api,
// so /bookings and /api/bookings reach the same handler.
func (s *Server) RegisterAll(controllers []APIController) error {
	for _, prefix := range []string{"", "api"} {
		r := s.gin.Group(prefix)
		for _, c := range controllers {
			if err := c.Register(r.Group(c.BasePath(), c.Handlers()...)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Listen serves until ctx is cancelled and then shuts down gracefully,
// letting in-flight bookings finish within the shutdown timeout.
func (s *Server) Listen(ctx context.Context) error {
	servers := []*http.Server{s.newHTTPServer(s.config.ListenAddress(), s.gin)}
	if s.config.MetricsAddress != "" {
		servers = append(servers, s.newHTTPServer(s.config.MetricsAddress, metrics.MetricsHandler()))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			s.log.Infow("Listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var err error
	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			s.log.Warnw("Graceful shutdown failed", "address", srv.Addr, "error", serr)
		}
	}
	return err
}

func (s *Server) newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a booking may spend the whole request timeout on delivery retries
		WriteTimeout: s.config.Timeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Close releases background resources. Safe to call more than once.
func (s *Server) Close() {
	if s.clientLimiter != nil {
		s.clientLimiter.Stop()
	}
}

func (s *Server) health(c *gin.Context) {
	apiresponses.RespondOK(c)
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetBuildInfo())
}
