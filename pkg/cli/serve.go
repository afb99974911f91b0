// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/api"
	"github.com/telekom/booking-mailer/pkg/booking"
	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/ledger"
	"github.com/telekom/booking-mailer/pkg/mail"
	"github.com/telekom/booking-mailer/pkg/ratelimit"
	"github.com/telekom/booking-mailer/pkg/version"
)

// initTimeout bounds ledger initialization and the redis ping at startup.
const initTimeout = 30 * time.Second

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, rt.cfg, rt.log, rt.debug)
			if err != nil {
				rt.log.Sugar().Errorw("Startup failed", "error", err)
				return err
			}
			defer a.Close()

			info := version.GetBuildInfo()
			rt.log.Sugar().Infow("Starting booking-mailer",
				"version", info.Version,
				"commit", info.GitCommit,
				"address", rt.cfg.Server.ListenAddress(),
				"limiter", rt.cfg.RateLimit.Backend,
				"ledger", a.ledger.Driver(),
				"templates", a.templateSource)

			return a.server.Listen(ctx)
		},
	}
}

// app is the wired pipeline behind the HTTP server.
type app struct {
	server         *api.Server
	service        *booking.Service
	ledger         ledger.Ledger
	templateSource string
	closers        []func() error
	log            *zap.SugaredLogger
}

// Close releases every resource in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("Error during shutdown", "error", err)
		}
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger, debug bool) (_ *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{log: log.Sugar()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// fail fast: a server that cannot send mail is of no use
	transport, err := mail.NewSMTPTransport(cfg.SMTP, a.log)
	if err != nil {
		return nil, err
	}
	engine := mail.NewEngine(transport, mail.RetryPolicyFromConfig(cfg.Mail), transport.Host(), a.log)

	templates := mail.NewTemplateStore(cfg.Mail.TemplateDir)
	a.templateSource = templates.Source()
	if _, terr := mail.LoadConfirmation(templates); terr != nil {
		// requests fail with a server error until the templates appear
		a.log.Warnw("Confirmation templates not readable", "source", templates.Source(), "error", terr)
	}

	limiter, err := buildLimiter(ctx, cfg.RateLimit, a)
	if err != nil {
		return nil, err
	}

	l, err := openLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	a.ledger = l
	a.closers = append(a.closers, l.Close)
	if l.Driver() == config.LedgerDriverMemory {
		a.log.Warnw("Delivery outcomes are kept in memory only and are lost on restart; set DATABASE_URL or KAFKA_BROKERS for a durable ledger",
			"ledger", l.Driver())
	}

	a.service = booking.NewService(limiter, templates, engine, l, booking.Options{
		FromEmail:    cfg.Mail.FromEmail,
		SupportEmail: cfg.Mail.SupportEmail,
		MaxAttempts:  cfg.Mail.MaxAttempts,
	}, a.log)

	server, err := api.NewServer(log, cfg.Server, debug)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		server.Close()
		return nil
	})
	if err := server.RegisterAll([]api.APIController{
		api.NewBookingController(a.log, a.service, cfg.Server.Timeout()),
	}); err != nil {
		return nil, fmt.Errorf("register controllers: %w", err)
	}
	a.server = server

	return a, nil
}

func buildLimiter(ctx context.Context, cfg config.RateLimit, a *app) (ratelimit.Limiter, error) {
	rlCfg := ratelimit.Config{Window: cfg.Window(), Max: cfg.Max}

	switch cfg.Backend {
	case config.LimiterBackendRedis:
		pingCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		rdb, err := ratelimit.NewRedisClient(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		a.log.Infow("Using redis rate limiter", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		return ratelimit.NewRedisLimiter(rdb, rlCfg, ratelimit.WithRedisPrefix(cfg.Redis.Prefix)), nil
	case config.LimiterBackendMemory, "":
		sw := ratelimit.NewSlidingWindow(rlCfg)
		a.closers = append(a.closers, func() error {
			sw.Stop()
			return nil
		})
		return sw, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter backend %q", cfg.Backend)
	}
}

// openLedger opens the configured ledger and creates its backing structure.
func openLedger(ctx context.Context, cfg config.Ledger) (ledger.Ledger, error) {
	l, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", cfg.Driver, err)
	}
	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := l.Init(initCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("init %s ledger: %w", l.Driver(), err), l.Close())
	}
	return l, nil
}
