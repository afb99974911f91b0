// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/system"
)

const (
	EnvConfigPath = "BOOKING_MAILER_CONFIG_PATH"
	EnvDebug      = "DEBUG"
)

// Config seeds the root command. Logger is built from Debug when nil.
type Config struct {
	ConfigPath   string
	Debug        bool
	OutputWriter io.Writer
	Logger       *zap.Logger
}

type runtimeState struct {
	configPath string
	debug      bool
	writer     io.Writer
	cfg        config.Config
	log        *zap.Logger
	ownsLogger bool
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   getEnvString(EnvConfigPath, ""),
		Debug:        getEnvBool(EnvDebug, false),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		debug:      cfg.Debug,
		writer:     cfg.OutputWriter,
		log:        cfg.Logger,
	}

	root := &cobra.Command{
		Use:           "booking-mailer",
		Short:         "Booking confirmation mail service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = cmd.OutOrStdout()
			}
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			if rt.log == nil {
				log, err := system.NewLogger(rt.debug)
				if err != nil {
					return err
				}
				rt.log = log
				rt.ownsLogger = true
			}
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.ownsLogger && rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config-path", rt.configPath, "Path to an optional YAML config file (env "+EnvConfigPath+")")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", rt.debug, "Enable development logging and gin debug mode (env "+EnvDebug+")")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}
