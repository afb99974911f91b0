// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the ledger table or topic and exits. serve does the
// same on startup; migrate lets deployments run it as a separate job.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the delivery ledger storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			l, err := openLedger(cmd.Context(), rt.cfg.Ledger)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			rt.log.Sugar().Infow("Ledger initialized", "driver", l.Driver())
			_, _ = fmt.Fprintf(rt.writer, "ledger %s initialized\n", l.Driver())
			return nil
		},
	}
}
