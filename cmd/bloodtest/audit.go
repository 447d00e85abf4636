// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/audit"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

func newAuditCmd(flags *globalFlags) *cobra.Command {
	var filter audit.Filter
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded crew run events, one JSON object per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if filter.Limit < 0 {
				return errors.New(errors.CodeInvalidInput, "limit must not be negative", nil)
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			// The memory store dies with the process that filled it.
			if cfg.Audit.Driver != "sqlite" {
				return errors.New(errors.CodeConfig, "audit listing needs a persistent store", nil).
					WithContext("driver", cfg.Audit.Driver)
			}
			store, closeStore, err := openAuditStore(cfg.Audit)
			if err != nil {
				return err
			}
			defer closeStore(context.Background())

			records, err := store.List(cmd.Context(), filter)
			if err != nil {
				return errors.New(errors.CodeInternal, "failed to list audit records", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.RunID, "run", "", "only events of this run id")
	cmd.Flags().StringVar(&filter.Type, "type", "", "only events of this type (e.g. crew.run.completed)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of events (0 for all)")
	return cmd
}
