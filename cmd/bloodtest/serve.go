// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			srv, err := server.New(a.runner, server.Options{
				Addr:           a.cfg.Server.Addr,
				UploadDir:      a.cfg.Server.UploadDir,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				CORS:           a.cfg.Server.CORS,
				Debug:          a.cfg.Server.Debug,
				Logger:         a.logger,
				Health:         a.health,
				Metrics:        a.metrics,
				Guard:          a.guard,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func closeApp(a *app) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.logger.Warn("shutdown failed", "error", err)
	}
}
