// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"

	bloodmcp "github.com/MmayankK21/BloodTestAnalyser/pkg/mcp"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the analysis as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs go to stderr.
			a, err := newApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer closeApp(a)
			return bloodmcp.NewServer(serviceName, version, a.runner, a.logger).
				WithGuard(a.guard).
				ServeStdio()
		},
	}
}
