// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	ConfigPath string
	Profile    string
	JSON       bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "bloodtest",
		Short: "Blood test report analyser",
		Long: `bloodtest runs a crew of four role prompts (verifier, doctor, nutritionist and
exercise specialist) over an uploaded blood test report and returns the combined analysis.

Examples:
  bloodtest serve                                   # HTTP API on :8000
  bloodtest analyze --file report.pdf --query "..." # One-off analysis
  bloodtest mcp                                     # MCP tool over stdio
  bloodtest crew                                    # Print the resolved crew
  bloodtest audit --run <run-id>                    # Events recorded for one run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.Profile, "profile", "", "config profile overlay (config.<profile>.yaml)")
	root.PersistentFlags().BoolVar(&flags.JSON, "json", false, "print errors as JSON")

	root.AddCommand(
		newServeCmd(flags),
		newAnalyzeCmd(flags),
		newMCPCmd(flags),
		newCrewCmd(flags),
		newAuditCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}

func rootJSON(cmd *cobra.Command) bool {
	v, err := cmd.PersistentFlags().GetBool("json")
	return err == nil && v
}
