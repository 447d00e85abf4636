// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/server"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		file  string
		query string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a local blood test report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New(errors.CodeInvalidInput, "--file is required", nil)
			}
			if strings.TrimSpace(query) == "" {
				query = server.DefaultQuery
			}
			a, err := newApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer closeApp(a)
			if result := a.guard.CheckInput(cmd.Context(), query); result.Blocked {
				return errors.New(errors.CodeInvalidInput, "query rejected: "+result.Reason, nil).
					WithContext("guardrail", result.GuardrailID)
			}

			report, err := a.runner.Kickoff(cmd.Context(), core.ExecutionInput{
				Query:    strings.TrimSpace(query),
				FilePath: file,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the PDF report")
	cmd.Flags().StringVarP(&query, "query", "q", server.DefaultQuery, "question about the report")
	return cmd
}
