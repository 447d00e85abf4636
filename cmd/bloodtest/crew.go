// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/crew"
)

func newCrewCmd(flags *globalFlags) *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "crew",
		Short: "Print the resolved crew definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			def, err := loadDefinition(cfg)
			if err != nil {
				return err
			}
			if validate {
				if err := def.Validate(cfg.Crew.Strict); err != nil {
					return err
				}
			}
			data, err := crew.MarshalYAML(def)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "validate the definition before printing")
	return cmd
}
