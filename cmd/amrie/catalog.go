package main

import (
	"github.com/spf13/cobra"

	"github.com/cgps-group/AMRIE/internal/setup"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the reference catalogs",
	}
	cmd.AddCommand(catalogCheckCmd())
	return cmd
}

func catalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load both catalogs and report their contents",
		Long: `Load the antibiotic and organism catalogs, failing on the first malformed
row, and print the record counts and the derived drug groups as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := setup.CheckCatalogs(cfg.Catalog, logger)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), status)
		},
	}
}
