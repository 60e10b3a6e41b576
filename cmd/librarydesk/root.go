package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "librarydesk",
		Short: "Circulation desk for a small library: catalog, loans, legacy imports and exports",
		Long: `librarydesk keeps the book catalog and the loan ledger of a small library in PostgreSQL.

It serves the JSON API used by the desk, applies the database schema, reconciles
legacy catalog dumps and writes catalog exports.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file, environment variables override it")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level, including SQL statements")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newBackupCmd(opts),
	)

	return cmd
}
