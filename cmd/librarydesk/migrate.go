package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the books and loans tables and their indexes if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = env.shutdown(cmd.Context()) }()

			store, closeStore, err := env.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err = store.CreateSchema(cmd.Context()); err != nil {
				return err
			}

			env.logger.Info("schema is up to date")

			return nil
		},
	}
}
