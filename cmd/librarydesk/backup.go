package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/app/features/query/backup"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON snapshot of all books and loans",
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

			w := &wiring{observers: env.observers}
			handler := wrapQuery[backup.Query, backup.Snapshot](
				w,
				backup.NewQueryHandler(store),
			)
			if err = w.err(); err != nil {
				return err
			}

			snapshot, err := handler.Handle(cmd.Context(), backup.BuildQuery(time.Now().UTC()))
			if err != nil {
				return err
			}

			body, err := snapshot.MarshalIndented()
			if err != nil {
				return err
			}

			target, err := writeOutput(cmd.OutOrStdout(), out, snapshot.Filename(), body)
			if err != nil {
				return err
			}

			env.logger.Info("backup written", "books", len(snapshot.Books), "loans", len(snapshot.Loans), "target", target)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file, "-" writes to stdout (default: backup-<unix ms>.json)`)

	return cmd
}
