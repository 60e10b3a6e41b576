package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/app/features/query/exportcatalog"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as CSV or JSON, or the loan ledger as JSON",
		Example: `  # Writes books-export-<date>.csv to the working directory
  librarydesk export --format csv

  # Loans, newest first, to stdout
  librarydesk export --format loans --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := exportcatalog.ParseFormat(format)
			if err != nil {
				return err
			}

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
			handler := wrapQuery[exportcatalog.Query, exportcatalog.Export](
				w,
				exportcatalog.NewQueryHandler(store),
			)
			if err = w.err(); err != nil {
				return err
			}

			export, err := handler.Handle(cmd.Context(), exportcatalog.BuildQuery(parsed, time.Now()))
			if err != nil {
				return err
			}

			target, err := writeOutput(cmd.OutOrStdout(), out, export.Filename, export.Body)
			if err != nil {
				return err
			}

			env.logger.Info("export written", "format", string(parsed), "rows", export.Rows, "target", target)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv, json or loans")
	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file, "-" writes to stdout (default: the export's own filename)`)

	return cmd
}

// writeOutput writes body to out, to stdout for "-", or to defaultName when out is empty.
// It returns where the body went.
func writeOutput(stdout io.Writer, out string, defaultName string, body []byte) (string, error) {
	switch out {
	case "-":
		if _, err := stdout.Write(body); err != nil {
			return "", err
		}

		return "stdout", nil

	case "":
		out = defaultName
	}

	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}

	return out, nil
}
