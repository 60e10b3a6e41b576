package main

import (
	"errors"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/importlegacybooks"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

var ErrImportFileMissing = errors.New("--file is required")

func newImportCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Reconcile a legacy catalog dump into the catalog",
		Long: `Reads a legacy dump, either a JSON array of records or an object with an "items" array.

Every record is one physical copy. Records sharing a normalized title become one book;
existing books gain the imported copies. The import runs in a single transaction.`,
		Example: `  librarydesk import --file legacy-books.json
  cat legacy-books.json | librarydesk import --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return ErrImportFileMissing
			}

			payload, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			records, err := importlegacybooks.DecodeLegacyBatch(payload)
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
			handler := wrapCommand[importlegacybooks.Command, circulation.ImportStats](
				w,
				importlegacybooks.NewCommandHandler(store),
			)
			if err = w.err(); err != nil {
				return err
			}

			result, err := handler.Handle(cmd.Context(), importlegacybooks.BuildCommand(records))
			if err != nil {
				return err
			}

			encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			return encoder.Encode(result.Value)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `Legacy dump to import, "-" reads stdin`)

	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(file)
}
