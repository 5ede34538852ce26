package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
	"fmfm/internal/importer"
)

func newImportCmd(open opener) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import every document in the inbox",
		Long: `Register and index every file at the top level of the inbox.

Imported files move to _finished and duplicates to _duplicate. Unsupported
files stay in place. A collision or store failure stops the import.

Examples:
  fmfm import
  fmfm import --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				im, err := importer.New(a.Config.InboxDir, a.Library)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				if watch {
					err := im.Watch(ctx, func(r *importer.Report) { printReport(out, r) })
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				report, err := im.Run(ctx)
				if report != nil {
					printReport(out, report)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and import files as they arrive")

	return cmd
}

func printReport(w io.Writer, r *importer.Report) {
	for _, n := range r.Imported {
		fmt.Fprintf(w, "imported #%d\n", n)
	}
	fmt.Fprintf(w, "imported %d, duplicates %d, skipped %d, failed %d\n",
		len(r.Imported), r.Duplicates, r.Skipped, r.Failed)
}
