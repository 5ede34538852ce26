package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
)

func newRemoveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <number>...",
		Short: "Remove entries with their files and index rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				var errs []error
				for _, n := range numbers {
					if err := a.Library.Remove(ctx, n); err != nil {
						errs = append(errs, fmt.Errorf("remove %d: %w", n, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed #%d\n", n)
				}
				return errors.Join(errs...)
			})
		},
	}
}
