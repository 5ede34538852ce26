package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
)

// newRefreshCmd builds update and update-title, which differ only in
// whether titles are taken from document metadata.
func newRefreshCmd(open opener, use, short string, extractTitle bool) *cobra.Command {
	var (
		all  bool
		jobs int
	)

	cmd := &cobra.Command{
		Use:   use + " [number...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("give entry numbers or --all, not both")
			case !all && len(args) == 0:
				return errors.New("no entry numbers given (use --all to refresh every entry)")
			}
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if err := a.Library.RefreshAll(ctx, numbers, extractTitle, jobs); err != nil {
					return err
				}
				if all {
					fmt.Fprintln(cmd.OutOrStdout(), "refreshed every entry")
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d entries\n", len(numbers))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Refresh every entry")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Parallel refreshes (default REFRESH_JOBS)")

	return cmd
}
