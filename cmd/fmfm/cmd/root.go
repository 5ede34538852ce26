// Package cmd provides the fmfm CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
	"fmfm/internal/config"
	"fmfm/internal/contextutil"
)

// opener opens the configured library.
type opener func(ctx context.Context) (*app.App, error)

// NewRootCmd creates the root command for the fmfm CLI.
func NewRootCmd() *cobra.Command {
	var cfg *config.Config
	open := func(ctx context.Context) (*app.App, error) {
		return app.Open(ctx, cfg)
	}

	cmd := &cobra.Command{
		Use:   "fmfm",
		Short: "Personal document library",
		Long: `fmfm keeps numbered PDF, image-archive, EPUB and Markdown documents
with a full-text index that handles Japanese text.

Configuration comes from the environment, a .env file and the YAML file
named by FMFM_CONFIG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded

			logger := app.NewLogger(cmd.ErrOrStderr(), cfg)
			slog.SetDefault(logger)
			cmd.SetContext(contextutil.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	cmd.AddCommand(newImportCmd(open))
	cmd.AddCommand(newRemoveCmd(open))
	cmd.AddCommand(newRefreshCmd(open, "update", "Re-extract entries", false))
	cmd.AddCommand(newRefreshCmd(open, "update-title", "Re-extract entries and take titles from document metadata", true))
	cmd.AddCommand(newSearchCmd(open))
	cmd.AddCommand(newStatsCmd(open))
	cmd.AddCommand(newServeCmd(open))

	return cmd
}

// withApp opens the library for the duration of fn.
func withApp(cmd *cobra.Command, open opener, fn func(context.Context, *app.App) error) error {
	ctx := cmd.Context()
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx, a)
}

// parseNumbers parses entry numbers from args.
func parseNumbers(args []string) ([]int64, error) {
	numbers := make([]int64, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%q is not an entry number", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
