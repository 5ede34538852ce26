package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
)

func newServeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}
