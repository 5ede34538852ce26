package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fmfm/internal/app"
	"fmfm/internal/search"
)

type searchOptions struct {
	tag     string
	page    int
	perPage int
}

func newSearchCmd(open opener) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the library",
		Long: `Search entry text and titles. Words are ANDed; Japanese text is
matched by character bigrams.

Examples:
  fmfm search 国家公務員
  fmfm search "annual report" --tag work`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				perPage := opts.perPage
				if perPage < 1 {
					perPage = a.Config.PerPageSearch
				}
				page, err := a.Library.Search(ctx, search.Request{
					Query:   query,
					Tag:     opts.tag,
					Page:    opts.page,
					PerPage: perPage,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, r := range page.Results {
					fmt.Fprintln(out, r.String())
				}
				fmt.Fprintf(out, "%d results (page %d)\n", page.Total, page.Page)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.tag, "tag", "t", "", "Only entries whose tags contain this text")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Result page")
	cmd.Flags().IntVarP(&opts.perPage, "per-page", "n", 0, "Results per page (default PER_PAGE_SEARCH)")

	return cmd
}
