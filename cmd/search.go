package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/tmdb"
	"github.com/msalah0e/castgraph/internal/ui"
)

func searchCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "search <name...>",
		Aliases: []string{"s", "find"},
		Short:   "Search actors by name",
		Long: `Search TMDB for actors. Results are ranked by how closely the name
matches the query. Queries shorter than 3 characters are ignored.

  castgraph search keanu
  castgraph search "carrie anne" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := tmdb.Search(cmd.Context(), svc, query)
			if err != nil {
				return err
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			if asJSON {
				data, _ := json.MarshalIndent(results, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			ui.Banner(fmt.Sprintf("search results for %q", query))
			if len(results) == 0 {
				if len([]rune(query)) < tmdb.MinQueryLength {
					fmt.Printf("  Queries need at least %d characters.\n", tmdb.MinQueryLength)
				} else {
					fmt.Println("  No actors found matching your query.")
				}
				return nil
			}

			var rows [][]string
			for _, a := range results {
				rows = append(rows, []string{
					strconv.Itoa(a.ID),
					ui.Truncate(a.Name, 32),
					fmt.Sprintf("%.1f", a.Popularity),
					tmdb.PersonURL(a.ID),
				})
			}
			ui.Table([]string{"ID", "Name", "Popularity", "TMDB"}, rows)
			fmt.Printf("\n  %d results · `castgraph graph <id>` to explore\n", len(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results to show")
	return cmd
}
