package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/selection"
	"github.com/msalah0e/castgraph/internal/tmdb"
	"github.com/msalah0e/castgraph/internal/ui"
)

func sharedCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "shared <actor> <other>",
		Aliases: []string{"together"},
		Short:   "List the movies two actors appeared in together",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}
			focal, err := resolveActor(ctx, svc, args[0])
			if err != nil {
				return err
			}
			other, err := resolveActor(ctx, svc, args[1])
			if err != nil {
				return err
			}
			sf, err := selection.NewInspector(svc).Shared(ctx, focal, other.ID)
			if err != nil {
				return err
			}

			if asJSON {
				data, _ := json.MarshalIndent(sf, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			ui.Banner(fmt.Sprintf("%s & %s", sf.Focal.Name, sf.Other.Name))
			if len(sf.Movies) == 0 {
				fmt.Println("  They have not appeared in a movie together.")
				return nil
			}
			var rows [][]string
			for _, m := range sf.Movies {
				year := "-"
				if y, ok := m.Year(); ok {
					year = fmt.Sprint(y)
				}
				rows = append(rows, []string{year, ui.Truncate(m.Title, 44), tmdb.MovieURL(m.MovieID)})
			}
			ui.Table([]string{"Year", "Title", "TMDB"}, rows)
			fmt.Printf("\n  %d shared movies\n", len(sf.Movies))
			return nil
		},
	}

	cmd.ValidArgsFunction = recentActors(2)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the shared filmography as JSON")
	return cmd
}
