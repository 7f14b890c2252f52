package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/tmdb"
	"github.com/msalah0e/castgraph/internal/ui"
)

func timelineCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "timeline <actor>",
		Aliases: []string{"filmography", "movies"},
		Short:   "List an actor's movies in release order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}
			d, err := resolveActor(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			credits := tmdb.Timeline(d.Filmography)

			if asJSON {
				data, _ := json.MarshalIndent(credits, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			ui.Banner(fmt.Sprintf("timeline of %s", d.Name))
			if len(credits) == 0 {
				fmt.Println("  No dated movies.")
				return nil
			}
			var rows [][]string
			for _, c := range credits {
				year, _ := c.Year()
				rows = append(rows, []string{
					fmt.Sprint(year),
					ui.Truncate(c.Title, 40),
					ui.Truncate(c.Character, 24),
				})
			}
			ui.Table([]string{"Year", "Title", "Character"}, rows)
			fmt.Printf("\n  %d movies · %s\n", len(credits), tmdb.PersonURL(d.ID))
			return nil
		},
	}

	cmd.ValidArgsFunction = recentActors(1)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the timeline as JSON")
	return cmd
}
