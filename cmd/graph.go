package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/graph"
	"github.com/msalah0e/castgraph/internal/history"
	"github.com/msalah0e/castgraph/internal/layout"
	"github.com/msalah0e/castgraph/internal/logger"
	"github.com/msalah0e/castgraph/internal/prefs"
	"github.com/msalah0e/castgraph/internal/ui"
)

func graphCmd() *cobra.Command {
	var (
		from, to int
		limit    int
		htmlOut  string
		asDOT    bool
		asJSON   bool
		top      int
	)

	cmd := &cobra.Command{
		Use:     "graph <actor>",
		Aliases: []string{"g", "costars"},
		Short:   "Build an actor's co-star graph",
		Long: `Aggregate everyone who shared a movie with an actor, optionally within a
year range, and lay the result out as a force-directed graph.

<actor> is a TMDB person id or a name (the best search match is used).

  castgraph graph 6384
  castgraph graph "keanu reeves" --from 1999 --to 2003
  castgraph graph 6384 --html keanu.html
  castgraph graph 6384 --dot | dot -Tsvg > keanu.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("graph")
			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}
			focal, err := resolveActor(ctx, svc, args[0])
			if err != nil {
				return err
			}

			c := *cfg
			if limit > 0 {
				c.Aggregate.Limit = limit
			}
			ex, err := explore(ctx, svc, &c, log, focal, from, to)
			if err != nil {
				return err
			}
			if err := history.Open(history.DefaultPath()).Record(ex.Focal, ex.Range); err != nil {
				log.Debugw("history not recorded", "error", err)
			}

			switch {
			case asJSON:
				data, err := ex.Graph.ExportJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			case asDOT:
				fmt.Print(ex.Graph.ExportDOT())
				return nil
			}

			if htmlOut != "" {
				title := fmt.Sprintf("%s %d-%d", ex.Focal.Name, ex.Range.Min, ex.Range.Max)
				page := ex.Graph.ExportHTML(title, graph.Theme(prefs.Load().Theme), layout.PaintRadius)
				if err := os.WriteFile(htmlOut, []byte(page), 0o644); err != nil {
					return errors.Wrapf(err, "write %s", htmlOut)
				}
			}

			ui.Banner(fmt.Sprintf("co-stars of %s", ex.Focal.Name))
			fmt.Printf("  %s  %d-%d %s\n", ui.Brand.Sprintf("%-12s", "Years"), ex.Range.Min, ex.Range.Max,
				ui.Subtle.Sprintf("(career %d-%d)", ex.Bounds.Min, ex.Bounds.Max))
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Movies"), ex.Stats.Movies)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-12s", "Co-stars"), ex.Stats.Distinct)
			fmt.Printf("  %s  %d ticks\n", ui.Brand.Sprintf("%-12s", "Layout"), ex.Ticks)
			fmt.Println()

			if len(ex.Colleagues) == 0 {
				fmt.Println("  No co-stars with portraits in this range.")
				return nil
			}

			maxCount := ex.Graph.MaxCount()
			shown := ex.Colleagues
			if top > 0 && len(shown) > top {
				shown = shown[:top]
			}
			var rows [][]string
			for _, cc := range shown {
				rows = append(rows, []string{
					strconv.Itoa(cc.Actor.ID),
					ui.Truncate(cc.Actor.Name, 28),
					strconv.Itoa(cc.Count),
					ui.Bar(cc.Count, maxCount, 20),
				})
			}
			ui.Table([]string{"ID", "Name", "Shared", ""}, rows)

			if len(ex.Colleagues) > len(shown) {
				fmt.Printf("\n  %d more · `--top 0` to list everyone\n", len(ex.Colleagues)-len(shown))
			}
			if ex.Stats.Failed > 0 {
				ui.Warn.Printf("\n  %s %d of %d movies could not be loaded\n", ui.WarnIcon(), ex.Stats.Failed, ex.Stats.Movies)
			}
			if htmlOut != "" {
				ui.Good.Printf("\n  %s Wrote %s\n", ui.StatusIcon(true), htmlOut)
			}
			return nil
		},
	}

	cmd.ValidArgsFunction = recentActors(1)
	cmd.Flags().IntVar(&from, "from", 0, "First year to include (default: first movie)")
	cmd.Flags().IntVar(&to, "to", 0, "Last year to include (default: latest movie)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum co-stars in the graph (default from config)")
	cmd.Flags().IntVar(&top, "top", 25, "Co-stars to list in the table")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Write a standalone HTML page to this file")
	cmd.Flags().BoolVar(&asDOT, "dot", false, "Print Graphviz DOT")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the laid-out graph as JSON")
	cmd.MarkFlagsMutuallyExclusive("dot", "json")
	return cmd
}
