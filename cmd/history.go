package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/history"
	"github.com/msalah0e/castgraph/internal/ui"
)

func historyCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"recent"},
		Short:   "Show recently explored actors",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := history.Open(history.DefaultPath()).Recent(count)
			if err != nil {
				return err
			}
			ui.Banner("recent actors")
			if len(entries) == 0 {
				fmt.Println("  Nothing explored yet.")
				fmt.Println("  History is recorded by `castgraph graph` and `castgraph serve`")
				return nil
			}
			printHistory(entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "Entries to show")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <query>",
			Short: "Search history by actor name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				results, err := history.Open(history.DefaultPath()).Search(args[0], 50)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Printf("  No entries matching %q\n", args[0])
					return nil
				}
				ui.Banner("history search")
				printHistory(results)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Clear the history",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := history.Open(history.DefaultPath()).Clear(); err != nil {
					return err
				}
				ui.Good.Printf("  %s History cleared\n", ui.StatusIcon(true))
				return nil
			},
		},
	)
	return cmd
}

func printHistory(entries []history.Entry) {
	var rows [][]string
	for _, e := range entries {
		years := "-"
		if e.FromYear > 0 {
			years = fmt.Sprintf("%d-%d", e.FromYear, e.ToYear)
		}
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			strconv.Itoa(e.ActorID),
			ui.Truncate(e.Name, 32),
			years,
		})
	}
	ui.Table([]string{"Time", "ID", "Name", "Years"}, rows)
	fmt.Printf("\n  %d entries\n", len(entries))
}
