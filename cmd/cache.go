package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/cache"
	"github.com/msalah0e/castgraph/internal/ui"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk TMDB response cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "dir",
			Short: "Print the cache directory",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(cache.Dir())
			},
		},
		&cobra.Command{
			Use:   "size",
			Short: "Show how much the cache holds",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.Open(cache.Dir(), cfg.TMDB.CacheTTL())
				if err != nil {
					return err
				}
				n, bytes := store.Size()
				ui.Banner("cache")
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "Dir"), store.Dir())
				fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-10s", "Entries"), n)
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "Size"), humanBytes(bytes))
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "TTL"), cfg.TMDB.CacheTTL())
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached response",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.Open(cache.Dir(), cfg.TMDB.CacheTTL())
				if err != nil {
					return err
				}
				n, err := store.Clear()
				if err != nil {
					return err
				}
				ui.Good.Printf("  %s Removed %d cached responses\n", ui.StatusIcon(true), n)
				return nil
			},
		},
	)

	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
