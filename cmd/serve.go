package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/history"
	"github.com/msalah0e/castgraph/internal/logger"
	"github.com/msalah0e/castgraph/internal/metrics"
	"github.com/msalah0e/castgraph/internal/prefs"
	"github.com/msalah0e/castgraph/internal/server"
	"github.com/msalah0e/castgraph/internal/ui"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui", "explore"},
		Short:   "Run the interactive graph explorer in the browser",
		Long: `Start a local web server hosting the explorer. Search for an actor, drag
the year range, click a co-star to see your shared movies and double-click
to recenter the graph on them.

  castgraph serve
  castgraph serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			m := metrics.NewRegistry()
			svc, err := newService(cfg, m)
			if err != nil {
				return err
			}

			srv := server.New(svc, cfg, server.Options{
				Logger:   logger.Named("serve"),
				Metrics:  m,
				Recorder: history.Open(history.DefaultPath()),
				Theme:    func() string { return prefs.Load().Theme },
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.Banner("explorer")
			fmt.Printf("  %s  http://%s\n", ui.Brand.Sprintf("%-10s", "Open"), addr)
			fmt.Printf("  %s  http://%s/metrics\n", ui.Brand.Sprintf("%-10s", "Metrics"), addr)
			fmt.Println(ui.Subtle.Sprint("  Ctrl+C to stop"))
			fmt.Println()

			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
