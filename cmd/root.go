package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/logger"
	"github.com/msalah0e/castgraph/internal/ui"
)

var version = "0.3.0"

var (
	verbose  bool
	jsonLogs bool
	noColor  bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "castgraph",
	Short: "castgraph: explore who an actor has worked with",
	Long: ui.Brand.Sprint(ui.Clapper+" castgraph") + ": map an actor's co-stars as a force-directed graph\n" +
		ui.Subtle.Sprint("Search TMDB, filter by years, and explore shared filmographies"),
	Version:       version + " " + ui.Clapper,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs, verbose); err != nil {
			return err
		}
		cfg = config.Load()
		ui.SetColor(cfg.UI.Color && !noColor && os.Getenv("NO_COLOR") == "")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("castgraph {{ .Version }}\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		searchCmd(),
		graphCmd(),
		timelineCmd(),
		sharedCmd(),
		serveCmd(),
		themeCmd(),
		historyCmd(),
		cacheCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		printError(err)
	}
	return err
}
