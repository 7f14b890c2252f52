package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/config"
	"github.com/msalah0e/castgraph/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				shown := *cfg
				if shown.TMDB.APIKey != "" {
					shown.TMDB.APIKey = maskKey(shown.TMDB.APIKey)
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.Path())
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file if none exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.EnsureExists(); err != nil {
					return err
				}
				ui.Good.Printf("  %s Config at %s\n", ui.StatusIcon(true), config.Path())
				return nil
			},
		},
	)
	return cmd
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
