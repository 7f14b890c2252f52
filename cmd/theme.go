package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/prefs"
	"github.com/msalah0e/castgraph/internal/ui"
)

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{prefs.ThemeDark, prefs.ThemeLight, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println(prefs.Load().Theme)
				return nil
			}

			theme := args[0]
			if theme == "toggle" {
				next, err := prefs.Toggle()
				if err != nil {
					return err
				}
				theme = next
			} else if err := prefs.SetTheme(theme); err != nil {
				return err
			}
			ui.Good.Printf("  %s Theme set to %s\n", ui.StatusIcon(true), theme)
			return nil
		},
	}
}
