package cmd

import (
	"io"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/msalah0e/castgraph/internal/history"
	"github.com/msalah0e/castgraph/internal/logger"
)

// completionScripts maps a shell to its completion generator.
var completionScripts = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

func completionShells() []string {
	shells := make([]string, 0, len(completionScripts))
	for s := range completionScripts {
		shells = append(shells, s)
	}
	sort.Strings(shells)
	return shells
}

// completionCmd prints a completion script. Actor arguments complete from
// the selection history.
func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for bash, zsh, fish or powershell.

  eval "$(castgraph completion bash)"
  castgraph completion fish | source

Actor arguments of graph, timeline and shared complete to recently explored
actors.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: completionShells(),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := completionScripts[args[0]]
			if !ok {
				return errors.Newf("unsupported shell %q", args[0])
			}
			return gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// recentActors offers history entries as "id\tname" candidates for the
// first n actor arguments.
func recentActors(n int) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return actorCandidates(history.Open(history.DefaultPath()), args), cobra.ShellCompDirectiveNoFileComp
	}
}

func actorCandidates(log *history.Log, taken []string) []string {
	entries, err := log.Recent(50)
	if err != nil {
		logger.Named("completion").Debugw("history unavailable", "error", err)
		return nil
	}
	skip := make(map[string]bool, len(taken))
	for _, a := range taken {
		skip[a] = true
	}
	var out []string
	for _, e := range entries {
		id := strconv.Itoa(e.ActorID)
		if skip[id] {
			continue
		}
		out = append(out, id+"\t"+e.Name)
	}
	return out
}
