package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/renanlido/agentic-development-kit-sub001/internal/featurestate"
)

// FeatureCompletion completes the first argument with tracked feature names
func FeatureCompletion(store func() *featurestate.Store) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		s := store()
		if s == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names, err := s.List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var completions []string
		for _, name := range names {
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
				completions = append(completions, name)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// PhaseCompletion completes phase names for `adk track`
func PhaseCompletion(phases []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var completions []string
		for _, phase := range phases {
			if strings.HasPrefix(phase, strings.ToLower(toComplete)) {
				completions = append(completions, phase)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}
