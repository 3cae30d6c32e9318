package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/cli"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

func phaseNames() []string {
	names := make([]string, len(backend.Phases))
	for i, p := range backend.Phases {
		names[i] = string(p)
	}
	return names
}

// newTrackCmd records local phase and progress for a feature
func newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <feature> <phase> [progress]",
		Short: "Record the local phase and progress of a feature",
		Long: `Create or update the local sync state of a feature. The feature is
marked pending so the next sync pushes it.

Phases: prd, research, tasks, implement, qa, docs

Examples:
  adk track auth implement 40
  adk track auth qa`,
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: cli.PhaseCompletion(phaseNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := backend.ParsePhase(args[1])
			if err != nil {
				return utils.ErrInvalidPhase(args[1], phaseNames())
			}

			progress := 0
			if len(args) == 3 {
				progress, err = strconv.Atoi(args[2])
				if err != nil || progress < 0 || progress > 100 {
					return fmt.Errorf("progress must be a number between 0 and 100, got %q", args[2])
				}
			}

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			state, err := a.Store().Track(args[0], phase, progress)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s %d%% (%s)\n", state.Name, state.Phase, state.Progress, state.SyncStatus)
			return nil
		},
	}
}
