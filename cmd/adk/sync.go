package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renanlido/agentic-development-kit-sub001/internal/cli"
	"github.com/renanlido/agentic-development-kit-sub001/internal/sync"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// newSyncCmd creates the sync command with all subcommands
func newSyncCmd() *cobra.Command {
	var force bool
	var checkConflicts bool
	var output string

	syncCmd := &cobra.Command{
		Use:   "sync [feature]",
		Short: "Synchronize feature state with the remote tracker",
		Long: `Push local feature state to the configured provider.

With a feature name only that feature is pushed. A provider error queues
the push for replay on a later run. With --check-conflicts the remote
record is compared first and the configured conflict strategy applies;
the manual strategy writes sync-conflicts.md next to the feature instead
of pushing.

Without a feature name the offline queue is replayed first, then every
feature that is not already synced is pushed (--force pushes all of them).

Examples:
  adk sync auth                     # Push one feature
  adk sync auth --check-conflicts   # Compare with the remote first
  adk sync                          # Replay queue, then push pending features
  adk sync --force                  # Push every tracked feature

  adk sync status                   # Show sync state per feature
  adk sync queue                    # Show queued operations
  adk sync queue process            # Replay the queue now
  adk sync queue clear              # Drop all queued operations`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: cli.FeatureCompletion(completionStore),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseFormat(output)
			if err != nil {
				return err
			}

			a, err := openApp(len(args) == 0)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			orch := a.Orchestrator()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				var res *sync.FeatureResult
				if checkConflicts {
					res, err = orch.SyncWithConflictCheck(ctx, args[0])
				} else {
					res, err = orch.SyncSingleFeature(ctx, args[0])
				}
				if err != nil {
					return reportConnectError(cmd, err)
				}

				if format != utils.FormatText {
					if err := utils.WriteStructured(out, format, res); err != nil {
						return err
					}
				} else {
					cli.PrintFeatureResult(out, *res)
				}

				switch res.Outcome {
				case sync.OutcomeFailed, sync.OutcomeNotFound:
					return fmt.Errorf("sync of %s %s", res.Feature, res.Outcome)
				}
				return nil
			}

			queued, err := orch.ProcessQueue(ctx)
			if err != nil {
				return reportConnectError(cmd, err)
			}
			bulk, err := orch.SyncAllFeatures(ctx, force)
			if err != nil {
				return err
			}

			if format != utils.FormatText {
				if err := utils.WriteStructured(out, format, struct {
					Queue *sync.QueueResult `json:"queue" yaml:"queue"`
					Sync  *sync.BulkResult  `json:"sync" yaml:"sync"`
				}{queued, bulk}); err != nil {
					return err
				}
			} else {
				if queued.Processed > 0 {
					cli.PrintQueueResult(out, queued)
				}
				cli.PrintBulkResult(out, bulk)
				if path := a.QueueLogPath(); path != "" && queued.Processed > 0 {
					utils.Debugf("Queue replay log: %s", path)
				}
			}

			if bulk.Failed > 0 {
				return fmt.Errorf("%d feature(s) failed to sync", bulk.Failed)
			}
			return nil
		},
	}

	syncCmd.Flags().BoolVarP(&force, "force", "f", false, "Push features that are already synced")
	syncCmd.Flags().BoolVar(&checkConflicts, "check-conflicts", false, "Compare with the remote record before pushing")
	syncCmd.Flags().StringVarP(&output, "output", "o", utils.FormatText, "Output format: text, json, yaml")

	syncCmd.AddCommand(newSyncStatusCmd())
	syncCmd.AddCommand(newSyncQueueCmd())

	return syncCmd
}

// newSyncStatusCmd creates the 'sync status' command
func newSyncStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		Long: `Display the sync state of every tracked feature:
- Phase and progress
- Sync status (pending, synced, error) and the last error
- Linked remote record and last sync time
- Queued operations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseFormat(output)
			if err != nil {
				return err
			}

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			report, err := sync.Status(a.Store(), a.Queue())
			if err != nil {
				return err
			}

			if format != utils.FormatText {
				return utils.WriteStructured(cmd.OutOrStdout(), format, report)
			}
			if !a.Config().Integration.Enabled {
				cli.Info(cmd.OutOrStdout(), "Sync is not enabled in configuration")
			}
			cli.PrintStatus(cmd.OutOrStdout(), report, cli.GetTerminalWidth())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", utils.FormatText, "Output format: text, json, yaml")
	return cmd
}

// newSyncQueueCmd creates the 'sync queue' command with subcommands
func newSyncQueueCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show pending sync operations",
		Long: `Display operations waiting in the offline queue, oldest first.

Subcommands:
  process   Replay the queue now
  clear     Drop every queued operation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseFormat(output)
			if err != nil {
				return err
			}

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ops := a.Queue().GetAll()
			if format != utils.FormatText {
				return utils.WriteStructured(cmd.OutOrStdout(), format, ops)
			}
			cli.PrintQueue(cmd.OutOrStdout(), ops)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", utils.FormatText, "Output format: text, json, yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every queued operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			count := a.Queue().GetPendingCount()
			if err := utils.LogOperation("clear sync queue", a.Queue().Clear); err != nil {
				return fmt.Errorf("failed to clear queue: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d queued operation(s)\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "process",
		Short: "Replay queued operations now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			res, err := a.Orchestrator().ProcessQueue(cmd.Context())
			if err != nil {
				return reportConnectError(cmd, err)
			}
			cli.PrintQueueResult(cmd.OutOrStdout(), res)
			if path := a.QueueLogPath(); path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", path)
			}
			return nil
		},
	})

	return cmd
}
