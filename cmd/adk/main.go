package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renanlido/agentic-development-kit-sub001/internal/app"
	"github.com/renanlido/agentic-development-kit-sub001/internal/cli"
	"github.com/renanlido/agentic-development-kit-sub001/internal/config"
	"github.com/renanlido/agentic-development-kit-sub001/internal/featurestate"
	"github.com/renanlido/agentic-development-kit-sub001/internal/sync"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// loadConfig is replaced in tests
var loadConfig = config.GetConfig

// appOptions is replaced in tests to inject a provider
var appOptions = func(queueLog bool) app.Options {
	return app.Options{QueueLog: queueLog}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "adk",
		Short: "Agentic development kit",
		Long: `adk tracks the phase and progress of features under development and
mirrors that state into a remote project tracker.

Examples:
  adk track auth implement 40     # Record local progress
  adk sync auth                   # Push one feature
  adk sync                        # Replay the offline queue, then push everything
  adk sync status                 # Show per-feature sync state`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.SetVerboseMode(verbose)
			if configPath != "" {
				config.SetCustomConfigPath(configPath)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file or directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newTrackCmd())
	rootCmd.AddCommand(newCredentialsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// openApp loads configuration and wires the application
func openApp(queueLog bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg, appOptions(queueLog))
}

// completionStore opens the feature store without touching the queue
func completionStore() *featurestate.Store {
	cfg, err := loadConfig()
	if err != nil {
		return nil
	}
	dir, err := cfg.FeaturesPath()
	if err != nil {
		return nil
	}
	return featurestate.NewStore(dir)
}

// reportConnectError turns "sync is not set up" into an informational
// message with a zero exit status and passes every other error through
func reportConnectError(cmd *cobra.Command, err error) error {
	if sync.IsConfigurationAbsent(err) {
		cli.Info(cmd.OutOrStdout(), "%v", err)
		return nil
	}
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
