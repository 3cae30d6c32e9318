package app

import (
	"fmt"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/conflict"
	"github.com/renanlido/agentic-development-kit-sub001/internal/config"
	"github.com/renanlido/agentic-development-kit-sub001/internal/credentials"
	"github.com/renanlido/agentic-development-kit-sub001/internal/featurestate"
	"github.com/renanlido/agentic-development-kit-sub001/internal/queue"
	"github.com/renanlido/agentic-development-kit-sub001/internal/sync"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"

	// registered providers
	_ "github.com/renanlido/agentic-development-kit-sub001/backend/file"
	_ "github.com/renanlido/agentic-development-kit-sub001/backend/todoist"
)

// App holds the application state for one invocation
type App struct {
	config       *config.Config
	store        *featurestate.Store
	queue        *queue.Queue
	resolver     *credentials.Resolver
	orchestrator *sync.Orchestrator
	queueLog     *utils.BackgroundLogger
}

// Options tweak how NewApp wires dependencies
type Options struct {
	// NewProvider overrides the backend registry lookup
	NewProvider sync.ProviderFactory

	// Tokens overrides the credential resolver
	Tokens sync.TokenSource

	// QueueLog enables the per-process queue replay log
	QueueLog bool
}

// NewApp wires the feature store, queue, credentials and orchestrator from cfg
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	featuresDir, err := cfg.FeaturesPath()
	if err != nil {
		return nil, fmt.Errorf("invalid features_dir: %w", err)
	}

	q, err := openQueue(cfg)
	if err != nil {
		return nil, err
	}

	envFile, err := cfg.EnvFilePath()
	if err != nil {
		q.Close()
		return nil, fmt.Errorf("invalid env_file: %w", err)
	}

	a := &App{
		config:   cfg,
		store:    featurestate.NewStore(featuresDir),
		queue:    q,
		resolver: credentials.NewResolver(envFile),
	}

	if opts.QueueLog {
		bg, err := utils.NewBackgroundLogger()
		if err != nil {
			utils.Debugf("Queue log disabled: %v", err)
		}
		a.queueLog = bg
	}

	var tokens sync.TokenSource = a.resolver
	if opts.Tokens != nil {
		tokens = opts.Tokens
	}

	a.orchestrator, err = sync.New(sync.Options{
		Store:       a.store,
		Queue:       a.queue,
		Settings:    Settings(cfg),
		Tokens:      tokens,
		NewProvider: opts.NewProvider,
		QueueLog:    a.queueLog,
	})
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to create sync orchestrator: %w", err)
	}
	return a, nil
}

// Settings maps the integration config onto orchestrator settings
func Settings(cfg *config.Config) sync.Settings {
	in := cfg.Integration

	strategy, err := conflict.ParseStrategy(in.ConflictStrategy)
	if err != nil {
		// ResolveConflicts treats an unrecognized strategy as manual
		utils.Warnf("%v", err)
		strategy = conflict.Strategy(in.ConflictStrategy)
	}

	return sync.Settings{
		Enabled:  in.Enabled,
		Provider: in.Provider,
		Strategy: strategy,
		Credentials: backend.Credentials{
			WorkspaceID: in.WorkspaceID,
			SpaceID:     in.SpaceID,
			ListID:      in.ListID,
		},
		ProviderConfig: backend.ProviderConfig{
			BaseURL: in.BaseURL,
			Path:    cfg.Providers.File.Path,
		},
	}
}

func openQueue(cfg *config.Config) (*queue.Queue, error) {
	path, err := cfg.QueuePath()
	if err != nil {
		return nil, err
	}

	switch cfg.QueueStorage() {
	case config.QueueStorageSQLite:
		store, err := queue.OpenSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sync queue: %w", err)
		}
		return queue.New(store), nil
	default:
		return queue.New(queue.NewJSONFileStore(path)), nil
	}
}

// Config returns the loaded configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Store returns the feature state store
func (a *App) Store() *featurestate.Store {
	return a.store
}

// Queue returns the offline retry queue
func (a *App) Queue() *queue.Queue {
	return a.queue
}

// Resolver returns the credential resolver
func (a *App) Resolver() *credentials.Resolver {
	return a.resolver
}

// Orchestrator returns the sync orchestrator
func (a *App) Orchestrator() *sync.Orchestrator {
	return a.orchestrator
}

// QueueLogPath returns the queue replay log file, "" when disabled
func (a *App) QueueLogPath() string {
	return a.queueLog.GetLogPath()
}

// Shutdown releases the queue storage and log file
func (a *App) Shutdown() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			utils.Warnf("Failed to close sync queue: %v", err)
		}
	}
	if err := a.queueLog.Close(); err != nil {
		utils.Debugf("Failed to close queue log: %v", err)
	}
}
