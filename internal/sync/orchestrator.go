// Package sync reconciles local feature state with the configured remote
// provider. Failed pushes are parked in the offline queue and replayed by
// ProcessQueue on a later invocation.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/conflict"
	"github.com/renanlido/agentic-development-kit-sub001/internal/credentials"
	"github.com/renanlido/agentic-development-kit-sub001/internal/featurestate"
	"github.com/renanlido/agentic-development-kit-sub001/internal/queue"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// ProviderFactory builds a provider by registered name
type ProviderFactory func(name string, cfg backend.ProviderConfig) (backend.Provider, error)

// TokenSource resolves the API token for a provider
type TokenSource interface {
	Resolve(provider string) (*credentials.Token, error)
}

// Settings is the integration configuration the orchestrator needs
type Settings struct {
	Enabled  bool
	Provider string
	Strategy conflict.Strategy

	// Credentials minus the token, which comes from the TokenSource
	Credentials    backend.Credentials
	ProviderConfig backend.ProviderConfig
}

// Options wires an Orchestrator
type Options struct {
	Store    *featurestate.Store
	Queue    *queue.Queue
	Settings Settings
	Tokens   TokenSource

	// NewProvider defaults to backend.NewProvider
	NewProvider ProviderFactory

	// QueueLog receives queue replay activity; nil disables it
	QueueLog *utils.BackgroundLogger

	Now func() time.Time
}

// Orchestrator drives single, bulk and conflict-aware syncs and queue replay.
// It is not safe for concurrent use; one CLI invocation owns one orchestrator.
type Orchestrator struct {
	store       *featurestate.Store
	queue       *queue.Queue
	settings    Settings
	tokens      TokenSource
	newProvider ProviderFactory
	queueLog    *utils.BackgroundLogger
	now         func() time.Time

	provider backend.Provider
}

// New creates an orchestrator. It does not connect.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("feature state store is required")
	}
	if opts.Queue == nil {
		return nil, fmt.Errorf("sync queue is required")
	}

	o := &Orchestrator{
		store:       opts.Store,
		queue:       opts.Queue,
		settings:    opts.Settings,
		tokens:      opts.Tokens,
		newProvider: opts.NewProvider,
		queueLog:    opts.QueueLog,
		now:         opts.Now,
	}
	if o.newProvider == nil {
		o.newProvider = backend.NewProvider
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.settings.Strategy == "" {
		o.settings.Strategy = conflict.LocalWins
	}
	return o, nil
}

// Strategy returns the configured conflict strategy
func (o *Orchestrator) Strategy() conflict.Strategy {
	return o.settings.Strategy
}

// Provider returns the connected provider, or nil before Connect
func (o *Orchestrator) Provider() backend.Provider {
	return o.provider
}

// Connect resolves the provider and token and performs the handshake.
// Nothing reaches the network when configuration or the token is missing.
// Calling Connect again after success is a no-op.
func (o *Orchestrator) Connect(ctx context.Context) error {
	if o.provider != nil {
		return nil
	}

	if !o.settings.Enabled {
		return connectError(ErrIntegrationDisabled, utils.ErrSyncNotEnabled())
	}
	name := strings.TrimSpace(o.settings.Provider)
	if name == "" {
		return connectError(ErrProviderNotConfigured, utils.ErrProviderNotConfigured())
	}

	cfg := o.settings.ProviderConfig
	cfg.Name = name
	provider, err := o.newProvider(name, cfg)
	if err != nil {
		var unknown *backend.UnknownProviderError
		if errors.As(err, &unknown) {
			return connectError(ErrUnknownProvider, utils.ErrUnknownProvider(name, backend.ProviderNames()))
		}
		return connectError(ErrProviderNotConfigured, utils.WrapWithSuggestion(
			fmt.Errorf("failed to create provider %q: %w", name, err),
			"Check the provider settings in your config file",
		))
	}

	if o.tokens == nil {
		return connectError(ErrTokenMissing, utils.ErrTokenNotFound(name, credentials.TokenEnvKey(name)))
	}
	token, err := o.tokens.Resolve(name)
	if err != nil || token == nil || token.Value == "" {
		utils.Debugf("Token resolution for %s failed: %v", name, err)
		return connectError(ErrTokenMissing, utils.ErrTokenNotFound(name, credentials.TokenEnvKey(name)))
	}
	utils.Debugf("Using %s token from %s (%s)", name, token.Source, credentials.Mask(token.Value))

	creds := o.settings.Credentials
	creds.Token = token.Value
	result, err := provider.Connect(ctx, creds)
	if err != nil {
		return connectionFailed(name, err)
	}
	if result == nil || !result.Success {
		message := "no details"
		if result != nil && result.Message != "" {
			message = result.Message
		}
		return connectionRejected(name, message)
	}

	utils.Debugf("Connected to %s: %s", name, result.Message)
	o.provider = provider
	return nil
}

// SyncSingleFeature pushes one feature. A provider error is recorded on the
// feature and the push is queued for replay; a structured error result is
// recorded but not queued.
func (o *Orchestrator) SyncSingleFeature(ctx context.Context, name string) (*FeatureResult, error) {
	if err := o.Connect(ctx); err != nil {
		return nil, err
	}

	state, result := o.load(name)
	if state == nil {
		return result, nil
	}
	return o.push(ctx, state, true), nil
}

// SyncAllFeatures pushes every tracked feature. Features already synced are
// skipped unless force is set. Failures here are recorded but never queued.
func (o *Orchestrator) SyncAllFeatures(ctx context.Context, force bool) (*BulkResult, error) {
	if err := o.Connect(ctx); err != nil {
		return nil, err
	}

	names, err := o.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}

	bulk := &BulkResult{Features: make([]FeatureResult, 0, len(names))}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return bulk, err
		}

		state, result := o.load(name)
		if state == nil {
			// state vanished or became unreadable between List and Load
			result.Outcome = OutcomeFailed
			bulk.Failed++
			bulk.Features = append(bulk.Features, *result)
			continue
		}

		if state.SyncStatus == backend.SyncStatusSynced && !force {
			utils.Debugf("Skipping %s: already synced", name)
			bulk.Skipped++
			bulk.Features = append(bulk.Features, FeatureResult{
				Feature:  name,
				Outcome:  OutcomeSkipped,
				RemoteID: state.RemoteID,
			})
			continue
		}

		res := o.push(ctx, state, false)
		if res.Outcome == OutcomeSynced {
			bulk.Synced++
		} else {
			bulk.Failed++
		}
		bulk.Features = append(bulk.Features, *res)
	}

	utils.Debugf("Bulk sync: %d synced, %d failed, %d skipped", bulk.Synced, bulk.Failed, bulk.Skipped)
	return bulk, nil
}

// SyncWithConflictCheck compares the feature with its remote record before
// pushing. Under the manual strategy a conflict report is written next to
// the feature and nothing is pushed.
func (o *Orchestrator) SyncWithConflictCheck(ctx context.Context, name string) (*FeatureResult, error) {
	if err := o.Connect(ctx); err != nil {
		return nil, err
	}

	state, result := o.load(name)
	if state == nil {
		return result, nil
	}
	if state.IsNew() {
		utils.Debugf("%s has no remote record yet, nothing to compare", name)
		return o.push(ctx, state, true), nil
	}

	remote, err := o.provider.GetFeature(ctx, state.RemoteID)
	if err != nil {
		utils.Debugf("Fetching remote %s for %s failed: %v", state.RemoteID, name, err)
		return o.failAndQueue(state, err), nil
	}
	if remote == nil {
		utils.Debugf("Remote %s for %s is gone, pushing local state", state.RemoteID, name)
		return o.push(ctx, state, true), nil
	}

	conflicts := conflict.DetectConflicts(state.Local(), *remote)
	if len(conflicts) == 0 {
		return o.push(ctx, state, true), nil
	}

	resolution := conflict.ResolveConflicts(conflicts, o.settings.Strategy)
	utils.Debugf("%s: %d conflict(s) under %s", name, len(conflicts), o.settings.Strategy)

	if resolution.RequiresManualResolution {
		report := conflict.CreateConflictReport(conflicts, resolution)
		path, err := o.store.WriteConflictReport(name, report)
		res := &FeatureResult{
			Feature:    name,
			Outcome:    OutcomeManualPending,
			RemoteID:   state.RemoteID,
			Message:    fmt.Sprintf("%d conflict(s) need manual resolution", len(conflicts)),
			Conflicts:  conflicts,
			Resolution: &resolution,
			ReportPath: path,
		}
		if err != nil {
			utils.Warnf("Failed to write conflict report for %s: %v", name, err)
			res.Message += "; report could not be written: " + err.Error()
		}
		return res, nil
	}

	if winner, ok := resolution.Winner(conflict.FieldPhase); ok && winner == conflict.WinnerRemote && o.settings.Strategy == conflict.RemoteWins {
		if phase, ok := resolution.ResolvedData[conflict.FieldPhase].(backend.Phase); ok && phase.Valid() {
			utils.Debugf("%s: adopting remote phase %s over %s", name, phase, state.Phase)
			state.Phase = phase
		}
	}

	res := o.push(ctx, state, true)
	res.Conflicts = conflicts
	res.Resolution = &resolution
	return res, nil
}

// ProcessQueue replays queued operations in FIFO order, once each. Successes
// are removed. Failures get their retry count bumped, or are evicted once
// they have used their last attempt. Operations for features that no longer
// exist locally are dropped.
func (o *Orchestrator) ProcessQueue(ctx context.Context) (*QueueResult, error) {
	if err := o.Connect(ctx); err != nil {
		return nil, err
	}

	o.queue.Load()
	ops := o.queue.GetAll()
	result := &QueueResult{}
	o.queueLog.Printf("Replaying %d queued operation(s) against %s", len(ops), o.provider.Name())

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			result.Remaining = o.queue.GetPendingCount()
			return result, err
		}
		result.Processed++

		err := o.replay(ctx, op)
		switch {
		case err == nil:
			result.Succeeded++
			o.removeOp(op)
			o.queueLog.Printf("%s succeeded", op)

		case errors.Is(err, featurestate.ErrNotFound):
			result.Dropped++
			o.removeOp(op)
			o.queueLog.Printf("%s dropped: feature no longer tracked", op)

		case op.Exhausted():
			result.Failed++
			result.Evicted++
			o.removeOp(op)
			utils.Warnf("Giving up on %s after %d attempts: %v", op, op.Retries+1, err)
			o.queueLog.Printf("%s evicted: %v", op, err)

		default:
			result.Failed++
			if uerr := o.queue.UpdateRetries(op.ID, op.Retries+1, err.Error()); uerr != nil {
				utils.Warnf("Failed to record retry for %s: %v", op, uerr)
			}
			o.queueLog.Printf("%s failed (retry %d/%d): %v", op, op.Retries+1, queue.MaxRetries, err)
		}
	}

	result.Remaining = o.queue.GetPendingCount()
	utils.Debugf("Queue replay: %d processed, %d succeeded, %d failed, %d remaining",
		result.Processed, result.Succeeded, result.Failed, result.Remaining)
	return result, nil
}

func (o *Orchestrator) replay(ctx context.Context, op queue.Operation) error {
	if op.Type == queue.OpDelete {
		remoteID := op.RemoteID()
		if remoteID == "" {
			return nil
		}
		err := o.provider.DeleteFeature(ctx, remoteID)
		if backend.IsNotFound(err) {
			return nil
		}
		return err
	}

	state, err := o.store.Load(op.Feature)
	if err != nil {
		return err
	}

	remoteID := state.RemoteID
	if remoteID == "" {
		remoteID = op.RemoteID()
	}
	res, err := o.provider.SyncFeature(ctx, state.Local(), remoteID)
	if err != nil {
		return err
	}
	if res == nil || res.Status == backend.SyncStatusError {
		return fmt.Errorf("%s", resultMessage(res))
	}
	if err := o.markSynced(state, res); err != nil {
		utils.Errorf("Synced %s but failed to save its state: %v", op.Feature, err)
	}
	return nil
}

func (o *Orchestrator) removeOp(op queue.Operation) {
	if _, err := o.queue.Remove(op.ID); err != nil {
		utils.Warnf("Failed to remove %s from queue: %v", op, err)
	}
}

// load returns the feature state, or a not-found result when it is missing
func (o *Orchestrator) load(name string) (*featurestate.SyncableProgress, *FeatureResult) {
	state, err := o.store.Load(name)
	if err != nil {
		utils.Debugf("Loading %s: %v", name, err)
		return nil, &FeatureResult{
			Feature: name,
			Outcome: OutcomeNotFound,
			Message: utils.ErrFeatureNotFound(name).Error(),
		}
	}
	return state, nil
}

// push sends the local view and records the outcome on the feature.
// enqueue controls whether a provider error parks the push in the queue.
func (o *Orchestrator) push(ctx context.Context, state *featurestate.SyncableProgress, enqueue bool) *FeatureResult {
	utils.Debugf("Syncing %s (phase=%s progress=%d remote=%q)", state.Name, state.Phase, state.Progress, state.RemoteID)

	res, err := o.provider.SyncFeature(ctx, state.Local(), state.RemoteID)
	if err != nil {
		if enqueue {
			return o.failAndQueue(state, err)
		}
		o.markError(state, err.Error())
		return &FeatureResult{Feature: state.Name, Outcome: OutcomeFailed, RemoteID: state.RemoteID, Message: err.Error()}
	}

	if res == nil || res.Status == backend.SyncStatusError {
		message := resultMessage(res)
		o.markError(state, message)
		return &FeatureResult{Feature: state.Name, Outcome: OutcomeFailed, RemoteID: state.RemoteID, Message: message}
	}

	if err := o.markSynced(state, res); err != nil {
		utils.Errorf("Synced %s but failed to save its state: %v", state.Name, err)
		return &FeatureResult{
			Feature:  state.Name,
			Outcome:  OutcomeFailed,
			RemoteID: res.RemoteID,
			Message:  fmt.Sprintf("synced but failed to save local state: %v", err),
		}
	}
	return &FeatureResult{
		Feature:   state.Name,
		Outcome:   OutcomeSynced,
		RemoteID:  state.RemoteID,
		RemoteURL: res.RemoteURL,
		Message:   res.Message,
	}
}

// failAndQueue records err on the feature and queues a replay of it
func (o *Orchestrator) failAndQueue(state *featurestate.SyncableProgress, cause error) *FeatureResult {
	op := queue.Operation{
		Type:    queue.OpUpdate,
		Feature: state.Name,
		Data: map[string]interface{}{
			"phase":    string(state.Phase),
			"progress": state.Progress,
			"remoteId": state.RemoteID,
		},
	}
	if state.IsNew() {
		op.Type = queue.OpCreate
	}

	res := &FeatureResult{Feature: state.Name, RemoteID: state.RemoteID, Message: cause.Error()}
	queued, err := o.queue.Enqueue(op)
	if err != nil {
		utils.Warnf("Failed to queue %s for retry: %v", state.Name, err)
		res.Outcome = OutcomeFailed
		res.Message = fmt.Sprintf("%v (could not queue for retry: %v)", cause, err)
	} else {
		utils.Debugf("Queued %s after error: %v", queued, cause)
		res.Outcome = OutcomeQueued
	}

	o.markError(state, cause.Error())
	return res
}

func (o *Orchestrator) markError(state *featurestate.SyncableProgress, message string) {
	utils.Debugf("%s: %s -> %s (%s)", state.Name, state.SyncStatus, backend.SyncStatusError, message)
	state.SyncStatus = backend.SyncStatusError
	state.LastError = message
	if err := o.store.Save(state); err != nil {
		utils.Warnf("Failed to record sync error for %s: %v", state.Name, err)
	}
}

func (o *Orchestrator) markSynced(state *featurestate.SyncableProgress, res *backend.SyncResult) error {
	utils.Debugf("%s: %s -> %s (remote=%s)", state.Name, state.SyncStatus, backend.SyncStatusSynced, res.RemoteID)
	state.SyncStatus = backend.SyncStatusSynced
	if res.RemoteID != "" {
		state.RemoteID = res.RemoteID
	}
	if res.LastSynced != nil {
		synced := res.LastSynced.UTC()
		state.LastSynced = &synced
	} else {
		now := o.now().UTC()
		state.LastSynced = &now
	}
	state.LastError = ""
	return o.store.Save(state)
}

func resultMessage(res *backend.SyncResult) string {
	if res == nil {
		return "provider returned no result"
	}
	if res.Message == "" {
		return "provider rejected the feature"
	}
	return res.Message
}
