package backend

import "context"

// Provider is the contract every remote project-management backend implements.
// The sync engine only talks to this interface; concrete backends register a
// constructor under a name and are selected from configuration.
type Provider interface {
	// Name returns the registered provider name (e.g. "todoist")
	Name() string

	// Connect performs the handshake with the backend. A rejected handshake is
	// reported through ConnectResult.Success; err is reserved for failures to
	// reach the backend at all.
	Connect(ctx context.Context, creds Credentials) (*ConnectResult, error)

	// SyncFeature pushes the local view. An empty remoteID creates the remote
	// record, otherwise the existing one is updated.
	SyncFeature(ctx context.Context, local LocalFeature, remoteID string) (*SyncResult, error)

	// GetFeature returns the remote record, or nil when it no longer exists
	GetFeature(ctx context.Context, remoteID string) (*RemoteFeature, error)

	GetTasks(ctx context.Context) ([]RemoteFeature, error)
	CreateFeature(ctx context.Context, local LocalFeature) (*RemoteFeature, error)
	UpdateFeature(ctx context.Context, remoteID string, local LocalFeature) (*RemoteFeature, error)
	DeleteFeature(ctx context.Context, remoteID string) error
}

// ProviderConfig carries the configuration a provider constructor receives.
// Credentials are not part of it; they are handed to Connect.
type ProviderConfig struct {
	Name    string
	BaseURL string // API base URL override (self-hosted instances, tests)
	Path    string // Root directory for file-backed providers
}
