package backend

// This file contains a scriptable mock provider shared by tests across packages.

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SyncCall records one call to MockProvider.SyncFeature
type SyncCall struct {
	Local    LocalFeature
	RemoteID string
}

// MockProvider implements Provider for testing
type MockProvider struct {
	mu sync.Mutex

	name    string
	nextID  int
	Remotes map[string]RemoteFeature // remoteID -> record

	// Scripted behaviour
	ConnectResult  *ConnectResult
	ConnectErr     error
	SyncErr        error            // returned by every SyncFeature call
	SyncErrs       []error          // consumed one per SyncFeature call before SyncErr
	SyncErrFor     map[string]error // feature name -> error
	RejectFor      map[string]string
	GetFeatureErr  error
	DeleteErr      error
	Now            func() time.Time
	ConnectedCreds *Credentials

	// Call recording
	ConnectCalls    int
	SyncCalls       []SyncCall
	GetFeatureCalls int
	DeleteCalls     []string
}

// NewMockProvider creates a new mock provider instance
func NewMockProvider() *MockProvider {
	return NewMockProviderWithName("mock")
}

// NewMockProviderWithName creates a new mock provider with a name
func NewMockProviderWithName(name string) *MockProvider {
	return &MockProvider{
		name:       name,
		Remotes:    make(map[string]RemoteFeature),
		SyncErrFor: make(map[string]error),
		RejectFor:  make(map[string]string),
		Now:        time.Now,
	}
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Connect(ctx context.Context, creds Credentials) (*ConnectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectCalls++
	m.ConnectedCreds = &creds
	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}
	if m.ConnectResult != nil {
		return m.ConnectResult, nil
	}
	return &ConnectResult{
		Success:    true,
		Message:    "connected to mock",
		Workspaces: []Workspace{{ID: "ws-1", Name: "Mock Workspace"}},
	}, nil
}

func (m *MockProvider) SyncFeature(ctx context.Context, local LocalFeature, remoteID string) (*SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SyncCalls = append(m.SyncCalls, SyncCall{Local: local, RemoteID: remoteID})

	if len(m.SyncErrs) > 0 {
		err := m.SyncErrs[0]
		m.SyncErrs = m.SyncErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if m.SyncErr != nil {
		return nil, m.SyncErr
	}
	if err, ok := m.SyncErrFor[local.Name]; ok {
		return nil, err
	}
	if msg, ok := m.RejectFor[local.Name]; ok {
		return &SyncResult{Status: SyncStatusError, Message: msg}, nil
	}

	record := m.upsertLocked(local, remoteID)
	now := m.Now()
	return &SyncResult{
		Status:     SyncStatusSynced,
		RemoteID:   record.ID,
		RemoteURL:  record.URL,
		LastSynced: &now,
		Message:    "synced",
	}, nil
}

func (m *MockProvider) GetFeature(ctx context.Context, remoteID string) (*RemoteFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetFeatureCalls++
	if m.GetFeatureErr != nil {
		return nil, m.GetFeatureErr
	}
	record, ok := m.Remotes[remoteID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *MockProvider) GetTasks(ctx context.Context) ([]RemoteFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]RemoteFeature, 0, len(m.Remotes))
	for _, record := range m.Remotes {
		records = append(records, record)
	}
	return records, nil
}

func (m *MockProvider) CreateFeature(ctx context.Context, local LocalFeature) (*RemoteFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := m.upsertLocked(local, "")
	return &record, nil
}

func (m *MockProvider) UpdateFeature(ctx context.Context, remoteID string, local LocalFeature) (*RemoteFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Remotes[remoteID]; !ok {
		return nil, NewProviderError("UpdateFeature", 404, "feature not found").WithRemoteID(remoteID)
	}
	record := m.upsertLocked(local, remoteID)
	return &record, nil
}

func (m *MockProvider) DeleteFeature(ctx context.Context, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, remoteID)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Remotes[remoteID]; !ok {
		return NewProviderError("DeleteFeature", 404, "feature not found").WithRemoteID(remoteID)
	}
	delete(m.Remotes, remoteID)
	return nil
}

// SetRemote stores a remote record as if another client had written it
func (m *MockProvider) SetRemote(record RemoteFeature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Remotes[record.ID] = record
}

// SyncCallCount returns how many times SyncFeature was called
func (m *MockProvider) SyncCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SyncCalls)
}

func (m *MockProvider) upsertLocked(local LocalFeature, remoteID string) RemoteFeature {
	now := m.Now().UTC().Format(time.RFC3339)
	if remoteID == "" {
		m.nextID++
		remoteID = fmt.Sprintf("remote-%d", m.nextID)
	}

	record, exists := m.Remotes[remoteID]
	if !exists {
		record = RemoteFeature{ID: remoteID, CreatedAt: now}
	}
	record.Name = local.Name
	record.Status = "open"
	record.Phase = PhasePtr(local.Phase)
	record.Progress = IntPtr(local.Progress)
	record.URL = "https://mock.example.com/features/" + remoteID
	record.UpdatedAt = now
	m.Remotes[remoteID] = record
	return record
}
