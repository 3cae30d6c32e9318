// Package queue is the durable outbox of sync operations that failed with a
// transient error and are replayed on a later run.
package queue

import (
	"errors"
	"fmt"
	"time"
)

// MaxRetries is the number of failed replays after which an operation is evicted
const MaxRetries = 3

// DocumentVersion is written into every persisted queue document
const DocumentVersion = 1

var (
	// ErrEmpty is returned by Dequeue on an empty queue
	ErrEmpty = errors.New("sync queue is empty")
	// ErrNotFound is returned when no operation has the given id
	ErrNotFound = errors.New("queued operation not found")
)

// OperationType is the remote write an operation replays
type OperationType string

const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpDelete OperationType = "delete"
)

// Valid reports whether t is a known operation type
func (t OperationType) Valid() bool {
	switch t {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Operation is one queued sync attempt. Data holds whatever the replay
// needs (phase, progress, remoteId).
type Operation struct {
	ID        string                 `json:"id"`
	Type      OperationType          `json:"type"`
	Feature   string                 `json:"feature"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	Retries   int                    `json:"retries"`
	LastError string                 `json:"lastError,omitempty"`
}

// RemoteID returns the remote id recorded in Data, if any
func (op Operation) RemoteID() string {
	if op.Data == nil {
		return ""
	}
	id, _ := op.Data["remoteId"].(string)
	return id
}

// Exhausted reports whether one more failure would evict the operation
func (op Operation) Exhausted() bool {
	return op.Retries+1 >= MaxRetries
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %s (%s, retries=%d)", op.Type, op.Feature, op.ID, op.Retries)
}

// Document is the persisted shape of the whole queue
type Document struct {
	Version    int         `json:"version"`
	Operations []Operation `json:"operations"`
}

func cloneOperation(op Operation) Operation {
	if op.Data != nil {
		data := make(map[string]interface{}, len(op.Data))
		for k, v := range op.Data {
			data[k] = v
		}
		op.Data = data
	}
	return op
}

func cloneOperations(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = cloneOperation(op)
	}
	return out
}
