package queue

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// Queue is an ordered list of operations mirrored to a Store on every
// mutation. It takes no locks: one process drives it serially.
type Queue struct {
	store  Store
	ops    []Operation
	loaded bool

	newID func() string
	now   func() time.Time
}

// New creates a queue over store. Nothing is read until first use.
func New(store Store) *Queue {
	return &Queue{
		store: store,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// Path returns where the queue is persisted
func (q *Queue) Path() string {
	return q.store.Path()
}

// Close releases the underlying store
func (q *Queue) Close() error {
	return q.store.Close()
}

// Load (re)reads the persisted document. A missing or unreadable document
// is an empty queue.
func (q *Queue) Load() {
	q.loaded = true
	q.ops = nil

	doc, err := q.store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			utils.Warnf("Ignoring unreadable sync queue at %s: %v", q.store.Path(), err)
		}
		return
	}

	ops := make([]Operation, 0, len(doc.Operations))
	for _, op := range doc.Operations {
		if op.ID == "" || !op.Type.Valid() || op.Feature == "" {
			utils.Warnf("Skipping malformed queued operation %+v", op)
			continue
		}
		ops = append(ops, op)
	}
	q.ops = ops
	utils.Debugf("Loaded %d queued operations from %s", len(q.ops), q.store.Path())
}

func (q *Queue) ensureLoaded() {
	if !q.loaded {
		q.Load()
	}
}

// commit persists next and only then makes it the in-memory state
func (q *Queue) commit(next []Operation) error {
	if next == nil {
		next = []Operation{}
	}
	if err := q.store.Save(Document{Version: DocumentVersion, Operations: next}); err != nil {
		return fmt.Errorf("failed to persist sync queue: %w", err)
	}
	q.ops = next
	return nil
}

// Enqueue appends op, assigning an id and creation time when absent.
// Returns the stored operation.
func (q *Queue) Enqueue(op Operation) (Operation, error) {
	q.ensureLoaded()

	if !op.Type.Valid() {
		return Operation{}, fmt.Errorf("invalid operation type %q", op.Type)
	}
	if op.Feature == "" {
		return Operation{}, fmt.Errorf("queued operation needs a feature name")
	}
	if op.ID == "" {
		op.ID = q.newID()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = q.now()
	}
	if op.Retries < 0 {
		op.Retries = 0
	}
	op = cloneOperation(op)

	next := append(cloneOperations(q.ops), op)
	if err := q.commit(next); err != nil {
		return Operation{}, err
	}
	utils.Debugf("Queued %s", op)
	return cloneOperation(op), nil
}

// Dequeue removes and returns the head of the queue
func (q *Queue) Dequeue() (Operation, error) {
	q.ensureLoaded()

	if len(q.ops) == 0 {
		return Operation{}, ErrEmpty
	}
	head := q.ops[0]
	if err := q.commit(cloneOperations(q.ops[1:])); err != nil {
		return Operation{}, err
	}
	return head, nil
}

// Peek returns the head without removing it
func (q *Queue) Peek() (Operation, bool) {
	q.ensureLoaded()

	if len(q.ops) == 0 {
		return Operation{}, false
	}
	return cloneOperation(q.ops[0]), true
}

// Remove deletes the operation with id, reporting whether it existed
func (q *Queue) Remove(id string) (bool, error) {
	q.ensureLoaded()

	idx := q.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := make([]Operation, 0, len(q.ops)-1)
	next = append(next, q.ops[:idx]...)
	next = append(next, q.ops[idx+1:]...)
	if err := q.commit(cloneOperations(next)); err != nil {
		return false, err
	}
	return true, nil
}

// GetAll returns a copy of every queued operation in order
func (q *Queue) GetAll() []Operation {
	q.ensureLoaded()
	return cloneOperations(q.ops)
}

// GetByFeature returns the operations queued for feature, in order
func (q *Queue) GetByFeature(feature string) []Operation {
	q.ensureLoaded()

	var out []Operation
	for _, op := range q.ops {
		if op.Feature == feature {
			out = append(out, cloneOperation(op))
		}
	}
	return out
}

// GetPendingCount returns the number of queued operations
func (q *Queue) GetPendingCount() int {
	q.ensureLoaded()
	return len(q.ops)
}

// HasFeaturePending reports whether any operation is queued for feature
func (q *Queue) HasFeaturePending(feature string) bool {
	q.ensureLoaded()

	for _, op := range q.ops {
		if op.Feature == feature {
			return true
		}
	}
	return false
}

// UpdateRetries sets the retry count and last error of an operation.
// Retry counts never decrease.
func (q *Queue) UpdateRetries(id string, retries int, lastError string) error {
	q.ensureLoaded()

	idx := q.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if retries < q.ops[idx].Retries {
		return fmt.Errorf("retry count for %s cannot decrease from %d to %d", id, q.ops[idx].Retries, retries)
	}

	next := cloneOperations(q.ops)
	next[idx].Retries = retries
	next[idx].LastError = lastError
	return q.commit(next)
}

// Clear removes every operation
func (q *Queue) Clear() error {
	q.ensureLoaded()
	return q.commit([]Operation{})
}

func (q *Queue) indexOf(id string) int {
	for i, op := range q.ops {
		if op.ID == id {
			return i
		}
	}
	return -1
}
