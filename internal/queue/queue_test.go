package queue

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// failingStore wraps a store and fails Save on demand
type failingStore struct {
	Store
	failSave bool
}

func (f *failingStore) Save(doc Document) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.Store.Save(doc)
}

func newTestQueue(t *testing.T) (*Queue, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync-queue.json")
	return New(NewJSONFileStore(path)), path
}

func TestQueue_FIFODurability(t *testing.T) {
	stores := map[string]func(t *testing.T, dir string) Store{
		"json": func(t *testing.T, dir string) Store {
			return NewJSONFileStore(filepath.Join(dir, "sync-queue.json"))
		},
		"sqlite": func(t *testing.T, dir string) Store {
			s, err := OpenSQLiteStore(filepath.Join(dir, "sync-queue.db"))
			if err != nil {
				t.Fatalf("OpenSQLiteStore() error = %v", err)
			}
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			store := open(t, dir)

			q := New(store)
			a, err := q.Enqueue(Operation{Type: OpCreate, Feature: "auth", Data: map[string]interface{}{"phase": "qa"}})
			if err != nil {
				t.Fatalf("Enqueue(A) error = %v", err)
			}
			b, err := q.Enqueue(Operation{Type: OpUpdate, Feature: "billing", Data: map[string]interface{}{"remoteId": "r9"}})
			if err != nil {
				t.Fatalf("Enqueue(B) error = %v", err)
			}
			if err := store.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			reopened := New(open(t, dir))
			defer reopened.Close()
			got := reopened.GetAll()
			if len(got) != 2 {
				t.Fatalf("GetAll() returned %d operations, want 2", len(got))
			}
			if got[0].ID != a.ID || got[1].ID != b.ID {
				t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, a.ID, b.ID)
			}
			if got[1].RemoteID() != "r9" {
				t.Errorf("RemoteID() = %q, want r9", got[1].RemoteID())
			}
			if got[0].CreatedAt.IsZero() {
				t.Error("CreatedAt should survive reload")
			}
		})
	}
}

func TestQueue_EnqueueAssignsID(t *testing.T) {
	q, _ := newTestQueue(t)

	op, err := q.Enqueue(Operation{Type: OpCreate, Feature: "auth"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if op.ID == "" {
		t.Error("Enqueue() should assign an id")
	}
	if op.Retries != 0 {
		t.Errorf("Retries = %d, want 0", op.Retries)
	}

	kept, err := q.Enqueue(Operation{ID: "fixed", Type: OpDelete, Feature: "auth"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if kept.ID != "fixed" {
		t.Errorf("ID = %q, want fixed", kept.ID)
	}
}

func TestQueue_EnqueueValidation(t *testing.T) {
	q, _ := newTestQueue(t)

	if _, err := q.Enqueue(Operation{Type: "merge", Feature: "auth"}); err == nil {
		t.Error("expected error for invalid type")
	}
	if _, err := q.Enqueue(Operation{Type: OpCreate}); err == nil {
		t.Error("expected error for missing feature")
	}
	if q.GetPendingCount() != 0 {
		t.Errorf("rejected operations must not be queued")
	}
}

func TestQueue_DequeuePeekRemove(t *testing.T) {
	q, _ := newTestQueue(t)

	if _, err := q.Dequeue(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Dequeue() on empty = %v, want ErrEmpty", err)
	}
	if _, ok := q.Peek(); ok {
		t.Fatal("Peek() on empty should report false")
	}

	a, _ := q.Enqueue(Operation{Type: OpCreate, Feature: "a"})
	b, _ := q.Enqueue(Operation{Type: OpCreate, Feature: "b"})
	c, _ := q.Enqueue(Operation{Type: OpCreate, Feature: "c"})

	head, ok := q.Peek()
	if !ok || head.ID != a.ID {
		t.Fatalf("Peek() = %v, %v; want %s", head.ID, ok, a.ID)
	}
	if q.GetPendingCount() != 3 {
		t.Fatalf("Peek() must not mutate")
	}

	found, err := q.Remove(b.ID)
	if err != nil || !found {
		t.Fatalf("Remove(b) = %v, %v", found, err)
	}
	if found, _ := q.Remove("missing"); found {
		t.Error("Remove(missing) should report false")
	}

	got, err := q.Dequeue()
	if err != nil || got.ID != a.ID {
		t.Fatalf("Dequeue() = %v, %v; want %s", got.ID, err, a.ID)
	}
	rest := q.GetAll()
	if len(rest) != 1 || rest[0].ID != c.ID {
		t.Errorf("remaining = %+v, want [%s]", rest, c.ID)
	}
}

func TestQueue_FeatureQueries(t *testing.T) {
	q, _ := newTestQueue(t)
	q.Enqueue(Operation{Type: OpCreate, Feature: "auth"})
	q.Enqueue(Operation{Type: OpUpdate, Feature: "billing"})
	q.Enqueue(Operation{Type: OpUpdate, Feature: "auth"})

	if got := q.GetByFeature("auth"); len(got) != 2 || got[0].Type != OpCreate || got[1].Type != OpUpdate {
		t.Errorf("GetByFeature(auth) = %+v", got)
	}
	if !q.HasFeaturePending("billing") {
		t.Error("HasFeaturePending(billing) = false")
	}
	if q.HasFeaturePending("search") {
		t.Error("HasFeaturePending(search) = true")
	}
}

func TestQueue_UpdateRetries(t *testing.T) {
	q, path := newTestQueue(t)
	op, _ := q.Enqueue(Operation{Type: OpUpdate, Feature: "auth"})

	if err := q.UpdateRetries(op.ID, 1, "ECONNRESET"); err != nil {
		t.Fatalf("UpdateRetries() error = %v", err)
	}
	if err := q.UpdateRetries(op.ID, 0, ""); err == nil {
		t.Error("UpdateRetries() should reject a decrease")
	}
	if err := q.UpdateRetries("missing", 1, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRetries(missing) = %v, want ErrNotFound", err)
	}

	reloaded := New(NewJSONFileStore(path)).GetAll()
	if reloaded[0].Retries != 1 || reloaded[0].LastError != "ECONNRESET" {
		t.Errorf("persisted = %+v", reloaded[0])
	}
}

func TestQueue_PersistFailureLeavesStateUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-queue.json")
	store := &failingStore{Store: NewJSONFileStore(path)}
	q := New(store)

	first, err := q.Enqueue(Operation{Type: OpCreate, Feature: "auth"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	store.failSave = true
	if _, err := q.Enqueue(Operation{Type: OpCreate, Feature: "billing"}); err == nil {
		t.Fatal("expected Enqueue() to fail")
	}
	if _, err := q.Dequeue(); err == nil {
		t.Fatal("expected Dequeue() to fail")
	}
	if err := q.UpdateRetries(first.ID, 2, "x"); err == nil {
		t.Fatal("expected UpdateRetries() to fail")
	}
	if err := q.Clear(); err == nil {
		t.Fatal("expected Clear() to fail")
	}

	got := q.GetAll()
	if len(got) != 1 || got[0].ID != first.ID || got[0].Retries != 0 {
		t.Errorf("in-memory state changed after failed persist: %+v", got)
	}
}

func TestQueue_LoadDegradesGracefully(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt json", "{not json"},
		{"wrong shape", `{"version":1,"operations":"nope"}`},
		{"malformed entries", `{"version":1,"operations":[{"id":"","type":"create","feature":"x"},{"id":"a","type":"bogus","feature":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sync-queue.json")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			q := New(NewJSONFileStore(path))
			q.Load()
			if n := q.GetPendingCount(); n != 0 {
				t.Errorf("GetPendingCount() = %d, want 0", n)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		q := New(NewJSONFileStore(filepath.Join(t.TempDir(), "absent", "q.json")))
		q.Load()
		if q.GetPendingCount() != 0 {
			t.Error("missing document should be an empty queue")
		}
	})
}

func TestOpenSQLiteStore_CorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync-queue.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a database ", 100)), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v, want recovery", err)
	}
	defer store.Close()

	q := New(store)
	q.Load()
	if n := q.GetPendingCount(); n != 0 {
		t.Errorf("GetPendingCount() = %d, want 0", n)
	}
	if _, err := q.Enqueue(Operation{Type: OpUpdate, Feature: "auth"}); err != nil {
		t.Fatalf("Enqueue() on recovered database error = %v", err)
	}

	moved, err := filepath.Glob(path + ".corrupt-*")
	if err != nil || len(moved) != 1 {
		t.Errorf("corrupt file moved aside = %v, %v, want one match", moved, err)
	}
}

func TestQueue_Clear(t *testing.T) {
	q, path := newTestQueue(t)
	q.Enqueue(Operation{Type: OpCreate, Feature: "auth"})
	q.Enqueue(Operation{Type: OpCreate, Feature: "billing"})

	if err := q.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if New(NewJSONFileStore(path)).GetPendingCount() != 0 {
		t.Error("Clear() should persist an empty queue")
	}
}

func TestOperation_Exhausted(t *testing.T) {
	tests := []struct {
		retries int
		want    bool
	}{
		{0, false},
		{1, false},
		{MaxRetries - 1, true},
		{MaxRetries, true},
	}
	for _, tt := range tests {
		if got := (Operation{Retries: tt.retries}).Exhausted(); got != tt.want {
			t.Errorf("Exhausted() with retries=%d = %v, want %v", tt.retries, got, tt.want)
		}
	}
}
