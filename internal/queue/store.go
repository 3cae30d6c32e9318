package queue

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// Store persists the full queue document. Save must replace the previous
// document entirely or fail leaving it untouched.
type Store interface {
	Load() (Document, error)
	Save(doc Document) error
	Path() string
	Close() error
}

// JSONFileStore keeps the queue as one JSON document on disk
type JSONFileStore struct {
	path string
}

// NewJSONFileStore returns a store backed by the file at path
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Path returns the document location
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the document. A missing file yields an os.ErrNotExist error.
func (s *JSONFileStore) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("corrupt queue document %s: %w", s.path, err)
	}
	return doc, nil
}

// Save writes the document atomically
func (s *JSONFileStore) Save(doc Document) error {
	if doc.Operations == nil {
		doc.Operations = []Operation{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}
	return utils.WriteFileAtomic(s.path, data, 0600)
}

// Close is a no-op for file storage
func (s *JSONFileStore) Close() error {
	return nil
}
