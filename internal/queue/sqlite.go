package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// SchemaVersion of the sqlite queue layout
const SchemaVersion = 1

const schemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// position keeps FIFO order independent of id
const syncQueueTableSQL = `
CREATE TABLE IF NOT EXISTS sync_queue (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL CHECK(type IN ('create', 'update', 'delete')),
    feature TEXT NOT NULL,
    data TEXT,
    created_at TEXT NOT NULL,
    retries INTEGER NOT NULL DEFAULT 0,
    last_error TEXT
);
`

const syncQueueIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_sync_queue_feature ON sync_queue(feature);
`

func pragmaStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
}

// SQLiteStore keeps the queue in an embedded SQLite database. Save rewrites
// all rows inside one transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the database at path. A file
// that is not a usable queue database is moved aside and replaced with an
// empty one.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	store, err := openSQLite(path)
	if err == nil {
		return store, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
	utils.Warnf("Sync queue database %s is unusable (%v); moving it to %s and starting empty", path, err, aside)
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("failed to move corrupt queue database aside: %w", rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		os.Remove(path + suffix)
	}
	return openSQLite(path)
}

func openSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path}
	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize queue schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initializeSchema() error {
	for _, pragma := range pragmaStatements() {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %q: %w", pragma, err)
		}
	}
	for _, stmt := range []string{schemaVersionTableSQL, syncQueueTableSQL, syncQueueIndexesSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", SchemaVersion).Scan(&count); err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", SchemaVersion, time.Now().Unix())
	return err
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads every operation in queue order
func (s *SQLiteStore) Load() (Document, error) {
	rows, err := s.db.Query(`
		SELECT id, type, feature, data, created_at, retries, last_error
		FROM sync_queue
		ORDER BY position ASC
	`)
	if err != nil {
		return Document{}, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	doc := Document{Version: DocumentVersion, Operations: []Operation{}}
	for rows.Next() {
		var (
			op        Operation
			opType    string
			data      sql.NullString
			createdAt string
			lastError sql.NullString
		)
		if err := rows.Scan(&op.ID, &opType, &op.Feature, &data, &createdAt, &op.Retries, &lastError); err != nil {
			return Document{}, fmt.Errorf("failed to scan queued operation: %w", err)
		}
		op.Type = OperationType(opType)
		op.LastError = lastError.String
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &op.Data); err != nil {
				return Document{}, fmt.Errorf("corrupt data for operation %s: %w", op.ID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			op.CreatedAt = t
		}
		doc.Operations = append(doc.Operations, op)
	}
	return doc, rows.Err()
}

// Save replaces the stored queue with doc in a single transaction
func (s *SQLiteStore) Save(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sync_queue"); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sync_queue (position, id, type, feature, data, created_at, retries, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, op := range doc.Operations {
		var data sql.NullString
		if len(op.Data) > 0 {
			encoded, err := json.Marshal(op.Data)
			if err != nil {
				return fmt.Errorf("failed to encode data for operation %s: %w", op.ID, err)
			}
			data = sql.NullString{String: string(encoded), Valid: true}
		}
		var lastError sql.NullString
		if op.LastError != "" {
			lastError = sql.NullString{String: op.LastError, Valid: true}
		}
		if _, err := stmt.Exec(i, op.ID, string(op.Type), op.Feature, data,
			op.CreatedAt.UTC().Format(time.RFC3339Nano), op.Retries, lastError); err != nil {
			return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
