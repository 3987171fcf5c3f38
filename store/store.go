// Package store persists documents and their append-only patch chains.
// Every operation is a full critical section: reads and writes across
// the whole store serialize on one mutex, which keeps composite
// operations linearizable at the cost of throughput.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/patchline/db/sqliteutil"
)

// Store implements durable, ordered persistence of documents and
// patches over database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
	owned   bool
	lock    *fileLock
}

// Open opens a store for the given driver and DSN. SQLite file DSNs
// get WAL and busy_timeout pragmas and an exclusive lock sidecar so a
// single process owns the database file.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if dsn == "" {
		return nil, fmt.Errorf("store: dsn required")
	}
	d := resolveDialect(driver)
	var lock *fileLock
	if d == dialectSQLite {
		dsn = sqliteutil.EnsurePragmas(dsn, "journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(1)")
		if path := sqliteFilePath(dsn); path != "" {
			var err error
			if lock, err = acquireFileLock(path + ".lock"); err != nil {
				return nil, err
			}
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		if lock != nil {
			_ = lock.release()
		}
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if d == dialectSQLite && isMemoryDSN(dsn) {
		// Each sqlite connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	if conn, err := db.Conn(ctx); err == nil {
		_ = conn.Close()
	}
	return &Store{db: db, dialect: d, owned: true, lock: lock}, nil
}

// NewWithDB wraps an existing handle; the caller keeps ownership.
func NewWithDB(db *sql.DB, driver string) *Store {
	return &Store{db: db, dialect: resolveDialect(driver)}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases an owned handle and the file lock.
func (s *Store) Close() error {
	var err error
	if s.owned && s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if lerr := s.lock.release(); err == nil {
			err = lerr
		}
	}
	return err
}

// InsertDocument persists a new document.
func (s *Store) InsertDocument(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO documents (uuid, name, created_at) VALUES (?, ?, ?)`),
		doc.UUID, doc.Name, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert document: %w", err)
	}
	return nil
}

// Document looks a document up by id.
func (s *Store) Document(ctx context.Context, uuid string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc Document
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT uuid, name, created_at FROM documents WHERE uuid = ?`), uuid).
		Scan(&doc.UUID, &doc.Name, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}
	if err != nil {
		return Document{}, fmt.Errorf("store: document %s: %w", uuid, err)
	}
	return doc, nil
}

// Documents lists all documents, most recently created first.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, name, created_at FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.UUID, &doc.Name, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	return docs, nil
}

// InsertPatch persists a new patch row. Patches are append-only.
func (s *Store) InsertPatch(ctx context.Context, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO patches (uuid, document_uuid, timestamp, delta) VALUES (?, ?, ?, ?)`),
		patch.UUID, patch.DocumentUUID, patch.Timestamp, patch.Delta)
	if err != nil {
		return fmt.Errorf("store: insert patch: %w", err)
	}
	return nil
}

// PatchTimestamps returns all patch timestamps of a document, ascending.
func (s *Store) PatchTimestamps(ctx context.Context, documentUUID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryTimestamps(ctx,
		s.rebind(`SELECT timestamp FROM patches WHERE document_uuid = ? ORDER BY timestamp ASC`),
		documentUUID)
}

// PatchesUpTo returns the patches of a document with timestamp at or
// before the given one, ascending.
func (s *Store) PatchesUpTo(ctx context.Context, documentUUID string, timestamp int64) ([]Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryPatches(ctx,
		s.rebind(`SELECT uuid, timestamp, delta FROM patches WHERE document_uuid = ? AND timestamp <= ? ORDER BY timestamp ASC`),
		documentUUID, documentUUID, timestamp)
}

// PatchesSince returns the patches of a document with timestamp
// strictly after the given one, ascending.
func (s *Store) PatchesSince(ctx context.Context, documentUUID string, timestamp int64) ([]Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryPatches(ctx,
		s.rebind(`SELECT uuid, timestamp, delta FROM patches WHERE document_uuid = ? AND timestamp > ? ORDER BY timestamp ASC`),
		documentUUID, documentUUID, timestamp)
}

// RecentTimestamps returns up to limit distinct patch timestamps of a
// document strictly before the given one, most recent first.
func (s *Store) RecentTimestamps(ctx context.Context, documentUUID string, before int64, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryTimestamps(ctx,
		s.rebind(`SELECT DISTINCT timestamp FROM patches WHERE document_uuid = ? AND timestamp < ? ORDER BY timestamp DESC LIMIT ?`),
		documentUUID, before, limit)
}

// HasTimestamp reports whether a document already has a patch at the
// given timestamp.
func (s *Store) HasTimestamp(ctx context.Context, documentUUID string, timestamp int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var one int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM patches WHERE document_uuid = ? AND timestamp = ?`),
		documentUUID, timestamp).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: has timestamp: %w", err)
	}
	return true, nil
}

// PatchStats aggregates patch count and stored delta bytes of a document.
func (s *Store) PatchStats(ctx context.Context, documentUUID string) (PatchStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats PatchStats
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*), COALESCE(SUM(LENGTH(delta)), 0) FROM patches WHERE document_uuid = ?`),
		documentUUID).Scan(&stats.Count, &stats.DeltaBytes)
	if err != nil {
		return PatchStats{}, fmt.Errorf("store: patch stats: %w", err)
	}
	return stats, nil
}

func (s *Store) queryTimestamps(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query timestamps: %w", err)
	}
	defer rows.Close()
	var timestamps []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("store: query timestamps: %w", err)
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query timestamps: %w", err)
	}
	return timestamps, nil
}

func (s *Store) queryPatches(ctx context.Context, query string, documentUUID string, args ...any) ([]Patch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query patches: %w", err)
	}
	defer rows.Close()
	var patches []Patch
	for rows.Next() {
		patch := Patch{DocumentUUID: documentUUID}
		if err := rows.Scan(&patch.UUID, &patch.Timestamp, &patch.Delta); err != nil {
			return nil, fmt.Errorf("store: query patches: %w", err)
		}
		patches = append(patches, patch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query patches: %w", err)
	}
	return patches, nil
}

func isMemoryDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:")
}

// sqliteFilePath extracts the filesystem path from a sqlite DSN, or
// returns "" for in-memory databases.
func sqliteFilePath(dsn string) string {
	if isMemoryDSN(dsn) {
		return ""
	}
	path := dsn
	path = strings.TrimPrefix(path, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	return path
}
