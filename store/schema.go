package store

import (
	"context"
	"fmt"
	"strings"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectMySQL    dialect = "mysql"
	dialectPostgres dialect = "postgres"
	dialectBigQuery dialect = "bigquery"
)

func resolveDialect(driver string) dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return dialectMySQL
	case "postgres", "postgresql", "pgx":
		return dialectPostgres
	case "bigquery":
		return dialectBigQuery
	default:
		return dialectSQLite
	}
}

func schemaDDL(d dialect) []string {
	switch d {
	case dialectMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS documents (
				uuid VARCHAR(36) PRIMARY KEY,
				name TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS patches (
				uuid VARCHAR(36) PRIMARY KEY,
				document_uuid VARCHAR(36) NOT NULL,
				timestamp BIGINT NOT NULL,
				delta LONGBLOB,
				UNIQUE KEY idx_patches_doc_time (document_uuid, timestamp)
			)`,
		}
	case dialectPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS documents (
				uuid TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS patches (
				uuid TEXT PRIMARY KEY,
				document_uuid TEXT NOT NULL REFERENCES documents(uuid),
				timestamp BIGINT NOT NULL,
				delta BYTEA
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_patches_doc_time ON patches(document_uuid, timestamp)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS documents (
				uuid TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS patches (
				uuid TEXT PRIMARY KEY,
				document_uuid TEXT NOT NULL,
				timestamp INTEGER NOT NULL,
				delta BLOB,
				FOREIGN KEY (document_uuid) REFERENCES documents(uuid)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_patches_doc_time ON patches(document_uuid, timestamp)`,
		}
	}
}

// EnsureSchema creates the documents and patches tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialect == dialectBigQuery {
		// BigQuery targets are provisioned out of band.
		return nil
	}
	for _, ddl := range schemaDDL(s.dialect) {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the dialect's native form.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
