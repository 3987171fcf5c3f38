package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/viant/sqlx/io/config"
	"github.com/viant/sqlx/metadata/info"

	"github.com/viant/patchline/store"
)

// Replicate pushes documents and patches into a remote database.
// Patches are append-only and immutable, so replication is a per
// document timestamp watermark: everything newer than the remote's
// latest patch gets inserted, in batches when the remote dialect
// supports multi-values inserts.
func (s *Service) Replicate(ctx context.Context, req ReplicateRequest) (ReplicateResult, error) {
	if req.Driver == "" || req.DSN == "" {
		return ReplicateResult{}, errMissing("replica driver and dsn")
	}
	st, err := s.ensureStore(ctx)
	if err != nil {
		return ReplicateResult{}, err
	}
	remote, err := sql.Open(req.Driver, req.DSN)
	if err != nil {
		return ReplicateResult{}, fmt.Errorf("service: open replica: %w", err)
	}
	defer func() { _ = remote.Close() }()
	logf := s.logfOr(req.Logf)

	remoteStore := store.NewWithDB(remote, req.Driver)
	if err := remoteStore.EnsureSchema(ctx); err != nil {
		return ReplicateResult{}, err
	}
	batch := req.Batch
	if batch <= 0 {
		batch = 200
	}
	_, multiValues := detectReplicaDialect(ctx, remote, logf)

	docs, err := st.Documents(ctx)
	if err != nil {
		return ReplicateResult{}, err
	}
	existing, err := remoteDocumentSet(ctx, remoteStore)
	if err != nil {
		return ReplicateResult{}, err
	}

	var result ReplicateResult
	for _, doc := range docs {
		if !existing[doc.UUID] {
			if err := remoteStore.InsertDocument(ctx, doc); err != nil {
				return result, err
			}
			result.Documents++
		}
		watermark, err := remoteWatermark(ctx, remoteStore, doc.UUID)
		if err != nil {
			return result, err
		}
		pending, err := st.PatchesSince(ctx, doc.UUID, watermark)
		if err != nil {
			return result, err
		}
		for start := 0; start < len(pending); start += batch {
			end := start + batch
			if end > len(pending) {
				end = len(pending)
			}
			if err := insertPatches(ctx, remote, remoteStore, req.Driver, pending[start:end], multiValues); err != nil {
				return result, err
			}
			result.Patches += end - start
			if logf != nil {
				logf("replicate document=%s pushed=%d/%d", doc.UUID, result.Patches, len(pending))
			}
		}
	}
	if logf != nil {
		logf("replicate driver=%s documents=%d patches=%d", req.Driver, result.Documents, result.Patches)
	}
	return result, nil
}

func detectReplicaDialect(ctx context.Context, db *sql.DB, logf func(format string, args ...any)) (*info.Dialect, bool) {
	dialect, err := config.Dialect(ctx, db)
	if err != nil {
		if logf != nil {
			logf("replicate: dialect detection failed, falling back to row inserts: %v", err)
		}
		return nil, false
	}
	return dialect, dialect.Insert.MultiValues()
}

func remoteDocumentSet(ctx context.Context, remote *store.Store) (map[string]bool, error) {
	docs, err := remote.Documents(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(docs))
	for _, doc := range docs {
		set[doc.UUID] = true
	}
	return set, nil
}

func remoteWatermark(ctx context.Context, remote *store.Store, documentUUID string) (int64, error) {
	timestamps, err := remote.PatchTimestamps(ctx, documentUUID)
	if err != nil {
		return 0, err
	}
	if len(timestamps) == 0 {
		return -1, nil
	}
	return timestamps[len(timestamps)-1], nil
}

func insertPatches(ctx context.Context, remote *sql.DB, remoteStore *store.Store, driver string, patches []store.Patch, multiValues bool) error {
	if len(patches) == 0 {
		return nil
	}
	if !multiValues || len(patches) == 1 {
		for _, patch := range patches {
			if err := remoteStore.InsertPatch(ctx, patch); err != nil {
				return err
			}
		}
		return nil
	}
	query, args := buildPatchInsert(driver, patches)
	if _, err := remote.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("service: replicate patches: %w", err)
	}
	return nil
}

func buildPatchInsert(driver string, patches []store.Patch) (string, []any) {
	postgres := strings.HasPrefix(strings.ToLower(driver), "postgres") || strings.EqualFold(driver, "pgx")
	var b strings.Builder
	b.WriteString("INSERT INTO patches (uuid, document_uuid, timestamp, delta) VALUES ")
	args := make([]any, 0, len(patches)*4)
	for i, patch := range patches {
		if i > 0 {
			b.WriteString(", ")
		}
		if postgres {
			n := i * 4
			fmt.Fprintf(&b, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		} else {
			b.WriteString("(?, ?, ?, ?)")
		}
		args = append(args, patch.UUID, patch.DocumentUUID, patch.Timestamp, patch.Delta)
	}
	return b.String(), args
}
