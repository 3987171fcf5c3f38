package service

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viant/patchline/cache"
	"github.com/viant/patchline/store"
)

// CreatePatch commits a new version of a document. The commit path has
// three phases: gather (current content and base candidates), compute
// (delta encoding, no store locks held across reentrant reconstruction),
// commit (single atomic insert plus a cache seed).
func (s *Service) CreatePatch(ctx context.Context, req CreatePatchRequest) (string, error) {
	st, err := s.ensureStore(ctx)
	if err != nil {
		return "", err
	}
	if _, err := st.Document(ctx, req.DocumentID); err != nil {
		return "", err
	}
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	exists, err := st.HasTimestamp(ctx, req.DocumentID, timestamp)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrTimestampExists
	}

	current, err := s.recon.Reconstruct(ctx, req.DocumentID, timestamp)
	if err != nil {
		return "", err
	}
	if bytes.Equal(current, req.Content) {
		return "", ErrNoChange
	}

	tag, delta, err := s.selector.SelectBase(ctx, req.DocumentID, req.Content, timestamp)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := st.InsertPatch(ctx, store.Patch{UUID: id, DocumentUUID: req.DocumentID, Timestamp: timestamp, Delta: delta}); err != nil {
		return "", err
	}
	// Content is already known; seeding the cache skips a redundant
	// decode on the next reconstruction.
	s.cache.Put(cache.Key{DocumentID: req.DocumentID, PatchID: id}, req.Content)
	if logf := s.logfOr(req.Logf); logf != nil {
		logf("commit document=%s patch=%s timestamp=%d tag=%d delta=%d content=%d",
			req.DocumentID, id, timestamp, tag, len(delta), len(req.Content))
	}
	return id, nil
}
