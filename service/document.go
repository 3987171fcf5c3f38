package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/patchline/store"
)

// CreateDocument allocates a new document. Content arrives through the
// first patch.
func (s *Service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (string, error) {
	if req.Name == "" {
		return "", fmt.Errorf("service: document name required")
	}
	st, err := s.ensureStore(ctx)
	if err != nil {
		return "", err
	}
	createdAt := req.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}
	id := uuid.NewString()
	if err := st.InsertDocument(ctx, store.Document{UUID: id, Name: req.Name, CreatedAt: createdAt}); err != nil {
		return "", err
	}
	if logf := s.logfOr(req.Logf); logf != nil {
		logf("create document=%s name=%q created_at=%d", id, req.Name, createdAt)
	}
	return id, nil
}

// Documents lists all documents, most recently created first.
func (s *Service) Documents(ctx context.Context) ([]store.Document, error) {
	st, err := s.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	return st.Documents(ctx)
}

// PatchTimestamps returns all patch timestamps of a document, ascending.
func (s *Service) PatchTimestamps(ctx context.Context, documentID string) ([]int64, error) {
	st, err := s.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := st.Document(ctx, documentID); err != nil {
		return nil, err
	}
	return st.PatchTimestamps(ctx, documentID)
}
