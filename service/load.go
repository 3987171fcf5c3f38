package service

import (
	"context"
	"unicode/utf8"
)

// Load returns document content as of the given timestamp. An unknown
// document or one without patches yields empty content.
func (s *Service) Load(ctx context.Context, documentID string, timestamp int64) ([]byte, error) {
	if _, err := s.ensureStore(ctx); err != nil {
		return nil, err
	}
	return s.recon.Reconstruct(ctx, documentID, timestamp)
}

// LoadText is Load for text callers; it fails with ErrNotText when the
// reconstructed bytes are not valid UTF-8.
func (s *Service) LoadText(ctx context.Context, documentID string, timestamp int64) (string, error) {
	content, err := s.Load(ctx, documentID, timestamp)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", ErrNotText
	}
	return string(content), nil
}
