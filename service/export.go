package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func errMissing(what string) error {
	return fmt.Errorf("service: %s required", what)
}

// Export writes reconstructed content at a timestamp to a destination URL.
func (s *Service) Export(ctx context.Context, req ExportRequest) error {
	if req.DocumentID == "" {
		return errMissing("document id")
	}
	if req.DestURL == "" {
		return errMissing("destination URL")
	}
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	st, err := s.ensureStore(ctx)
	if err != nil {
		return err
	}
	if _, err := st.Document(ctx, req.DocumentID); err != nil {
		return err
	}
	content, err := s.recon.Reconstruct(ctx, req.DocumentID, timestamp)
	if err != nil {
		return err
	}
	fs := afs.New()
	if err := fs.Upload(ctx, req.DestURL, file.DefaultFileOsMode, bytes.NewReader(content)); err != nil {
		return err
	}
	if logf := s.logfOr(req.Logf); logf != nil {
		logf("export document=%s timestamp=%d dest=%s bytes=%d", req.DocumentID, timestamp, req.DestURL, len(content))
	}
	return nil
}
