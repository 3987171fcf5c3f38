package service

import (
	"context"
	"path"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/patchline/extract"
)

// Import downloads a source, extracts its text when the format calls
// for it, and commits the result as a new version. With no DocumentID
// a document is created first.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	if req.SourceURL == "" {
		return ImportResult{}, errMissing("source URL")
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, req.SourceURL)
	if err != nil {
		return ImportResult{}, err
	}
	content, err := extract.Text(req.SourceURL, data)
	if err != nil {
		return ImportResult{}, err
	}
	documentID := req.DocumentID
	if documentID == "" {
		name := req.Name
		if name == "" {
			_, name = url.Split(req.SourceURL, "file")
			name = path.Base(name)
		}
		if documentID, err = s.CreateDocument(ctx, CreateDocumentRequest{Name: name, Logf: req.Logf}); err != nil {
			return ImportResult{}, err
		}
	}
	patchID, err := s.CreatePatch(ctx, CreatePatchRequest{
		DocumentID: documentID,
		Content:    content,
		Timestamp:  req.Timestamp,
		Logf:       req.Logf,
	})
	if err != nil {
		return ImportResult{}, err
	}
	if logf := s.logfOr(req.Logf); logf != nil {
		logf("import document=%s patch=%s source=%s bytes=%d", documentID, patchID, req.SourceURL, len(content))
	}
	return ImportResult{DocumentID: documentID, PatchID: patchID, Bytes: len(content)}, nil
}
