package service

// CreateDocumentRequest defines inputs for creating a document.
type CreateDocumentRequest struct {
	Name      string
	CreatedAt int64 // epoch millis; zero means now
	Logf      func(format string, args ...any)
}

// CreatePatchRequest defines inputs for committing a new version.
type CreatePatchRequest struct {
	DocumentID string
	Content    []byte
	Timestamp  int64 // epoch millis; zero means now
	Logf       func(format string, args ...any)
}

// DocumentStats summarizes the stored history of one document.
type DocumentStats struct {
	PatchCount             int64   `json:"patch_count"`
	TotalDeltaBytes        int64   `json:"total_delta_bytes"`
	TotalUncompressedBytes int64   `json:"total_uncompressed_bytes"`
	CompressionRatio       float64 `json:"compression_ratio"`
}

// ImportRequest seeds or updates a document from a source URL. PDF,
// XLSX, XLS and DOCX sources have their text extracted; everything else
// is committed verbatim.
type ImportRequest struct {
	DocumentID string // existing document; empty creates one
	Name       string // name for a created document; defaults to the URL base
	SourceURL  string
	Timestamp  int64
	Logf       func(format string, args ...any)
}

// ImportResult reports an import outcome.
type ImportResult struct {
	DocumentID string `json:"document_id"`
	PatchID    string `json:"patch_id"`
	Bytes      int    `json:"bytes"`
}

// ExportRequest writes reconstructed content to a destination URL.
type ExportRequest struct {
	DocumentID string
	Timestamp  int64 // zero means now
	DestURL    string
	Logf       func(format string, args ...any)
}

// ReplicateRequest pushes documents and patches into a remote database.
type ReplicateRequest struct {
	Driver string
	DSN    string
	Batch  int
	Logf   func(format string, args ...any)
}

// ReplicateResult reports a replication outcome.
type ReplicateResult struct {
	Documents int `json:"documents"`
	Patches   int `json:"patches"`
}
