package mcp

import (
	"github.com/viant/patchline/service"
	"github.com/viant/patchline/store"
)

type CreateDocumentInput struct {
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type CreateDocumentOutput struct {
	DocumentID string `json:"document_id"`
}

type CommitInput struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type CommitOutput struct {
	PatchID string `json:"patch_id"`
}

type LoadInput struct {
	DocumentID string `json:"document_id"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type LoadOutput struct {
	Content string `json:"content"`
}

type DocumentsInput struct{}

type DocumentsOutput struct {
	Documents []store.Document `json:"documents"`
}

type HistoryInput struct {
	DocumentID string `json:"document_id"`
}

type HistoryOutput struct {
	Timestamps []int64 `json:"timestamps"`
}

type StatsInput struct {
	DocumentID string `json:"document_id"`
}

type StatsOutput struct {
	Stats service.DocumentStats `json:"stats"`
}

type ClearCacheInput struct{}

type ClearCacheOutput struct {
	Cleared bool `json:"cleared"`
}
