package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/patchline/service"
)

//go:embed tools/create.md
var descCreate string

//go:embed tools/commit.md
var descCommit string

//go:embed tools/load.md
var descLoad string

//go:embed tools/documents.md
var descDocuments string

//go:embed tools/history.md
var descHistory string

//go:embed tools/stats.md
var descStats string

//go:embed tools/clearcache.md
var descClearCache string

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if err := protoserver.RegisterTool[*CreateDocumentInput, *CreateDocumentOutput](registry, "createDocument", descCreate, func(ctx context.Context, in *CreateDocumentInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.createDocument(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*CommitInput, *CommitOutput](registry, "commit", descCommit, func(ctx context.Context, in *CommitInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.commit(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*LoadInput, *LoadOutput](registry, "load", descLoad, func(ctx context.Context, in *LoadInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.load(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*DocumentsInput, *DocumentsOutput](registry, "documents", descDocuments, func(ctx context.Context, in *DocumentsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.documents(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*HistoryInput, *HistoryOutput](registry, "history", descHistory, func(ctx context.Context, in *HistoryInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.history(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*StatsInput, *StatsOutput](registry, "stats", descStats, func(ctx context.Context, in *StatsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.stats(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ClearCacheInput, *ClearCacheOutput](registry, "clearCache", descClearCache, func(ctx context.Context, in *ClearCacheInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.clearCache(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	return nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}

func (h *Handler) createDocument(ctx context.Context, in *CreateDocumentInput) (*CreateDocumentOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &CreateDocumentInput{}
	}
	if in.Name == "" {
		return nil, fmt.Errorf("mcp: missing name")
	}
	id, err := h.service.CreateDocument(ctx, service.CreateDocumentRequest{Name: in.Name, CreatedAt: in.CreatedAt})
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=createDocument document=%s dur=%s", id, time.Since(start))
	}
	return &CreateDocumentOutput{DocumentID: id}, nil
}

func (h *Handler) commit(ctx context.Context, in *CommitInput) (*CommitOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &CommitInput{}
	}
	if in.DocumentID == "" {
		return nil, fmt.Errorf("mcp: missing document_id")
	}
	patchID, err := h.service.CreatePatch(ctx, service.CreatePatchRequest{
		DocumentID: in.DocumentID,
		Content:    []byte(in.Content),
		Timestamp:  in.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=commit document=%s patch=%s dur=%s", in.DocumentID, patchID, time.Since(start))
	}
	return &CommitOutput{PatchID: patchID}, nil
}

func (h *Handler) load(ctx context.Context, in *LoadInput) (*LoadOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &LoadInput{}
	}
	if in.DocumentID == "" {
		return nil, fmt.Errorf("mcp: missing document_id")
	}
	timestamp := in.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	content, err := h.service.LoadText(ctx, in.DocumentID, timestamp)
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=load document=%s bytes=%d dur=%s", in.DocumentID, len(content), time.Since(start))
	}
	return &LoadOutput{Content: content}, nil
}

func (h *Handler) documents(ctx context.Context, _ *DocumentsInput) (*DocumentsOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	docs, err := h.service.Documents(ctx)
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=documents count=%d dur=%s", len(docs), time.Since(start))
	}
	return &DocumentsOutput{Documents: docs}, nil
}

func (h *Handler) history(ctx context.Context, in *HistoryInput) (*HistoryOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &HistoryInput{}
	}
	if in.DocumentID == "" {
		return nil, fmt.Errorf("mcp: missing document_id")
	}
	timestamps, err := h.service.PatchTimestamps(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=history document=%s count=%d dur=%s", in.DocumentID, len(timestamps), time.Since(start))
	}
	return &HistoryOutput{Timestamps: timestamps}, nil
}

func (h *Handler) stats(ctx context.Context, in *StatsInput) (*StatsOutput, error) {
	start := time.Now()
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &StatsInput{}
	}
	if in.DocumentID == "" {
		return nil, fmt.Errorf("mcp: missing document_id")
	}
	stats, err := h.service.Stats(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}
	if h.metricsLog {
		log.Printf("mcp metric op=stats document=%s patches=%d dur=%s", in.DocumentID, stats.PatchCount, time.Since(start))
	}
	return &StatsOutput{Stats: stats}, nil
}

func (h *Handler) clearCache(_ context.Context, _ *ClearCacheInput) (*ClearCacheOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	h.service.ClearCache()
	return &ClearCacheOutput{Cleared: true}, nil
}
