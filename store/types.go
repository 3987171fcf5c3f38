package store

// Document is a named version history root.
type Document struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Patch is one persisted version delta. A nil Delta means the content
// equals the base verbatim.
type Patch struct {
	UUID         string `json:"uuid"`
	DocumentUUID string `json:"document_uuid"`
	Timestamp    int64  `json:"timestamp"`
	Delta        []byte `json:"delta,omitempty"`
}

// PatchStats aggregates the persisted patches of one document.
type PatchStats struct {
	Count      int64 `json:"count"`
	DeltaBytes int64 `json:"delta_bytes"`
}
