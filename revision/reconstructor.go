// Package revision resolves document content from patch chains and
// selects the cheapest base when a new version is committed. Each patch
// references its base through a tag embedded in the delta: tag N means
// the base sits N versions back among this document's earlier patches.
package revision

import (
	"context"
	"fmt"

	"github.com/viant/patchline/cache"
	"github.com/viant/patchline/codec"
	"github.com/viant/patchline/store"
)

// Reconstructor replays a document's patch chain to materialize exact
// content at a target timestamp. Given an unchanged store, the result
// is a pure function of (document, timestamp) regardless of cache state.
type Reconstructor struct {
	store *store.Store
	cache *cache.Cache
	codec *codec.Codec
}

// NewReconstructor creates a Reconstructor.
func NewReconstructor(st *store.Store, ca *cache.Cache, co *codec.Codec) *Reconstructor {
	return &Reconstructor{store: st, cache: ca, codec: co}
}

// Reconstruct returns the content of a document as of the given
// timestamp. A document with no patches at or before the timestamp
// yields empty content, not an error.
//
// Patches are walked in ascending timestamp order: bases only reference
// earlier versions, so each patch's base is already resolved by the
// time the patch is reached. Every successful resolution is committed
// to the cache before the walk proceeds; a decode failure aborts the
// call without writing further entries.
func (r *Reconstructor) Reconstruct(ctx context.Context, documentID string, asOf int64) ([]byte, error) {
	patches, err := r.store.PatchesUpTo(ctx, documentID, asOf)
	if err != nil {
		return nil, err
	}
	if len(patches) == 0 {
		return nil, nil
	}
	resolved := make(map[int64][]byte, len(patches))
	for i, patch := range patches {
		key := cache.Key{DocumentID: documentID, PatchID: patch.UUID}
		if content, ok := r.cache.Get(key); ok {
			resolved[patch.Timestamp] = content
			continue
		}
		tag := 0
		if patch.Delta != nil {
			tag = r.codec.Tag(patch.Delta)
		}
		var base []byte
		if idx := i - tag - 1; idx >= 0 {
			base = resolved[patches[idx].Timestamp]
		}
		content := base
		if patch.Delta != nil {
			if content, err = r.codec.Decode(base, patch.Delta); err != nil {
				return nil, fmt.Errorf("revision: patch %s at %d: %w", patch.UUID, patch.Timestamp, err)
			}
		}
		resolved[patch.Timestamp] = content
		r.cache.Put(key, content)
	}
	return resolved[patches[len(patches)-1].Timestamp], nil
}
