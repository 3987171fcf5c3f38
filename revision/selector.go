package revision

import (
	"context"

	"github.com/viant/patchline/codec"
	"github.com/viant/patchline/store"
)

// DefaultWindow bounds how many prior versions a commit considers as
// delta bases.
const DefaultWindow = 16

// Selector searches a bounded window of prior versions for the base
// that yields the smallest encoded delta for new content.
type Selector struct {
	store  *store.Store
	recon  *Reconstructor
	codec  *codec.Codec
	window int
}

// NewSelector creates a Selector. window <= 0 falls back to DefaultWindow.
func NewSelector(st *store.Store, recon *Reconstructor, co *codec.Codec, window int) *Selector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Selector{store: st, recon: recon, codec: co, window: window}
}

// SelectBase returns the (tag, delta) pair with the smallest delta for
// newContent among the window of versions strictly before asOf. With no
// prior versions the content is encoded against an empty base under
// tag 0. Ties keep the lowest tag: the scan proceeds from the most
// recent version outward and only a strictly smaller delta wins.
func (s *Selector) SelectBase(ctx context.Context, documentID string, newContent []byte, asOf int64) (int, []byte, error) {
	timestamps, err := s.store.RecentTimestamps(ctx, documentID, asOf, s.window)
	if err != nil {
		return 0, nil, err
	}
	if len(timestamps) == 0 {
		delta, err := s.codec.Encode(0, nil, newContent, true)
		return 0, delta, err
	}
	bestTag := 0
	var bestDelta []byte
	for tag, timestamp := range timestamps {
		base, err := s.recon.Reconstruct(ctx, documentID, timestamp)
		if err != nil {
			return 0, nil, err
		}
		delta, err := s.codec.Encode(tag, base, newContent, true)
		if err != nil {
			return 0, nil, err
		}
		if bestDelta == nil || len(delta) < len(bestDelta) {
			bestTag, bestDelta = tag, delta
		}
	}
	return bestTag, bestDelta, nil
}
