package service

import (
	"context"
)

// Stats aggregates the stored history of a document. Uncompressed size
// is computed by reconstructing every version, so the first call is
// O(versions x chain length); repeated calls are cache-accelerated.
func (s *Service) Stats(ctx context.Context, documentID string) (DocumentStats, error) {
	st, err := s.ensureStore(ctx)
	if err != nil {
		return DocumentStats{}, err
	}
	if _, err := st.Document(ctx, documentID); err != nil {
		return DocumentStats{}, err
	}
	aggregate, err := st.PatchStats(ctx, documentID)
	if err != nil {
		return DocumentStats{}, err
	}
	timestamps, err := st.PatchTimestamps(ctx, documentID)
	if err != nil {
		return DocumentStats{}, err
	}
	var uncompressed int64
	for _, timestamp := range timestamps {
		content, err := s.recon.Reconstruct(ctx, documentID, timestamp)
		if err != nil {
			return DocumentStats{}, err
		}
		uncompressed += int64(len(content))
	}
	ratio := 1.0
	if aggregate.DeltaBytes > 0 {
		ratio = float64(uncompressed) / float64(aggregate.DeltaBytes)
	}
	return DocumentStats{
		PatchCount:             aggregate.Count,
		TotalDeltaBytes:        aggregate.DeltaBytes,
		TotalUncompressedBytes: uncompressed,
		CompressionRatio:       ratio,
	}, nil
}
