package embedding

import (
	"context"
	"fmt"

	"github.com/xhad/intentprep/internal/types"
)

// StoredSource puts a persistent vector store in front of an embedding
// source, so vectors computed in one run are reused by the next.
type StoredSource struct {
	source types.EmbeddingSource
	store  types.VectorStore
}

func NewStoredSource(source types.EmbeddingSource, store types.VectorStore) *StoredSource {
	return &StoredSource{source: source, store: store}
}

func (s *StoredSource) Dimension() int {
	return s.source.Dimension()
}

func (s *StoredSource) Vector(ctx context.Context, token string) ([]float32, error) {
	vector, ok, err := s.store.LookupVector(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token %q: %w", token, err)
	}
	if ok && len(vector) == s.source.Dimension() {
		return vector, nil
	}

	vector, err = s.source.Vector(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveVector(ctx, token, vector); err != nil {
		return nil, fmt.Errorf("failed to save token %q: %w", token, err)
	}
	return vector, nil
}
