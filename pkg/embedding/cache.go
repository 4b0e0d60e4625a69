package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/xhad/intentprep/internal/types"
)

// Cache memoises token vectors from an embedding source. Entries are never
// evicted; vocabulary is bounded in practice.
type Cache struct {
	source    types.EmbeddingSource
	dimension int

	mu      sync.Mutex
	entries map[string][]float32
}

// NewCache fails when the source's dimension differs from the configured one.
func NewCache(source types.EmbeddingSource, dimension int) (*Cache, error) {
	if got := source.Dimension(); got != dimension {
		return nil, fmt.Errorf("%w: configured %d, source reports %d", ErrDimensionMismatch, dimension, got)
	}

	return &Cache{
		source:    source,
		dimension: dimension,
		entries:   make(map[string][]float32),
	}, nil
}

func (c *Cache) Dimension() int {
	return c.dimension
}

// Get returns the vector for token, asking the source only on first use.
func (c *Cache) Get(ctx context.Context, token string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vector, ok := c.entries[token]; ok {
		return vector, nil
	}

	vector, err := c.source.Vector(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to embed token %q: %w", token, err)
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: token %q has %d values, want %d", ErrDimensionMismatch, token, len(vector), c.dimension)
	}

	c.entries[token] = vector
	return vector, nil
}

// Len reports the number of cached tokens.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
