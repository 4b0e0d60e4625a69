package types

import (
	"context"

	"github.com/xhad/intentprep/internal/models"
)

// Core interfaces
type EmbeddingSource interface {
	Dimension() int
	Vector(ctx context.Context, token string) ([]float32, error)
}

type VectorStore interface {
	LookupVector(ctx context.Context, token string) ([]float32, bool, error)
	SaveVector(ctx context.Context, token string, vector []float32) error
	Close() error
}

type ContextStore interface {
	SaveContexts(ctx context.Context, set *models.ContextSet) error
	LoadContexts(ctx context.Context) (*models.ContextSet, error)
}

// Store is what the persistence backends provide.
type Store interface {
	VectorStore
	ContextStore
}

type Classifier interface {
	PredictBatch(ctx context.Context, inputs *models.Tensor) (abuse, intent []float32, err error)
}
