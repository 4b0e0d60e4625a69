package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/xhad/intentprep/internal/types"
)

const (
	BackendNone     = "none"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var ErrUnknownBackend = errors.New("unknown store backend")

type Config struct {
	Backend   string
	URL       string
	Path      string
	TableName string
	VectorDim int
}

// Open returns the configured backend. The none backend yields a nil store.
func Open(ctx context.Context, config Config) (types.Store, error) {
	switch config.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	case BackendPostgres:
		s, err := NewWithConfig(VectorStoreConfig{
			ConnString: config.URL,
			TableName:  config.TableName,
			VectorDim:  config.VectorDim,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}
