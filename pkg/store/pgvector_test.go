package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/intentprep/internal/models"
	"github.com/xhad/intentprep/pkg/store"
)

func getTestConfig(t *testing.T) store.VectorStoreConfig {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	return store.VectorStoreConfig{
		ConnString: url,
		TableName:  "test_tokens",
		VectorDim:  3,
	}
}

func TestVectorStore(t *testing.T) {
	ctx := context.Background()

	s, err := store.NewWithConfig(getTestConfig(t))
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.LookupVector(ctx, "missing-token")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveVector(ctx, "hello", []float32{0.5, -1, 2}))
	v, found, err := s.LookupVector(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float32{0.5, -1, 2}, v)

	set := &models.ContextSet{}
	set.Append(0, []string{"check this out", "url this is great wow"})
	set.Append(2, []string{"second doc here"})
	require.NoError(t, s.SaveContexts(ctx, set))

	loaded, err := s.LoadContexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.Contexts, loaded.Contexts)
	assert.Equal(t, set.Indexes, loaded.Indexes)
}
