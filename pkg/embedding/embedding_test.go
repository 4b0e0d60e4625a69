package embedding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/intentprep/pkg/embedding"
)

// fakeSource embeds a token as a vector filled with its length.
type fakeSource struct {
	dimension int
	calls     map[string]int
	fail      map[string]bool
	short     bool
}

func newFakeSource(dimension int) *fakeSource {
	return &fakeSource{dimension: dimension, calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeSource) Dimension() int {
	return f.dimension
}

func (f *fakeSource) Vector(_ context.Context, token string) ([]float32, error) {
	f.calls[token]++
	if f.fail[token] {
		return nil, errors.New("source unavailable")
	}

	n := f.dimension
	if f.short {
		n--
	}
	vector := make([]float32, n)
	for i := range vector {
		vector[i] = float32(len(token))
	}
	return vector, nil
}

func (f *fakeSource) total() int {
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func TestCache_Memoises(t *testing.T) {
	source := newFakeSource(4)
	cache, err := embedding.NewCache(source, 4)
	require.NoError(t, err)

	first, err := cache.Get(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls["hello"])
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Get(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls["Hello"])
	assert.Equal(t, 2, cache.Len())
}

func TestCache_DimensionMismatch(t *testing.T) {
	_, err := embedding.NewCache(newFakeSource(4), 8)
	assert.ErrorIs(t, err, embedding.ErrDimensionMismatch)

	source := newFakeSource(4)
	source.short = true
	cache, err := embedding.NewCache(source, 4)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "word")
	assert.ErrorIs(t, err, embedding.ErrDimensionMismatch)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_SourceError(t *testing.T) {
	source := newFakeSource(2)
	source.fail["bad"] = true
	cache, err := embedding.NewCache(source, 2)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "bad")
	assert.ErrorContains(t, err, "source unavailable")
	assert.Equal(t, 0, cache.Len())
}

// fakeStore is an in-memory vector store.
type fakeStore struct {
	vectors map[string][]float32
	saves   int
}

func (f *fakeStore) LookupVector(_ context.Context, token string) ([]float32, bool, error) {
	v, ok := f.vectors[token]
	return v, ok, nil
}

func (f *fakeStore) SaveVector(_ context.Context, token string, vector []float32) error {
	f.vectors[token] = vector
	f.saves++
	return nil
}

func (f *fakeStore) Close() error {
	return nil
}

func TestStoredSource(t *testing.T) {
	source := newFakeSource(3)
	store := &fakeStore{vectors: make(map[string][]float32)}

	stored := embedding.NewStoredSource(source, store)
	assert.Equal(t, 3, stored.Dimension())

	v, err := stored.Vector(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 3}, v)
	assert.Equal(t, 1, store.saves)

	// A later run with a cold cache reads from the store.
	again := embedding.NewStoredSource(source, store)
	v, err = again.Vector(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 3}, v)
	assert.Equal(t, 1, source.calls["abc"])
}
