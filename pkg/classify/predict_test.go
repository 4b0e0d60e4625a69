package classify_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/intentprep/internal/models"
	"github.com/xhad/intentprep/pkg/classify"
	"github.com/xhad/intentprep/pkg/dataset"
	"github.com/xhad/intentprep/pkg/embedding"
)

type constantSource struct{}

func (constantSource) Dimension() int { return 2 }

func (constantSource) Vector(_ context.Context, token string) ([]float32, error) {
	return []float32{float32(len(token)), 1}, nil
}

// tokenCounter scores each document by how many non-zero token slots it has.
type tokenCounter struct {
	calls int
	err   error
	short bool
}

func (c *tokenCounter) PredictBatch(_ context.Context, inputs *models.Tensor) ([]float32, []float32, error) {
	c.calls++
	if c.err != nil {
		return nil, nil, c.err
	}

	rows := inputs.Shape[0]
	if c.short {
		rows--
	}

	abuse := make([]float32, rows)
	intent := make([]float32, rows)
	for d := 0; d < rows; d++ {
		for t := 0; t < inputs.Shape[1]; t++ {
			if inputs.Vector(d, t)[1] != 0 {
				abuse[d]++
			}
		}
		intent[d] = float32(d)
	}
	return abuse, intent, nil
}

func newSequence(t *testing.T, documents []string, labels []float64) *embedding.Sequence {
	t.Helper()
	cache, err := embedding.NewCache(constantSource{}, 2)
	require.NoError(t, err)
	seq, err := embedding.NewSequence(cache, documents, labels, embedding.SequenceConfig{BatchSize: 2, MaxTokens: 4})
	require.NoError(t, err)
	return seq
}

func TestPredict(t *testing.T) {
	seq := newSequence(t, []string{"one", "one two", "one two three", "a b c d e f", "x"}, nil)
	model := &tokenCounter{}

	var progress []int
	predictions, err := classify.Predict(context.Background(), seq, model, classify.PredictConfig{
		OnBatch: func(done int) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.Equal(t, 3, model.calls)
	assert.Equal(t, []float32{1, 2, 3, 4, 1}, predictions.Abuse)
	assert.Equal(t, []float32{0, 1, 0, 1, 0}, predictions.Intent)
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestPredict_RestoresTrainingMode(t *testing.T) {
	seq := newSequence(t, []string{"a", "b", "c"}, []float64{0.1, 0.9, 0.6})
	require.NoError(t, seq.SetMask([]bool{true, false, false}))
	require.NoError(t, seq.SetTraining(true))

	predictions, err := classify.Predict(context.Background(), seq, &tokenCounter{}, classify.PredictConfig{})
	require.NoError(t, err)

	// Inference covers every document, not just the masked subset.
	assert.Len(t, predictions.Abuse, 3)
	assert.True(t, seq.Training())
	assert.Equal(t, 1, seq.Size())
}

func TestPredict_Errors(t *testing.T) {
	seq := newSequence(t, []string{"a", "b", "c"}, nil)

	_, err := classify.Predict(context.Background(), seq, &tokenCounter{err: errors.New("model offline")}, classify.PredictConfig{})
	assert.ErrorContains(t, err, "model offline")

	_, err = classify.Predict(context.Background(), seq, &tokenCounter{short: true}, classify.PredictConfig{})
	assert.ErrorContains(t, err, "for 2 documents")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = classify.Predict(ctx, seq, &tokenCounter{}, classify.PredictConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSavePredictions(t *testing.T) {
	dir := t.TempDir()
	predictions := &models.Predictions{
		Abuse:  []float32{0.25, 0.5},
		Intent: []float32{1, 0},
	}

	require.NoError(t, classify.SavePredictions(dir, predictions))

	abuse, err := dataset.LoadVector(filepath.Join(dir, "abuse.csv"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5}, abuse)

	intent, err := dataset.LoadVector(filepath.Join(dir, "intent.csv"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, intent)
}
