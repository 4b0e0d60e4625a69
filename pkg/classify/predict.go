// Package classify drives a classifier over an embedded batch sequence.
package classify

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xhad/intentprep/internal/models"
	"github.com/xhad/intentprep/internal/types"
	"github.com/xhad/intentprep/pkg/dataset"
)

// Batches is the part of embedding.Sequence the driver needs.
type Batches interface {
	Training() bool
	SetTraining(training bool) error
	Size() int
	Len() int
	Batch(ctx context.Context, index int) (models.Batch, error)
}

type PredictConfig struct {
	// OnBatch is called after each batch with the number of batches done.
	OnBatch func(done int)
}

// Predict makes one inference-mode pass over batches and returns abuse and
// intent scores in document order. The sequence's mode is restored afterwards.
func Predict(ctx context.Context, batches Batches, model types.Classifier, config PredictConfig) (*models.Predictions, error) {
	wasTraining := batches.Training()
	if wasTraining {
		if err := batches.SetTraining(false); err != nil {
			return nil, err
		}
		defer batches.SetTraining(true)
	}

	size := batches.Size()
	predictions := &models.Predictions{
		Abuse:  make([]float32, 0, size),
		Intent: make([]float32, 0, size),
	}

	for i := 0; i < batches.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := batches.Batch(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d: %w", i, err)
		}

		abuse, intent, err := model.PredictBatch(ctx, batch.Inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to predict batch %d: %w", i, err)
		}

		rows := batch.Inputs.Shape[0]
		if len(abuse) != rows || len(intent) != rows {
			return nil, fmt.Errorf("batch %d: classifier returned %d abuse and %d intent scores for %d documents",
				i, len(abuse), len(intent), rows)
		}

		predictions.Abuse = append(predictions.Abuse, abuse...)
		predictions.Intent = append(predictions.Intent, intent...)

		if config.OnBatch != nil {
			config.OnBatch(i + 1)
		}
	}

	return predictions, nil
}

// SavePredictions writes abuse.csv and intent.csv into dir.
func SavePredictions(dir string, predictions *models.Predictions) error {
	if err := dataset.SaveVector(filepath.Join(dir, "abuse.csv"), predictions.Abuse); err != nil {
		return err
	}
	return dataset.SaveVector(filepath.Join(dir, "intent.csv"), predictions.Intent)
}
