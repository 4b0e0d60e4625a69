package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/xhad/intentprep/internal/models"
)

type SequenceConfig struct {
	BatchSize int
	MaxTokens int
	// Midpoint splits soft labels into classes and anchors sample weights.
	Midpoint float64
	// UniformWeights gives every sample a weight of 1.
	UniformWeights bool
}

// Sequence serves documents as fixed-size batches of token embeddings,
// computed when a batch is requested.
//
// Mode and mask are independent: the mask selects the working subset, and
// training mode decides whether that subset (with labels) or the full
// document set is served.
type Sequence struct {
	config SequenceConfig
	cache  *Cache

	documents []string
	labels    []float64

	mask          []int
	workingDocs   []string
	workingLabels []float64

	training bool
}

// NewSequence builds an inference-mode sequence. labels may be nil; when
// given there must be one per document.
func NewSequence(cache *Cache, documents []string, labels []float64, config SequenceConfig) (*Sequence, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 512
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 200
	}
	if config.Midpoint == 0 {
		config.Midpoint = 0.5
	}

	if labels != nil && len(labels) != len(documents) {
		return nil, fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(documents), len(labels))
	}

	s := &Sequence{
		config:    config,
		cache:     cache,
		documents: documents,
		labels:    copyLabels(labels),
	}
	s.derive()
	return s, nil
}

// SetTraining switches between training and inference mode.
func (s *Sequence) SetTraining(training bool) error {
	if training && s.labels == nil {
		return ErrNoLabels
	}
	s.training = training
	return nil
}

func (s *Sequence) Training() bool {
	return s.training
}

// SetMask selects the working subset with a boolean mask over the full
// document set. A nil mask restores the full set.
func (s *Sequence) SetMask(mask []bool) error {
	if mask == nil {
		s.mask = nil
		s.derive()
		return nil
	}
	if len(mask) != len(s.documents) {
		return fmt.Errorf("%w: mask has %d entries, %d documents", ErrLengthMismatch, len(mask), len(s.documents))
	}

	indexes := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indexes = append(indexes, i)
		}
	}
	s.mask = indexes
	s.derive()
	return nil
}

// SetMaskIndexes selects the working subset by document position, in the
// order given.
func (s *Sequence) SetMaskIndexes(indexes []int) error {
	if indexes == nil {
		return s.SetMask(nil)
	}
	for _, i := range indexes {
		if i < 0 || i >= len(s.documents) {
			return fmt.Errorf("%w: mask index %d, %d documents", ErrIndexOutOfRange, i, len(s.documents))
		}
	}

	s.mask = append([]int(nil), indexes...)
	s.derive()
	return nil
}

func (s *Sequence) Masked() bool {
	return s.mask != nil
}

// UpdateLabels replaces the full label array and re-applies the current mask.
func (s *Sequence) UpdateLabels(labels []float64) error {
	if len(labels) != len(s.documents) {
		return fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(s.documents), len(labels))
	}

	s.labels = copyLabels(labels)
	s.derive()
	return nil
}

func (s *Sequence) derive() {
	if s.mask == nil {
		s.workingDocs = s.documents
		s.workingLabels = s.labels
		return
	}

	s.workingDocs = make([]string, len(s.mask))
	for i, index := range s.mask {
		s.workingDocs[i] = s.documents[index]
	}

	s.workingLabels = nil
	if s.labels != nil {
		s.workingLabels = make([]float64, len(s.mask))
		for i, index := range s.mask {
			s.workingLabels[i] = s.labels[index]
		}
	}
}

// Size is the number of documents served in the current mode.
func (s *Sequence) Size() int {
	if s.training {
		return len(s.workingDocs)
	}
	return len(s.documents)
}

// Len is the number of batches in the current mode.
func (s *Sequence) Len() int {
	return (s.Size() + s.config.BatchSize - 1) / s.config.BatchSize
}

// Batch embeds batch index. Inputs has shape (documents, MaxTokens,
// dimension); positions past a document's last token stay zero. In training
// mode Labels and Weights are filled as well.
func (s *Sequence) Batch(ctx context.Context, index int) (models.Batch, error) {
	if index < 0 || index >= s.Len() {
		return models.Batch{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, s.Len())
	}

	start := index * s.config.BatchSize
	end := min(start+s.config.BatchSize, s.Size())

	source := s.documents
	if s.training {
		source = s.workingDocs
	}

	inputs, err := s.embed(ctx, source[start:end])
	if err != nil {
		return models.Batch{}, err
	}

	batch := models.Batch{Inputs: inputs}
	if s.training {
		batch.Labels, batch.Weights = s.targets(s.workingLabels[start:end])
	}
	return batch, nil
}

func (s *Sequence) embed(ctx context.Context, documents []string) (*models.Tensor, error) {
	tensor := models.NewTensor(len(documents), s.config.MaxTokens, s.cache.Dimension())

	for d, document := range documents {
		tokens := strings.Fields(document)
		if len(tokens) > s.config.MaxTokens {
			tokens = tokens[:s.config.MaxTokens]
		}

		for t, token := range tokens {
			vector, err := s.cache.Get(ctx, token)
			if err != nil {
				return nil, err
			}
			tensor.SetVector(d, t, vector)
		}
	}
	return tensor, nil
}

func (s *Sequence) targets(labels []float64) ([]bool, []float32) {
	classes := make([]bool, len(labels))
	weights := make([]float32, len(labels))
	for i, label := range labels {
		classes[i] = label > s.config.Midpoint
		weights[i] = s.weight(label)
	}
	return classes, weights
}

func (s *Sequence) weight(label float64) float32 {
	if s.config.UniformWeights {
		return 1
	}
	return float32(2 * math.Abs(label-s.config.Midpoint))
}

func copyLabels(labels []float64) []float64 {
	if labels == nil {
		return nil
	}
	return append([]float64(nil), labels...)
}
