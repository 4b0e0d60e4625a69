package models

// ContextIndex links a context back to the document it was split from.
// ContextIndex restarts at zero for every document.
type ContextIndex struct {
	DocumentIndex int
	ContextIndex  int
}

// ContextSet is the flattened output of context splitting. Contexts and
// Indexes always have the same length and the same order.
type ContextSet struct {
	Contexts []string
	Indexes  []ContextIndex
}

func (c *ContextSet) Len() int {
	return len(c.Contexts)
}

// Append adds the contexts of one document, numbering them from zero.
func (c *ContextSet) Append(documentIndex int, contexts []string) {
	for i, context := range contexts {
		c.Contexts = append(c.Contexts, context)
		c.Indexes = append(c.Indexes, ContextIndex{
			DocumentIndex: documentIndex,
			ContextIndex:  i,
		})
	}
}

// Batch is one slice of a batch sequence converted for model consumption.
// Labels and Weights are nil outside training mode.
type Batch struct {
	Inputs  *Tensor
	Labels  []bool
	Weights []float32
}

// Predictions holds per-document classifier output in document order.
type Predictions struct {
	Abuse  []float32
	Intent []float32
}
