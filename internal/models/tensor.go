package models

// Tensor is a dense row-major float32 array of rank three:
// (documents, tokens, embedding dimension).
type Tensor struct {
	Shape [3]int
	Data  []float32
}

// NewTensor returns a zero-initialised tensor of the given shape.
func NewTensor(documents, tokens, dimension int) *Tensor {
	return &Tensor{
		Shape: [3]int{documents, tokens, dimension},
		Data:  make([]float32, documents*tokens*dimension),
	}
}

func (t *Tensor) offset(document, token int) int {
	return (document*t.Shape[1] + token) * t.Shape[2]
}

// Vector returns the embedding slot for one token position. The returned
// slice aliases the tensor's storage.
func (t *Tensor) Vector(document, token int) []float32 {
	start := t.offset(document, token)
	return t.Data[start : start+t.Shape[2]]
}

// SetVector copies v into the slot for one token position.
func (t *Tensor) SetVector(document, token int, v []float32) {
	copy(t.Vector(document, token), v)
}
