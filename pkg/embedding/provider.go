package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DenseEmbedder turns text into a unit-length dense vector.
type DenseEmbedder interface {
	EmbedDense(ctx context.Context, text string) ([]float32, error)
}

// SparseEmbedder turns text into SPLADE-style term weights keyed by vocabulary index.
type SparseEmbedder interface {
	EmbedSparse(ctx context.Context, text string) (map[int32]float32, error)
}

func checkDimensions(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
// Cosine distance in pgvector and RediSearch assumes comparable magnitudes.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
