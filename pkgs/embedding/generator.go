package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Generator enforces the embedding contract on top of an Encoder: the
// canonical text is encoded unless it is empty, yields no tokens or encodes to
// a zero vector, in which case the raw text is encoded instead, and every returned vector has exactly
// Dimensions() finite components with a non-zero norm.
type Generator struct {
	encoder Encoder
	dim     int
}

func NewGenerator(encoder Encoder) *Generator {
	return &Generator{encoder: encoder, dim: encoder.Dimensions()}
}

func (g *Generator) Dimensions() int {
	return g.dim
}

func (g *Generator) Generate(ctx context.Context, canonical, raw string) ([]float32, error) {
	text := canonical
	if strings.TrimSpace(text) == "" {
		text = raw
	}

	vec, err := g.encoder.Encode(ctx, text)
	if text != raw && (errors.Is(err, ErrNoTokens) || (err == nil && isZero(vec))) {
		vec, err = g.encoder.Encode(ctx, raw)
	}
	if err != nil {
		return nil, &EncodingError{Err: err}
	}

	if err := g.validate(vec); err != nil {
		return nil, &EncodingError{Err: err}
	}
	return vec, nil
}

func (g *Generator) validate(vec []float32) error {
	if len(vec) != g.dim {
		return fmt.Errorf("encoder returned %d components, want %d", len(vec), g.dim)
	}

	var norm float64
	for i, x := range vec {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("component %d is not finite", i)
		}
		norm += f * f
	}
	if norm == 0 {
		return fmt.Errorf("encoder returned a zero vector")
	}
	return nil
}

func isZero(vec []float32) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}
