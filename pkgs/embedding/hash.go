package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashEncoder maps each lower-cased word onto a signed bucket. Texts that
// share words share components, so cosine similarity behaves sensibly
// without a model. Output is deterministic and unnormalized.
type HashEncoder struct {
	dimensions int
}

func NewHashEncoder(dimensions int) *HashEncoder {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &HashEncoder{dimensions: dimensions}
}

func (e *HashEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, ErrNoTokens
	}

	vec := make([]float32, e.dimensions)
	for _, w := range words {
		h := fnv.New64a()
		h.Write([]byte(w))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	return vec, nil
}

func (e *HashEncoder) Dimensions() int {
	return e.dimensions
}

func (e *HashEncoder) Close() error {
	return nil
}
