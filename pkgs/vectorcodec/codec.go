// Package vectorcodec converts embedding vectors to and from the bracketed,
// comma-separated text form stored in the embedding_vector column.
package vectorcodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const separator = ", "

// FormatError is returned when a stored vector cannot be parsed as a flat
// numeric sequence.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed vector %q: %v", truncate(e.Input, 48), e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

////////////////////////////////////////////////////////////////////////////////

// Encode renders v using the shortest representation that parses back to the
// exact same float64, e.g. "[0.5, -1.25e-07, 3]".
func Encode(v []float64) string {
	var sb strings.Builder
	sb.Grow(len(v)*20 + 2)
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}

// EncodeFloat32 widens v to float64 before encoding. Widening is exact, so
// Decode(EncodeFloat32(v))[i] == float64(v[i]).
func EncodeFloat32(v []float32) string {
	wide := make([]float64, len(v))
	for i, x := range v {
		wide[i] = float64(x)
	}
	return Encode(wide)
}

// Decode parses the output of Encode. It also accepts JSON arrays and the
// repr of a Python list of floats, which share the same layout.
func Decode(s string) ([]float64, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, &FormatError{Input: s, Err: fmt.Errorf("missing enclosing brackets")}
	}

	body := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if body == "" {
		return []float64{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &FormatError{Input: s, Err: fmt.Errorf("empty component at index %d", i)}
		}
		x, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, &FormatError{Input: s, Err: fmt.Errorf("component %d: %w", i, err)}
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, &FormatError{Input: s, Err: fmt.Errorf("component %d is not finite", i)}
		}
		out[i] = x
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
