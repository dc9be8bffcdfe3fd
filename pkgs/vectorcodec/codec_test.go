package vectorcodec

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "[]", Encode(nil))
	assert.Equal(t, "[1, 0]", Encode([]float64{1, 0}))
	assert.Equal(t, "[0.5, -1.25e-07, 3]", Encode([]float64{0.5, -1.25e-07, 3}))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for dim := 0; dim < 64; dim += 7 {
		v := make([]float64, dim)
		for i := range v {
			v[i] = rng.NormFloat64() * math.Pow(10, float64(rng.Intn(20)-10))
		}

		got, err := Decode(Encode(v))
		require.NoError(t, err)
		require.Len(t, got, dim)
		for i := range v {
			assert.InDelta(t, v[i], got[i], 1e-9)
			assert.Equal(t, v[i], got[i], "shortest repr must round-trip exactly")
		}
	}
}

func TestRoundTripFloat32(t *testing.T) {
	v := []float32{0.1, -0.333, 1e-30, 3.4e38}

	got, err := Decode(EncodeFloat32(v))
	require.NoError(t, err)
	for i := range v {
		assert.Equal(t, float64(v[i]), got[i])
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []float64
	}{
		{name: "python list repr", input: "[0.12, -0.5, 3.0]", expected: []float64{0.12, -0.5, 3}},
		{name: "json array", input: "[1e-3,2,-4.5E+2]", expected: []float64{0.001, 2, -450}},
		{name: "surrounding whitespace", input: "  [ 1 , 2 ]\n", expected: []float64{1, 2}},
		{name: "empty", input: "[]", expected: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecode_FormatError(t *testing.T) {
	inputs := []string{
		"",
		"1, 2",
		"[1, 2",
		"[[1, 2], [3, 4]]",
		"[1,,2]",
		"[1, two]",
		"[NaN, 1]",
		"[inf]",
		"{\"a\": 1}",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Decode(input)
			require.Error(t, err)

			var formatErr *FormatError
			assert.True(t, errors.As(err, &formatErr))
			assert.Equal(t, input, formatErr.Input)
		})
	}
}
