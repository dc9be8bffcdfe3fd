package frequency

import (
	"testing"

	"github.com/WangWilly/tweetsim/pkgs/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	texts := []string{
		"vote early vote often",
		"early voter turnout",
		"vote",
	}

	tests := []struct {
		name string
		n    int
		want []WordCount
	}{
		{"top one", 1, []WordCount{{"vote", 3}}},
		{"ties by word", 3, []WordCount{{"vote", 3}, {"early", 2}, {"often", 1}}},
		{"whole vocabulary", 5, []WordCount{{"vote", 3}, {"early", 2}, {"often", 1}, {"turnout", 1}, {"voter", 1}}},
		{"zero", 0, []WordCount{}},
		{"negative", -2, []WordCount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rank(texts, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRank_TooLarge(t *testing.T) {
	_, err := Rank([]string{"a b"}, 3)
	assert.ErrorIs(t, err, ErrRankTooLarge)
	assert.ErrorContains(t, err, "only 2 distinct words")

	_, err = Rank(nil, 1)
	assert.ErrorIs(t, err, ErrRankTooLarge)
}

func TestRankRaw(t *testing.T) {
	normalizer, err := textnorm.New()
	require.NoError(t, err)

	got, err := RankRaw(normalizer, []string{
		"The voters are voting!",
		"A voter voted @someone https://t.co/x",
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, []WordCount{{"vote", 2}, {"voter", 2}}, got)
}
