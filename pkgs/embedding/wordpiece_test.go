package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVocab = `[PAD]
[UNK]
[CLS]
[SEP]
vote
##s
un
##want
##ed
,
!
run`

func TestWordPiece_Tokenize(t *testing.T) {
	wp, err := ReadWordPiece(strings.NewReader(testVocab))
	require.NoError(t, err)

	assert.Equal(t, []string{"vote", "##s", ",", "un", "##want", "##ed", "!"}, wp.Tokenize("Votes, unwanted!"))
	assert.Equal(t, []string{TOKEN_UNK}, wp.Tokenize("xyz"))
	assert.Empty(t, wp.Tokenize("   "))
}

func TestWordPiece_Encode(t *testing.T) {
	wp, err := ReadWordPiece(strings.NewReader(testVocab))
	require.NoError(t, err)

	ids, n := wp.Encode("run votes", 512)
	assert.Equal(t, []int64{11, 4, 5}, ids)
	assert.Equal(t, 3, n)

	ids, n = wp.Encode("run votes", 2)
	assert.Equal(t, []int64{11, 4}, ids)
	assert.Equal(t, 3, n)

	ids, n = wp.Encode("", 512)
	assert.Empty(t, ids)
	assert.Zero(t, n)
}

func TestWordPiece_EncodeSingleTokenPool(t *testing.T) {
	wp, err := ReadWordPiece(strings.NewReader(testVocab))
	require.NoError(t, err)

	ids, n := wp.Encode("vote", 512)
	require.Equal(t, []int64{4}, ids)
	require.Equal(t, 1, n)

	// one hidden row per id; the pooled vector is the token's own state
	hidden := []float32{1}
	assert.Equal(t, []float32{1}, MeanPool(hidden, contentMask(len(ids)), 1))
}

func TestReadWordPiece_MissingUnknownToken(t *testing.T) {
	_, err := ReadWordPiece(strings.NewReader("[CLS]\nvote\nrun\n"))
	assert.Error(t, err)
}
