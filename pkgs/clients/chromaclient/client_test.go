package chromaclient

import (
	"testing"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/model"
	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	tweets := []*model.Tweet{
		{Id: 1, CreatedAt: time.Date(2018, 11, 1, 0, 0, 0, 0, time.UTC), Lang: "en", Text: "vote", FullText: "Vote!", Sentiment: "Neutral", EmbeddingVector: "[0.5, -0.25]"},
		{Id: 7, CreatedAt: time.Date(2018, 11, 2, 0, 0, 0, 0, time.UTC), Lang: "en", Text: "rally", Sentiment: "Positive", EmbeddingVector: "[1, 0]"},
	}

	b, err := newBatch(tweets)
	require.NoError(t, err)
	assert.Equal(t, []chroma.DocumentID{"tweet-1", "tweet-7"}, b.ids)
	assert.Equal(t, []string{"Vote!", "rally"}, b.texts)
	assert.Len(t, b.metadatas, 2)
	assert.Len(t, b.embeddings, 2)
}

func TestNewBatch_BadVector(t *testing.T) {
	_, err := newBatch([]*model.Tweet{{Id: 3, EmbeddingVector: "not a vector"}})
	assert.ErrorContains(t, err, "tweet 3")
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -2}, toFloat32([]float64{0.5, -2}))
}
