package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNormalizer(t *testing.T, opts ...Option) *Normalizer {
	t.Helper()
	n, err := New(opts...)
	require.NoError(t, err)
	return n
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "punctuation", input: "Hello, world!", expected: []string{"Hello", "world"}},
		{name: "contraction", input: "I don't know", expected: []string{"I", "do", "n't", "know"}},
		{name: "possessive", input: "Biden’s plan", expected: []string{"Biden", "'s", "plan"}},
		{name: "hyphen", input: "well-known fact", expected: []string{"well", "known", "fact"}},
		{name: "url and mention", input: "@bob see https://t.co/x1", expected: []string{"@bob", "see", "https://t.co/x1"}},
		{name: "hashtag", input: "#Election2018 #vote", expected: []string{"Election2018", "vote"}},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	n := newNormalizer(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "stop words removed", input: "The cat is on the mat", expected: "cat mat"},
		{name: "lemmatized", input: "Voters were running to the polls", expected: "voter run poll"},
		{name: "order preserved", input: "Senators debated healthcare policies", expected: "senator debate healthcare policy"},
		{name: "non alphabetic dropped", input: "RT @user: 2018 midterms!!! https://t.co/abc", expected: "rt midterm"},
		{name: "only stop words", input: "and the of it", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_ExtraStopWords(t *testing.T) {
	n := newNormalizer(t, WithStopWords("RT"))
	assert.Equal(t, "midterm", n.Normalize("RT midterms"))
}

func TestRuleLemmatizer(t *testing.T) {
	l, err := NewRuleLemmatizer()
	require.NoError(t, err)

	cases := map[string]string{
		"went":     "go",
		"children": "child",
		"running":  "run",
		"making":   "make",
		"thinking": "think",
		"played":   "play",
		"stopped":  "stop",
		"tried":    "try",
		"stories":  "story",
		"boxes":    "box",
		"watches":  "watch",
		"created":  "create",
		"morning":  "morning",
		"news":     "news",
		"class":    "class",
		"cat":      "cat",
	}
	for word, lemma := range cases {
		assert.Equal(t, lemma, l.Lemma(word), word)
	}
}

func TestSnowballLemmatizer(t *testing.T) {
	l, err := NewLemmatizer(LEMMATIZER_SNOWBALL)
	require.NoError(t, err)
	assert.Equal(t, "run", l.Lemma("running"))

	_, err = NewLemmatizer("spacy")
	assert.Error(t, err)
}

func TestIsAlpha(t *testing.T) {
	assert.True(t, IsAlpha("café"))
	assert.False(t, IsAlpha("abc123"))
	assert.False(t, IsAlpha("n't"))
	assert.False(t, IsAlpha(""))
}
