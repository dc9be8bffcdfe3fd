// Package textnorm turns raw tweet text into its canonical form: stop-words
// and non-alphabetic tokens are removed and the rest are lemmatized.
package textnorm

import (
	_ "embed"
	"strings"
	"unicode"
)

//go:embed stopwords.txt
var stopwordsTXT string

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	stopwords  map[string]struct{}
	lemmatizer Lemmatizer
}

type Option func(*Normalizer)

// WithLemmatizer replaces the default rule-based lemmatizer.
func WithLemmatizer(l Lemmatizer) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.lemmatizer = l
		}
	}
}

// WithStopWords adds words to the built-in English stop-word list.
func WithStopWords(words ...string) Option {
	return func(n *Normalizer) {
		for _, w := range words {
			n.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

func New(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{stopwords: DefaultStopWords()}
	for _, opt := range opts {
		opt(n)
	}
	if n.lemmatizer == nil {
		l, err := NewRuleLemmatizer()
		if err != nil {
			return nil, err
		}
		n.lemmatizer = l
	}
	return n, nil
}

// DefaultStopWords returns a fresh copy of the embedded English list.
func DefaultStopWords() map[string]struct{} {
	words := strings.Fields(stopwordsTXT)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

////////////////////////////////////////////////////////////////////////////////

// Normalize returns the retained lemmas joined by single spaces. Empty input
// and input with nothing retained both yield "".
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

// Tokens returns the retained lemmas in source order.
func (n *Normalizer) Tokens(text string) []string {
	raw := Split(text)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !IsAlpha(tok) {
			continue
		}
		lower := strings.ToLower(tok)
		if n.IsStopWord(lower) {
			continue
		}
		if lemma := n.lemmatizer.Lemma(lower); lemma != "" {
			out = append(out, lemma)
		}
	}
	return out
}

func (n *Normalizer) IsStopWord(word string) bool {
	_, ok := n.stopwords[strings.ToLower(word)]
	return ok
}

////////////////////////////////////////////////////////////////////////////////

// Split breaks text into surface tokens. URLs and @mentions stay whole so the
// alphabetic filter drops them; other words are split at punctuation, and
// contractions are split into word and clitic ("don't" -> "do", "n't").
func Split(text string) []string {
	var out []string
	for _, field := range strings.Fields(text) {
		if isURL(field) || strings.HasPrefix(field, "@") {
			out = append(out, field)
			continue
		}
		for _, piece := range strings.FieldsFunc(field, isSeparator) {
			out = append(out, splitClitic(piece)...)
		}
	}
	return out
}

// IsAlpha reports whether tok is non-empty and made of letters only.
func IsAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
}

func splitClitic(piece string) []string {
	piece = strings.ReplaceAll(piece, "’", "'")
	piece = strings.Trim(piece, "'")
	if piece == "" {
		return nil
	}

	lower := strings.ToLower(piece)
	if strings.HasSuffix(lower, "n't") && len(piece) > 3 {
		return []string{piece[:len(piece)-3], piece[len(piece)-3:]}
	}
	if i := strings.IndexByte(piece, '\''); i > 0 {
		return []string{piece[:i], piece[i:]}
	}
	return []string{piece}
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")
}
