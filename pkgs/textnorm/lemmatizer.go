package textnorm

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"gopkg.in/yaml.v3"
)

const (
	LEMMATIZER_RULES    = "rules"
	LEMMATIZER_SNOWBALL = "snowball"
)

// Lemmatizer reduces a lower-cased word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// NewLemmatizer returns the lemmatizer registered under mode.
func NewLemmatizer(mode string) (Lemmatizer, error) {
	switch mode {
	case "", LEMMATIZER_RULES:
		return NewRuleLemmatizer()
	case LEMMATIZER_SNOWBALL:
		return SnowballLemmatizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported lemmatizer: %s", mode)
	}
}

////////////////////////////////////////////////////////////////////////////////

//go:embed lemmas.yaml
var lemmasYAML []byte

type lemmaTable struct {
	Irregular map[string]string `yaml:"irregular"`
	Keep      []string          `yaml:"keep"`
}

// RuleLemmatizer applies an irregular-form table and then English suffix
// rules for plurals, -ing and -ed forms.
type RuleLemmatizer struct {
	irregular map[string]string
	keep      map[string]struct{}
}

func NewRuleLemmatizer() (*RuleLemmatizer, error) {
	var table lemmaTable
	if err := yaml.Unmarshal(lemmasYAML, &table); err != nil {
		return nil, fmt.Errorf("failed to parse lemma table: %w", err)
	}

	keep := make(map[string]struct{}, len(table.Keep))
	for _, w := range table.Keep {
		keep[w] = struct{}{}
	}
	return &RuleLemmatizer{irregular: table.Irregular, keep: keep}, nil
}

func (l *RuleLemmatizer) Lemma(word string) string {
	if base, ok := l.irregular[word]; ok {
		return base
	}
	if _, ok := l.keep[word]; ok {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ied") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case hasAnySuffix(word, "xes", "ches", "shes", "zzes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ing"):
		return restoreStem(word, word[:len(word)-3])
	case strings.HasSuffix(word, "eed"):
		return word
	case strings.HasSuffix(word, "ed"):
		return restoreStem(word, word[:len(word)-2])
	case strings.HasSuffix(word, "s") && len(word) > 3 && !hasAnySuffix(word, "ss", "us", "is", "'s"):
		return word[:len(word)-1]
	}
	return word
}

// restoreStem undoes consonant doubling ("running") and the dropped final
// "e" ("making") after an -ing/-ed suffix was removed.
func restoreStem(word, stem string) string {
	if len(stem) < 3 || !containsVowel(stem) {
		return word
	}

	n := len(stem)
	last, prev := stem[n-1], stem[n-2]
	if last == prev && !isVowel(last) && last != 'l' && last != 's' && last != 'z' {
		return stem[:n-1]
	}
	if n == 3 && !isVowel(stem[0]) && isVowel(prev) && !isVowel(last) && last != 'w' && last != 'x' && last != 'y' {
		return stem + "e"
	}
	if hasAnySuffix(stem, "at", "iz", "bl", "v", "dg") && !hasAnySuffix(stem, "eat", "oat") {
		return stem + "e"
	}
	return stem
}

////////////////////////////////////////////////////////////////////////////////

// SnowballLemmatizer approximates lemmas with the Snowball English stemmer.
// Stems are not always dictionary words ("happi").
type SnowballLemmatizer struct{}

func (SnowballLemmatizer) Lemma(word string) string {
	env := snowballstem.NewEnv(word)
	english.Stem(env)
	return env.Current()
}

////////////////////////////////////////////////////////////////////////////////

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func containsVowel(s string) bool {
	for i := 0; i < len(s); i++ {
		if isVowel(s[i]) || (i > 0 && s[i] == 'y') {
			return true
		}
	}
	return false
}
