// Package sentiment scores text polarity and derives the stored label.
package sentiment

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Label is the categorical sentiment stored next to the score.
type Label string

const (
	LABEL_POSITIVE Label = "Positive"
	LABEL_NEGATIVE Label = "Negative"
	LABEL_NEUTRAL  Label = "Neutral"
)

// LabelOf is Positive for score > 0, Negative for score < 0, Neutral for 0.
func LabelOf(score float64) Label {
	switch {
	case score > 0:
		return LABEL_POSITIVE
	case score < 0:
		return LABEL_NEGATIVE
	default:
		return LABEL_NEUTRAL
	}
}

////////////////////////////////////////////////////////////////////////////////

//go:embed lexicon.yaml
var lexiconYAML []byte

type lexicon struct {
	Polarity     map[string]float64 `yaml:"polarity"`
	Intensifiers map[string]float64 `yaml:"intensifiers"`
}

// Analyzer is a lexicon polarity scorer over canonical text: the score is the
// mean polarity of the matched words, each scaled by a preceding intensifier,
// clamped to [-1, 1]. Negations and stop-word intensifiers ("very") are gone
// after normalization, so the lexicon only carries words that survive it.
type Analyzer struct {
	lex lexicon
}

func NewAnalyzer() (*Analyzer, error) {
	var lex lexicon
	if err := yaml.Unmarshal(lexiconYAML, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment lexicon: %w", err)
	}

	return &Analyzer{lex: lex}, nil
}

func (a *Analyzer) Score(text string) float64 {
	words := strings.Fields(strings.ToLower(text))

	var sum float64
	var matched int
	for i, w := range words {
		polarity, ok := a.lex.Polarity[strings.Trim(w, ".,!?;:\"")]
		if !ok {
			continue
		}

		if i > 0 {
			if factor, ok := a.lex.Intensifiers[words[i-1]]; ok {
				polarity *= factor
			}
		}

		sum += polarity
		matched++
	}

	if matched == 0 {
		return 0
	}
	return clamp(sum/float64(matched), -1, 1)
}

// Analyze returns the score and its label.
func (a *Analyzer) Analyze(text string) (float64, Label) {
	score := a.Score(text)
	return score, LabelOf(score)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
