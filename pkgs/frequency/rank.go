// Package frequency ranks the words of stored canonical texts by count.
package frequency

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/WangWilly/tweetsim/pkgs/textnorm"
)

var ErrRankTooLarge = errors.New("rank exceeds vocabulary size")

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Rank counts the whitespace separated words of texts and returns the n most
// frequent, ordered by count descending then word ascending.
func Rank(texts []string, n int) ([]WordCount, error) {
	counts := map[string]int{}
	for _, text := range texts {
		for _, word := range strings.Fields(text) {
			counts[word]++
		}
	}
	return top(counts, n)
}

// RankRaw normalizes raw texts first so counts line up with stored canonical text.
func RankRaw(normalizer *textnorm.Normalizer, texts []string, n int) ([]WordCount, error) {
	canonical := make([]string, 0, len(texts))
	for _, text := range texts {
		canonical = append(canonical, normalizer.Normalize(text))
	}
	return Rank(canonical, n)
}

func top(counts map[string]int, n int) ([]WordCount, error) {
	if n <= 0 {
		return []WordCount{}, nil
	}
	if n > len(counts) {
		return nil, fmt.Errorf("%w: there are only %d distinct words, asked for %d", ErrRankTooLarge, len(counts), n)
	}

	ranked := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, WordCount{Word: word, Count: count})
	}
	slices.SortFunc(ranked, func(a, b WordCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Word, b.Word)
	})
	return ranked[:n], nil
}
