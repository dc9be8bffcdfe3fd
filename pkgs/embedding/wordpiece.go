package embedding

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

const (
	TOKEN_UNK = "[UNK]"

	maxWordChars = 100
)

// WordPiece is an uncased BERT tokenizer: basic whitespace/punctuation
// splitting followed by greedy longest-match-first subword lookup.
type WordPiece struct {
	vocab map[string]int64
	unkID int64
}

// LoadWordPiece reads a vocab.txt file (one token per line, id = line number).
func LoadWordPiece(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()
	return ReadWordPiece(f)
}

func ReadWordPiece(r io.Reader) (*WordPiece, error) {
	vocab := make(map[string]int64)
	scan := bufio.NewScanner(r)
	var id int64
	for scan.Scan() {
		vocab[strings.TrimRight(scan.Text(), "\r")] = id
		id++
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}

	unk, ok := vocab[TOKEN_UNK]
	if !ok {
		return nil, fmt.Errorf("vocab is missing %s", TOKEN_UNK)
	}
	return &WordPiece{vocab: vocab, unkID: unk}, nil
}

// Tokenize returns subword tokens without special tokens.
func (wp *WordPiece) Tokenize(text string) []string {
	var out []string
	for _, word := range basicSplit(strings.ToLower(text)) {
		out = append(out, wp.wordPieces(word)...)
	}
	return out
}

// Encode returns the content token ids truncated to maxTokens, and the number
// of content tokens before truncation. No [CLS]/[SEP] is added, so mean
// pooling covers the text's own tokens only.
func (wp *WordPiece) Encode(text string, maxTokens int) ([]int64, int) {
	tokens := wp.Tokenize(text)
	if maxTokens < 1 {
		maxTokens = 1
	}

	limit := len(tokens)
	if limit > maxTokens {
		limit = maxTokens
	}

	ids := make([]int64, 0, limit)
	for _, tok := range tokens[:limit] {
		ids = append(ids, wp.id(tok))
	}
	return ids, len(tokens)
}

func (wp *WordPiece) id(token string) int64 {
	if v, ok := wp.vocab[token]; ok {
		return v
	}
	return wp.unkID
}

func (wp *WordPiece) wordPieces(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []string{TOKEN_UNK}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		found := ""
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := wp.vocab[sub]; ok {
				found = sub
				break
			}
		}
		if found == "" {
			return []string{TOKEN_UNK}
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

// basicSplit splits on whitespace and makes every punctuation rune its own word.
func basicSplit(text string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}
