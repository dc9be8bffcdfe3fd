package model

import (
	"time"
)

// Tweet is one ingested record. Text holds the canonical (cleaned) text and
// FullText the raw text as received.
type Tweet struct {
	Id              int64     `db:"id"`
	CreatedAt       time.Time `db:"created_at"`
	Lang            string    `db:"lang"`
	Text            string    `db:"text"`
	FullText        string    `db:"full_text"`
	Sentiment       string    `db:"sentiment"`
	SentimentVal    float64   `db:"sentiment_val"`
	EmbeddingVector string    `db:"embedding_vector"`
}

// TweetVector is the projection used by full-table vector scans.
type TweetVector struct {
	Id              int64  `db:"id"`
	EmbeddingVector string `db:"embedding_vector"`
}

// DisplayText returns the raw text when present, the canonical text otherwise.
func (t *Tweet) DisplayText() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
