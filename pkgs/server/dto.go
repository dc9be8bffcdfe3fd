package server

import (
	"github.com/WangWilly/tweetsim/pkgs/frequency"
	"github.com/WangWilly/tweetsim/pkgs/ingestion"
	"github.com/WangWilly/tweetsim/pkgs/model"
)

const DATE_LAYOUT = "2006-01-02"

type TweetResponse struct {
	ID           int64   `json:"id"`
	CreatedAt    string  `json:"created_at"`
	Lang         string  `json:"lang"`
	Text         string  `json:"text"`
	FullText     string  `json:"full_text"`
	Sentiment    string  `json:"sentiment"`
	SentimentVal float64 `json:"sentiment_val"`
}

type TweetsResponse struct {
	Total  int64           `json:"total,omitempty"`
	Tweets []TweetResponse `json:"tweets"`
}

type SimilarTweet struct {
	Score float64       `json:"score"`
	Tweet TweetResponse `json:"tweet"`
}

type SimilarTweetsResponse struct {
	Query   TweetResponse  `json:"query"`
	Results []SimilarTweet `json:"results"`
}

type MostFrequentResponse struct {
	Words []frequency.WordCount `json:"words"`
}

type IngestResponse struct {
	RunID     string   `json:"run_id"`
	Lines     int      `json:"lines"`
	Committed int      `json:"committed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func toTweetResponse(t *model.Tweet) TweetResponse {
	return TweetResponse{
		ID:           t.Id,
		CreatedAt:    t.CreatedAt.Format(DATE_LAYOUT),
		Lang:         t.Lang,
		Text:         t.Text,
		FullText:     t.FullText,
		Sentiment:    t.Sentiment,
		SentimentVal: t.SentimentVal,
	}
}

func toTweetResponses(tweets []*model.Tweet) []TweetResponse {
	out := make([]TweetResponse, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, toTweetResponse(t))
	}
	return out
}

func toIngestResponse(report *ingestion.Report) IngestResponse {
	errs := make([]string, 0, len(report.Errors))
	for _, err := range report.Errors {
		errs = append(errs, err.Error())
	}
	return IngestResponse{
		RunID:     report.RunID,
		Lines:     report.Lines,
		Committed: report.Committed,
		Skipped:   report.Skipped,
		Errors:    errs,
	}
}
