// Package ingestion turns a line-delimited JSON tweet feed into stored,
// embedded and sentiment-scored tweets.
package ingestion

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/embedding"
	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/WangWilly/tweetsim/pkgs/sentiment"
	"github.com/WangWilly/tweetsim/pkgs/textnorm"
	"github.com/WangWilly/tweetsim/pkgs/vectorcodec"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const maxLineBytes = 4 * 1024 * 1024

type TweetRepo interface {
	Create(ctx context.Context, db *sqlx.DB, tweet *model.Tweet) error
}

type Report struct {
	RunID     string
	Lines     int
	Committed int
	Skipped   int
	Errors    []error
	Duration  time.Duration
}

////////////////////////////////////////////////////////////////////////////////

type Pipeline struct {
	normalizer *textnorm.Normalizer
	generator  *embedding.Generator
	analyzer   *sentiment.Analyzer
	repo       TweetRepo
	db         *sqlx.DB

	onCommit func(*model.Tweet)
}

type Option func(*Pipeline)

// WithOnCommit registers a hook run after every committed tweet.
func WithOnCommit(fn func(*model.Tweet)) Option {
	return func(p *Pipeline) {
		p.onCommit = fn
	}
}

func New(
	normalizer *textnorm.Normalizer,
	generator *embedding.Generator,
	analyzer *sentiment.Analyzer,
	repo TweetRepo,
	db *sqlx.DB,
	opts ...Option,
) (*Pipeline, error) {
	switch {
	case normalizer == nil:
		return nil, ErrNormalizerNeeded
	case generator == nil:
		return nil, ErrGeneratorRequired
	case analyzer == nil:
		return nil, ErrAnalyzerRequired
	case repo == nil:
		return nil, ErrRepoRequired
	}

	p := &Pipeline{
		normalizer: normalizer,
		generator:  generator,
		analyzer:   analyzer,
		repo:       repo,
		db:         db,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

////////////////////////////////////////////////////////////////////////////////

// Run ingests r line by line. Bad lines and encoder failures are recorded in
// the report and skipped. A storage failure stops the run and is returned
// together with the partial report.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.New().String()}
	logger := log.WithFields(log.Fields{
		"caller": "Pipeline.Run",
		"run_id": report.RunID,
	})
	logger.Info("ingestion started")

	finish := func(err error) (*Report, error) {
		report.Duration = time.Since(start)
		entry := logger.WithFields(log.Fields{
			"lines":     report.Lines,
			"committed": report.Committed,
			"skipped":   report.Skipped,
			"duration":  report.Duration,
		})
		if err != nil {
			entry.WithError(err).Error("ingestion aborted")
		} else {
			entry.Info("ingestion finished")
		}
		return report, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		report.Lines++

		tweet, err := p.process(ctx, lineNo, line)
		if err != nil {
			if !isRecordError(err) {
				return finish(err)
			}
			report.Skipped++
			report.Errors = append(report.Errors, err)
			logger.WithFields(log.Fields{
				"line": lineNo,
				"kind": errorKind(err),
			}).WithError(err).Error("skipping feed line")
			continue
		}

		report.Committed++
		logger.WithFields(log.Fields{
			"line":      lineNo,
			"id":        tweet.Id,
			"sentiment": tweet.Sentiment,
		}).Debug("tweet committed")
		if p.onCommit != nil {
			p.onCommit(tweet)
		}
	}
	if err := scanner.Err(); err != nil {
		return finish(fmt.Errorf("failed to read feed: %w", err))
	}
	return finish(nil)
}

func (p *Pipeline) process(ctx context.Context, lineNo int, line string) (*model.Tweet, error) {
	parsed, err := parseLine(line)
	if err != nil {
		return nil, &InputError{Line: lineNo, Err: err}
	}

	canonical := p.normalizer.Normalize(parsed.Text)

	vec, err := p.generator.Generate(ctx, canonical, parsed.FullText)
	if err != nil {
		return nil, &LineError{Line: lineNo, Err: err}
	}

	score, label := p.analyzer.Analyze(canonical)

	tweet := &model.Tweet{
		CreatedAt:       parsed.CreatedAt,
		Lang:            parsed.Lang,
		Text:            canonical,
		FullText:        parsed.FullText,
		Sentiment:       string(label),
		SentimentVal:    score,
		EmbeddingVector: vectorcodec.EncodeFloat32(vec),
	}

	if err := p.repo.Create(ctx, p.db, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

func errorKind(err error) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return "input"
	}
	return "encoding"
}

// isRecordError reports whether err only affects its own feed line.
func isRecordError(err error) bool {
	var inputErr *InputError
	var lineErr *LineError
	return errors.As(err, &inputErr) || errors.As(err, &lineErr)
}
