package tweetrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/jmoiron/sqlx"
)

////////////////////////////////////////////////////////////////////////////////

var ErrNotFound = errors.New("tweet not found")

// StorageError wraps any failure reported by the database driver.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

////////////////////////////////////////////////////////////////////////////////

const tweetColumns = `id, created_at, lang, text, full_text, sentiment, sentiment_val, embedding_vector`

type Repo struct{}

func New() *Repo {
	return &Repo{}
}

// Create inserts the tweet in its own transaction and sets tweet.Id.
func (r *Repo) Create(ctx context.Context, db *sqlx.DB, tweet *model.Tweet) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("begin", err)
	}
	defer tx.Rollback()

	stmt := db.Rebind(`INSERT INTO tweets(created_at, lang, text, full_text, sentiment, sentiment_val, embedding_vector)
			VALUES(?, ?, ?, ?, ?, ?, ?)
			RETURNING id`)

	var id int64
	err = tx.QueryRowxContext(
		ctx,
		stmt,
		tweet.CreatedAt,
		tweet.Lang,
		tweet.Text,
		tweet.FullText,
		tweet.Sentiment,
		tweet.SentimentVal,
		tweet.EmbeddingVector,
	).Scan(&id)
	if err != nil {
		return wrap("insert", err)
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit", err)
	}

	tweet.Id = id
	return nil
}

func (r *Repo) GetById(ctx context.Context, db *sqlx.DB, id int64) (*model.Tweet, error) {
	stmt := db.Rebind(`SELECT ` + tweetColumns + ` FROM tweets WHERE id=?`)
	result := &model.Tweet{}
	err := db.GetContext(ctx, result, stmt, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get", err)
	}
	return result, nil
}

// GetVector returns only the stored vector text of a tweet.
func (r *Repo) GetVector(ctx context.Context, db *sqlx.DB, id int64) (string, error) {
	stmt := db.Rebind(`SELECT embedding_vector FROM tweets WHERE id=?`)
	var vector string
	err := db.GetContext(ctx, &vector, stmt, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrap("get vector", err)
	}
	return vector, nil
}

////////////////////////////////////////////////////////////////////////////////

// ScanAll streams every tweet in id order. Returning an error from fn stops
// the scan and the error is returned unchanged.
func (r *Repo) ScanAll(ctx context.Context, db *sqlx.DB, fn func(*model.Tweet) error) error {
	rows, err := db.QueryxContext(ctx, `SELECT `+tweetColumns+` FROM tweets ORDER BY id`)
	if err != nil {
		return wrap("scan all", err)
	}
	defer rows.Close()

	for rows.Next() {
		tweet := &model.Tweet{}
		if err := rows.StructScan(tweet); err != nil {
			return wrap("scan all", err)
		}
		if err := fn(tweet); err != nil {
			return err
		}
	}
	return wrap("scan all", rows.Err())
}

// ScanVectors streams (id, embedding_vector) pairs in id order.
func (r *Repo) ScanVectors(ctx context.Context, db *sqlx.DB, fn func(model.TweetVector) error) error {
	rows, err := db.QueryxContext(ctx, `SELECT id, embedding_vector FROM tweets ORDER BY id`)
	if err != nil {
		return wrap("scan vectors", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tv model.TweetVector
		if err := rows.StructScan(&tv); err != nil {
			return wrap("scan vectors", err)
		}
		if err := fn(tv); err != nil {
			return err
		}
	}
	return wrap("scan vectors", rows.Err())
}

// ListTexts returns the canonical text of every tweet in id order.
func (r *Repo) ListTexts(ctx context.Context, db *sqlx.DB) ([]string, error) {
	var texts []string
	err := db.SelectContext(ctx, &texts, `SELECT text FROM tweets ORDER BY id`)
	if err != nil {
		return nil, wrap("list texts", err)
	}
	return texts, nil
}

////////////////////////////////////////////////////////////////////////////////

func (r *Repo) List(ctx context.Context, db *sqlx.DB, skip, limit int) ([]*model.Tweet, error) {
	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("skip and limit must be non-negative")
	}
	stmt := db.Rebind(`SELECT ` + tweetColumns + ` FROM tweets ORDER BY id LIMIT ? OFFSET ?`)
	tweets := []*model.Tweet{}
	if err := db.SelectContext(ctx, &tweets, stmt, limit, skip); err != nil {
		return nil, wrap("list", err)
	}
	return tweets, nil
}

// ListByDate returns tweets whose date lies in [start, end], both inclusive.
func (r *Repo) ListByDate(ctx context.Context, db *sqlx.DB, start, end time.Time) ([]*model.Tweet, error) {
	stmt := db.Rebind(`SELECT ` + tweetColumns + ` FROM tweets
			WHERE created_at >= ? AND created_at <= ?
			ORDER BY created_at, id`)
	tweets := []*model.Tweet{}
	if err := db.SelectContext(ctx, &tweets, stmt, model.DateOf(start), model.DateOf(end)); err != nil {
		return nil, wrap("list by date", err)
	}
	return tweets, nil
}

// ListByKeyword matches the keyword case-insensitively and literally against
// the raw text. SQL LOWER folds ASCII only on SQLite, so keywords with
// non-ASCII letters are matched in Go.
func (r *Repo) ListByKeyword(ctx context.Context, db *sqlx.DB, keyword string) ([]*model.Tweet, error) {
	needle := strings.ToLower(keyword)
	tweets := []*model.Tweet{}

	if !isASCII(needle) {
		err := r.ScanAll(ctx, db, func(t *model.Tweet) error {
			if strings.Contains(strings.ToLower(t.FullText), needle) {
				tweets = append(tweets, t)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return tweets, nil
	}

	stmt := db.Rebind(`SELECT ` + tweetColumns + ` FROM tweets
			WHERE LOWER(full_text) LIKE ? ESCAPE '\'
			ORDER BY id`)
	pattern := "%" + likeEscaper.Replace(needle) + "%"
	if err := db.SelectContext(ctx, &tweets, stmt, pattern); err != nil {
		return nil, wrap("list by keyword", err)
	}
	return tweets, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (r *Repo) Count(ctx context.Context, db *sqlx.DB) (int64, error) {
	var count int64
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tweets`); err != nil {
		return 0, wrap("count", err)
	}
	return count, nil
}
