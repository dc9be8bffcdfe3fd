package server

import (
	"context"
	"io"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/ingestion"
	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/WangWilly/tweetsim/pkgs/similarity"
	"github.com/jmoiron/sqlx"
)

type TweetRepo interface {
	GetById(ctx context.Context, db *sqlx.DB, id int64) (*model.Tweet, error)
	List(ctx context.Context, db *sqlx.DB, skip, limit int) ([]*model.Tweet, error)
	ListByDate(ctx context.Context, db *sqlx.DB, start, end time.Time) ([]*model.Tweet, error)
	ListByKeyword(ctx context.Context, db *sqlx.DB, keyword string) ([]*model.Tweet, error)
	ListTexts(ctx context.Context, db *sqlx.DB) ([]string, error)
	Count(ctx context.Context, db *sqlx.DB) (int64, error)
}

type SimilarityEngine interface {
	TopKSimilar(ctx context.Context, queryID int64, k int) ([]similarity.Match, error)
}

type Ingester interface {
	Run(ctx context.Context, r io.Reader) (*ingestion.Report, error)
}
