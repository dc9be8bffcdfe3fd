package tweetrepo

import (
	"context"

	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/WangWilly/tweetsim/pkgs/vectorcodec"
	"github.com/jmoiron/sqlx"
)

// VectorStore binds a Repo to a database handle and decodes stored vectors.
type VectorStore struct {
	repo *Repo
	db   *sqlx.DB
}

func NewVectorStore(repo *Repo, db *sqlx.DB) *VectorStore {
	return &VectorStore{repo: repo, db: db}
}

func (s *VectorStore) GetVector(ctx context.Context, id int64) ([]float64, error) {
	raw, err := s.repo.GetVector(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	vec, err := vectorcodec.Decode(raw)
	if err != nil {
		return nil, &StorageError{Op: "decode vector", Err: err}
	}
	return vec, nil
}

func (s *VectorStore) ScanVectors(ctx context.Context, fn func(id int64, vec []float64) error) error {
	return s.repo.ScanVectors(ctx, s.db, func(tv model.TweetVector) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec, err := vectorcodec.Decode(tv.EmbeddingVector)
		if err != nil {
			return &StorageError{Op: "decode vector", Err: err}
		}
		return fn(tv.Id, vec)
	})
}
