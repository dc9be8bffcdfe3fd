// Package server exposes stored tweets, similarity search and word
// frequencies over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const (
	DEFAULT_LIMIT = 100
	DEFAULT_TOP_N = 10
	MAX_LIMIT     = 1000

	MAX_FEED_BYTES = 64 << 20
)

type Server struct {
	db   *sqlx.DB
	addr string

	tweetRepo TweetRepo
	engine    SimilarityEngine
	ingester  Ingester

	server *http.Server
}

type Option func(*Server)

// WithIngester enables POST /tweets/ingest.
func WithIngester(ing Ingester) Option {
	return func(s *Server) {
		s.ingester = ing
	}
}

func NewServerWithConfig(db *sqlx.DB, addr string, engine SimilarityEngine, opts ...Option) *Server {
	s := &Server{
		db:        db,
		addr:      addr,
		tweetRepo: tweetrepo.New(),
		engine:    engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/tweets", func(r chi.Router) {
		r.Get("/", s.handleListTweets)
		r.Get("/by_date", s.handleTweetsByDate)
		r.Get("/by_keyword", s.handleTweetsByKeyword)
		r.Get("/{id}", s.handleGetTweet)
		if s.ingester != nil {
			r.Post("/ingest", s.handleIngest)
		}
	})
	r.Get("/similar_tweets", s.handleSimilarTweets)
	r.Get("/most_frequent", s.handleMostFrequent)

	return r
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"caller": "Server.Start",
		"addr":   s.addr,
	}).Info("Starting server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
