// Package similarity ranks stored tweets by cosine similarity to a query tweet.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

// VectorSource supplies decoded vectors by id.
type VectorSource interface {
	GetVector(ctx context.Context, id int64) ([]float64, error)
	ScanVectors(ctx context.Context, fn func(id int64, vec []float64) error) error
}

type Match struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

type candidate struct {
	id  int64
	vec []float64
}

const batchSize = 256

////////////////////////////////////////////////////////////////////////////////

type Engine struct {
	source  VectorSource
	workers int
	pool    *ants.Pool

	useCache bool
	mu       sync.RWMutex
	cached   []candidate
	index    map[int64]int
}

type Option func(*Engine)

// WithWorkers scores candidates on a pool of n goroutines. n <= 1 scores
// sequentially.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithCache keeps decoded vectors in memory between queries until Invalidate.
func WithCache(enabled bool) Option {
	return func(e *Engine) {
		e.useCache = enabled
	}
}

func New(source VectorSource, opts ...Option) (*Engine, error) {
	e := &Engine{source: source, workers: 1}
	for _, opt := range opts {
		opt(e)
	}

	if e.workers > 1 {
		pool, err := ants.NewPool(e.workers)
		if err != nil {
			return nil, fmt.Errorf("failed to create scoring pool: %w", err)
		}
		e.pool = pool
	}
	return e, nil
}

func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Invalidate drops cached vectors so the next query reloads them.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = nil
	e.index = nil
}

////////////////////////////////////////////////////////////////////////////////

// TopKSimilar returns up to k stored tweets most similar to queryID, ordered
// by score descending then id ascending. The query tweet itself is excluded.
func (e *Engine) TopKSimilar(ctx context.Context, queryID int64, k int) ([]Match, error) {
	logger := log.WithFields(log.Fields{
		"caller":   "TopKSimilar",
		"query_id": queryID,
		"k":        k,
	})

	if k < 0 {
		return nil, ErrInvalidK
	}

	query, err := e.vector(ctx, queryID)
	if err != nil {
		if errors.Is(err, tweetrepo.ErrNotFound) {
			return nil, &NotFoundError{ID: queryID}
		}
		return nil, err
	}

	queryNorm := norm(query)
	if len(query) == 0 || queryNorm == 0 {
		return nil, &DegenerateVectorError{ID: queryID}
	}

	if k == 0 {
		return []Match{}, nil
	}

	matches, err := e.score(ctx, queryID, query, queryNorm, logger)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, compareMatches)
	if len(matches) > k {
		matches = matches[:k]
	}

	logger.WithField("results", len(matches)).Debug("similarity query done")
	return matches, nil
}

func compareMatches(a, b Match) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////

func (e *Engine) vector(ctx context.Context, id int64) ([]float64, error) {
	if e.useCache {
		if err := e.ensureCache(ctx); err != nil {
			return nil, err
		}
		e.mu.RLock()
		i, ok := e.index[id]
		var vec []float64
		if ok {
			vec = e.cached[i].vec
		}
		e.mu.RUnlock()
		if ok {
			return vec, nil
		}
	}
	return e.source.GetVector(ctx, id)
}

func (e *Engine) ensureCache(ctx context.Context) error {
	e.mu.RLock()
	loaded := e.index != nil
	e.mu.RUnlock()
	if loaded {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		return nil
	}

	cached := []candidate{}
	index := map[int64]int{}
	err := e.source.ScanVectors(ctx, func(id int64, vec []float64) error {
		index[id] = len(cached)
		cached = append(cached, candidate{id: id, vec: vec})
		return nil
	})
	if err != nil {
		return err
	}
	e.cached = cached
	e.index = index
	return nil
}

// forEachCandidate feeds every stored vector except queryID to fn, either
// from the cache or by streaming the source.
func (e *Engine) forEachCandidate(ctx context.Context, queryID int64, fn func(candidate) error) error {
	visit := func(c candidate) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.id == queryID {
			return nil
		}
		return fn(c)
	}

	if e.useCache {
		e.mu.RLock()
		cached := e.cached
		e.mu.RUnlock()
		if cached != nil {
			for _, c := range cached {
				if err := visit(c); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return e.source.ScanVectors(ctx, func(id int64, vec []float64) error {
		return visit(candidate{id: id, vec: vec})
	})
}

func (e *Engine) score(
	ctx context.Context,
	queryID int64,
	query []float64,
	queryNorm float64,
	logger *log.Entry,
) ([]Match, error) {
	scoreBatch := func(batch []candidate) []Match {
		out := make([]Match, 0, len(batch))
		for _, c := range batch {
			n := norm(c.vec)
			if n == 0 {
				logger.WithField("id", c.id).Warn("skipping candidate with zero-norm vector")
				continue
			}
			out = append(out, Match{ID: c.id, Score: cosine(query, queryNorm, c.vec, n)})
		}
		return out
	}

	var (
		matches []Match
		mu      sync.Mutex
		wg      sync.WaitGroup
		batch   = make([]candidate, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		current := batch
		batch = make([]candidate, 0, batchSize)

		if e.pool == nil {
			matches = append(matches, scoreBatch(current)...)
			return nil
		}

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			scored := scoreBatch(current)
			mu.Lock()
			matches = append(matches, scored...)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			return fmt.Errorf("failed to submit scoring task: %w", err)
		}
		return nil
	}

	err := e.forEachCandidate(ctx, queryID, func(c candidate) error {
		if len(c.vec) != len(query) {
			return &DimensionMismatchError{ID: c.id, Want: len(query), Got: len(c.vec)}
		}
		batch = append(batch, c)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	wg.Wait()
	if err != nil {
		return nil, err
	}

	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

////////////////////////////////////////////////////////////////////////////////

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	s := dot / (aNorm * bNorm)
	return max(-1, min(1, s))
}
