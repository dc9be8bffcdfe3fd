package similarity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/WangWilly/tweetsim/pkgs/vectorcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	ids   []int64
	vecs  map[int64][]float64
	scans int
}

func newMemorySource(vecs map[int64][]float64) *memorySource {
	src := &memorySource{vecs: vecs}
	for id := range vecs {
		src.ids = append(src.ids, id)
	}
	sort.Slice(src.ids, func(i, j int) bool { return src.ids[i] < src.ids[j] })
	return src
}

func (m *memorySource) GetVector(_ context.Context, id int64) ([]float64, error) {
	v, ok := m.vecs[id]
	if !ok {
		return nil, tweetrepo.ErrNotFound
	}
	return v, nil
}

func (m *memorySource) ScanVectors(ctx context.Context, fn func(int64, []float64) error) error {
	m.scans++
	for _, id := range m.ids {
		if err := fn(id, m.vecs[id]); err != nil {
			return err
		}
	}
	return nil
}

func newEngine(t *testing.T, src VectorSource, opts ...Option) *Engine {
	t.Helper()
	e, err := New(src, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

////////////////////////////////////////////////////////////////////////////////

func TestTopKSimilar_Basic(t *testing.T) {
	src := newMemorySource(map[int64][]float64{
		1: {1, 0},
		2: {1, 0},
		3: {0, 1},
	})
	e := newEngine(t, src)

	got, err := e.TopKSimilar(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-12)
	assert.Equal(t, int64(3), got[1].ID)
	assert.InDelta(t, 0.0, got[1].Score, 1e-12)
}

func TestTopKSimilar_Ordering(t *testing.T) {
	src := newMemorySource(map[int64][]float64{
		1: {1, 1},
		5: {2, 2},
		3: {1, 1},
		4: {-1, -1},
		2: {1, 0},
	})
	e := newEngine(t, src)

	got, err := e.TopKSimilar(context.Background(), 1, 10)
	require.NoError(t, err)

	ids := make([]int64, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	// 3 and 5 tie at 1.0 and are ordered by id.
	assert.Equal(t, []int64{3, 5, 2, 4}, ids)
	assert.InDelta(t, -1.0, got[3].Score, 1e-12)

	top, err := e.TopKSimilar(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, got[:2], top)

	none, err := e.TopKSimilar(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTopKSimilar_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown query", func(t *testing.T) {
		e := newEngine(t, newMemorySource(map[int64][]float64{1: {1}}))
		_, err := e.TopKSimilar(ctx, 9, 3)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, int64(9), nf.ID)
		assert.ErrorIs(t, err, tweetrepo.ErrNotFound)
		assert.Equal(t, KIND_NOT_FOUND, Kind(err))
	})

	t.Run("negative k", func(t *testing.T) {
		e := newEngine(t, newMemorySource(map[int64][]float64{1: {1}}))
		_, err := e.TopKSimilar(ctx, 1, -1)
		assert.ErrorIs(t, err, ErrInvalidK)
		assert.Equal(t, KIND_INVALID_ARGUMENT, Kind(err))
	})

	t.Run("zero query", func(t *testing.T) {
		e := newEngine(t, newMemorySource(map[int64][]float64{1: {0, 0}, 2: {1, 0}}))
		_, err := e.TopKSimilar(ctx, 1, 3)
		var dv *DegenerateVectorError
		require.ErrorAs(t, err, &dv)
		assert.Equal(t, KIND_INTEGRITY, Kind(err))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		e := newEngine(t, newMemorySource(map[int64][]float64{1: {1, 0}, 2: {1, 0, 0}}))
		_, err := e.TopKSimilar(ctx, 1, 3)
		var dm *DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Want)
		assert.Equal(t, 3, dm.Got)
		assert.Equal(t, int64(2), dm.ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		e := newEngine(t, newMemorySource(map[int64][]float64{1: {1, 0}, 2: {1, 0}}))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.TopKSimilar(cctx, 1, 3)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTopKSimilar_ZeroCandidateExcluded(t *testing.T) {
	e := newEngine(t, newMemorySource(map[int64][]float64{1: {1, 0}, 2: {0, 0}, 3: {0, 1}}))
	got, err := e.TopKSimilar(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestTopKSimilar_SingleRecord(t *testing.T) {
	e := newEngine(t, newMemorySource(map[int64][]float64{1: {1, 0}}))
	got, err := e.TopKSimilar(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTopKSimilar_WorkersMatchSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vecs := map[int64][]float64{}
	for id := int64(1); id <= 1000; id++ {
		v := make([]float64, 8)
		for i := range v {
			// coarse values produce exact ties
			v[i] = float64(rng.Intn(3) - 1)
		}
		v[0] += 0.5
		vecs[id] = v
	}
	src := newMemorySource(vecs)

	seq := newEngine(t, src)
	par := newEngine(t, src, WithWorkers(4))

	for _, q := range []int64{1, 17, 500, 1000} {
		want, err := seq.TopKSimilar(context.Background(), q, 25)
		require.NoError(t, err)
		got, err := par.TopKSimilar(context.Background(), q, 25)
		require.NoError(t, err)
		assert.Equal(t, want, got, fmt.Sprintf("query %d", q))

		for i := 1; i < len(got); i++ {
			prev, cur := got[i-1], got[i]
			assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.ID < cur.ID))
		}
		for _, m := range got {
			assert.NotEqual(t, q, m.ID)
			assert.LessOrEqual(t, m.Score, 1.0)
			assert.GreaterOrEqual(t, m.Score, -1.0)
		}
	}
}

func TestTopKSimilar_Cache(t *testing.T) {
	src := newMemorySource(map[int64][]float64{1: {1, 0}, 2: {1, 0}})
	e := newEngine(t, src, WithCache(true))
	ctx := context.Background()

	_, err := e.TopKSimilar(ctx, 1, 5)
	require.NoError(t, err)
	_, err = e.TopKSimilar(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, src.scans)

	src.vecs[3] = []float64{0, 1}
	src.ids = append(src.ids, 3)

	got, err := e.TopKSimilar(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	e.Invalidate()
	got, err = e.TopKSimilar(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, src.scans)
}

func TestKind(t *testing.T) {
	assert.Equal(t, KIND_NONE, Kind(nil))
	assert.Equal(t, KIND_UNKNOWN, Kind(errors.New("x")))
	assert.Equal(t, KIND_STORAGE, Kind(&tweetrepo.StorageError{Op: "scan", Err: errors.New("x")}))
	_, decodeErr := vectorcodec.Decode("[1, x]")
	assert.Equal(t, KIND_INTEGRITY, Kind(&tweetrepo.StorageError{Op: "decode vector", Err: decodeErr}))
	assert.Equal(t, KIND_INTEGRITY, Kind(&DimensionMismatchError{ID: 1, Want: 2, Got: 3}))
}
