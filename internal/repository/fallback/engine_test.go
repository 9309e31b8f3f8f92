package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annotation(id string, createdAt time.Time, deleted bool) *entity.Annotation {
	return &entity.Annotation{
		AuthorId:  id,
		Content:   id,
		CreatedAt: createdAt,
		IsDeleted: deleted,
	}
}

// fakeSource scripts per-strategy outcomes for Fetch and Watch.
type fakeSource struct {
	mu      sync.Mutex
	results map[Strategy][]*entity.Annotation
	errs    map[Strategy]error
	calls   []Strategy

	watchers map[Strategy]*fakeWatcher
	watchErr map[Strategy]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		results:  make(map[Strategy][]*entity.Annotation),
		errs:     make(map[Strategy]error),
		watchers: make(map[Strategy]*fakeWatcher),
		watchErr: make(map[Strategy]error),
	}
}

func (s *fakeSource) Fetch(_ context.Context, strategy Strategy) ([]*entity.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, strategy)
	if err := s.errs[strategy]; err != nil {
		return nil, err
	}
	return s.results[strategy], nil
}

func (s *fakeSource) Watch(_ context.Context, strategy Strategy) (Watcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, strategy)
	if err := s.watchErr[strategy]; err != nil {
		return nil, err
	}
	w, ok := s.watchers[strategy]
	if !ok {
		w = newFakeWatcher()
		s.watchers[strategy] = w
	}
	return w, nil
}

type fakeWatcher struct {
	snapshots chan []*entity.Annotation
	errs      chan error
	closed    chan struct{}
	once      sync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		snapshots: make(chan []*entity.Annotation, 8),
		errs:      make(chan error, 1),
		closed:    make(chan struct{}),
	}
}

func (w *fakeWatcher) Snapshots() <-chan []*entity.Annotation { return w.snapshots }
func (w *fakeWatcher) Errors() <-chan error                   { return w.errs }
func (w *fakeWatcher) Close()                                 { w.once.Do(func() { close(w.closed) }) }

func TestFetchUsesBestStrategy(t *testing.T) {
	src := newFakeSource()
	now := time.Now()
	src.results[StrategyFilteredSorted] = []*entity.Annotation{annotation("a", now, false)}

	engine := NewEngine(logger.NewNopLogger())
	got := engine.Fetch(context.Background(), src)

	require.Len(t, got, 1)
	assert.Equal(t, []Strategy{StrategyFilteredSorted}, src.calls)
}

func TestFetchWalksLadderOnFailure(t *testing.T) {
	src := newFakeSource()
	now := time.Now()
	src.errs[StrategyFilteredSorted] = errors.New("index missing")
	src.errs[StrategyFiltered] = errors.New("index missing")
	src.results[StrategyUnfiltered] = []*entity.Annotation{
		annotation("old", now.Add(-time.Hour), false),
		annotation("deleted", now, true),
		annotation("new", now, false),
	}

	engine := NewEngine(logger.NewNopLogger())
	got := engine.Fetch(context.Background(), src)

	assert.Equal(t, []Strategy{StrategyFilteredSorted, StrategyFiltered, StrategyUnfiltered}, src.calls)
	// Local post-processing makes the degraded result indistinguishable from
	// the ideal one: deleted records dropped, newest first.
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Content)
	assert.Equal(t, "old", got[1].Content)
}

func TestFetchAllStrategiesFailServesEmpty(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("store down")
	src.errs[StrategyFilteredSorted] = boom
	src.errs[StrategyFiltered] = boom
	src.errs[StrategyUnfiltered] = boom

	engine := NewEngine(logger.NewNopLogger())
	got := engine.Fetch(context.Background(), src)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeIsStrategyInvariant(t *testing.T) {
	now := time.Now()
	raw := []*entity.Annotation{
		nil,
		annotation("deleted", now, true),
		annotation("older", now.Add(-time.Minute), false),
		annotation("newer", now, false),
	}

	got := Normalize(raw)

	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Content)
	assert.Equal(t, "older", got[1].Content)
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	src := newFakeSource()
	watcher := newFakeWatcher()
	src.watchers[StrategyFilteredSorted] = watcher

	snaps := make(chan []*entity.Annotation, 4)
	engine := NewEngine(logger.NewNopLogger())
	cancel := engine.Subscribe(context.Background(), src,
		func(list []*entity.Annotation) { snaps <- list },
		nil,
	)
	defer cancel()

	now := time.Now()
	watcher.snapshots <- []*entity.Annotation{
		annotation("deleted", now, true),
		annotation("kept", now, false),
	}

	select {
	case got := <-snaps:
		require.Len(t, got, 1)
		assert.Equal(t, "kept", got[0].Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscribeEscalatesOnWatcherError(t *testing.T) {
	src := newFakeSource()
	ideal := newFakeWatcher()
	degraded := newFakeWatcher()
	src.watchers[StrategyFilteredSorted] = ideal
	src.watchers[StrategyFiltered] = degraded

	snaps := make(chan []*entity.Annotation, 4)
	var errCount int
	var mu sync.Mutex

	engine := NewEngine(logger.NewNopLogger())
	cancel := engine.Subscribe(context.Background(), src,
		func(list []*entity.Annotation) { snaps <- list },
		func(error) {
			mu.Lock()
			errCount++
			mu.Unlock()
		},
	)
	defer cancel()

	ideal.errs <- errors.New("requires index")

	// The degraded watcher keeps the stream alive.
	degraded.snapshots <- []*entity.Annotation{annotation("after", time.Now(), false)}

	select {
	case got := <-snaps:
		require.Len(t, got, 1)
		assert.Equal(t, "after", got[0].Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after escalation")
	}

	mu.Lock()
	assert.Equal(t, 1, errCount)
	mu.Unlock()
}

func TestSubscribeExhaustionDeliversEmptyAndStops(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("watch refused")
	src.watchErr[StrategyFilteredSorted] = boom
	src.watchErr[StrategyFiltered] = boom
	src.watchErr[StrategyUnfiltered] = boom

	snaps := make(chan []*entity.Annotation, 8)
	engine := NewEngine(logger.NewNopLogger())
	cancel := engine.Subscribe(context.Background(), src,
		func(list []*entity.Annotation) { snaps <- list },
		nil,
	)
	defer cancel()

	select {
	case got := <-snaps:
		assert.Empty(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("exhausted subscription did not deliver empty snapshot")
	}

	// Four attempts: the initial strategy plus three escalations, the last
	// two both at the bottom rung.
	time.Sleep(100 * time.Millisecond)
	src.mu.Lock()
	attempts := len(src.calls)
	src.mu.Unlock()
	assert.Equal(t, MaxEscalations+1, attempts)
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	src := newFakeSource()
	src.watchers[StrategyFilteredSorted] = newFakeWatcher()

	engine := NewEngine(logger.NewNopLogger())
	cancel := engine.Subscribe(context.Background(), src, func([]*entity.Annotation) {}, nil)

	assert.NotPanics(t, func() {
		cancel()
		cancel()
		cancel()
	})
}

func TestSubscribeStopsOnContextCancel(t *testing.T) {
	src := newFakeSource()
	watcher := newFakeWatcher()
	src.watchers[StrategyFilteredSorted] = watcher

	ctx, stop := context.WithCancel(context.Background())
	delivered := make(chan []*entity.Annotation, 4)

	engine := NewEngine(logger.NewNopLogger())
	cancel := engine.Subscribe(ctx, src, func(list []*entity.Annotation) { delivered <- list }, nil)
	defer cancel()

	stop()
	time.Sleep(100 * time.Millisecond)

	// Snapshots sent after the context died must not reach the consumer.
	watcher.snapshots <- []*entity.Annotation{annotation("late", time.Now(), false)}
	select {
	case <-delivered:
		t.Fatal("snapshot delivered after context cancellation")
	case <-time.After(200 * time.Millisecond):
	}
}
