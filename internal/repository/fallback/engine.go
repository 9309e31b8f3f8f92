// Package fallback implements the query degradation ladder used for both
// one-shot annotation reads and live subscriptions. Annotation data is
// supplementary to the review workflow, so a query-capability failure (a
// missing index, a transient permission error) must never surface to the
// caller while a less capable strategy can still serve the data.
package fallback

import (
	"context"
	"errors"
	"sort"
	"sync"

	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/logger"
)

// Strategy is one rung of the query capability ladder.
type Strategy int

const (
	// StrategyFilteredSorted excludes soft-deleted records and orders by
	// created_at descending on the store side. The ideal, index-dependent query.
	StrategyFilteredSorted Strategy = iota
	// StrategyFiltered excludes soft-deleted records, no store-side ordering.
	StrategyFiltered
	// StrategyUnfiltered fetches everything; deletion filtering and ordering
	// happen locally.
	StrategyUnfiltered
)

func (s Strategy) String() string {
	switch s {
	case StrategyFilteredSorted:
		return "filtered+sorted"
	case StrategyFiltered:
		return "filtered"
	case StrategyUnfiltered:
		return "unfiltered"
	default:
		return "unknown"
	}
}

// MaxEscalations bounds ladder escalations per subscription lifetime. Past
// it the subscriber receives an empty snapshot and no further retries; a
// fresh Subscribe restarts the ladder from the top.
const MaxEscalations = 3

// Source runs a single query strategy against one submission's annotation
// collection.
type Source interface {
	Fetch(ctx context.Context, strategy Strategy) ([]*entity.Annotation, error)
	Watch(ctx context.Context, strategy Strategy) (Watcher, error)
}

// Watcher is one standing subscription at a fixed strategy. Snapshots always
// carry the full current result set, never deltas.
type Watcher interface {
	Snapshots() <-chan []*entity.Annotation
	Errors() <-chan error
	Close()
}

type Engine struct {
	logger logger.ILogger
}

func NewEngine(log logger.ILogger) *Engine {
	return &Engine{logger: log}
}

// Fetch walks the ladder once and returns the best obtainable result set.
// It never fails: when every strategy errors the result is simply empty.
func (e *Engine) Fetch(ctx context.Context, src Source) []*entity.Annotation {
	for strategy := StrategyFilteredSorted; strategy <= StrategyUnfiltered; strategy++ {
		list, err := src.Fetch(ctx, strategy)
		if err != nil {
			e.logger.Warn("Fallback", "query strategy failed, trying next", map[string]interface{}{
				"strategy": strategy.String(),
				"error":    err.Error(),
			})
			continue
		}
		return Normalize(list)
	}

	e.logger.Warn("Fallback", "all query strategies failed, serving empty result", nil)
	return []*entity.Annotation{}
}

// Subscribe establishes a live subscription that self-heals by escalating
// down the ladder when the active strategy reports an error. The returned
// cancel function is idempotent and safe after exhaustion.
func (e *Engine) Subscribe(
	ctx context.Context,
	src Source,
	onData func([]*entity.Annotation),
	onError func(error),
) func() {
	sub := &subscription{
		engine:   e,
		src:      src,
		onData:   onData,
		onError:  onError,
		strategy: StrategyFilteredSorted,
		done:     make(chan struct{}),
	}
	go sub.run(ctx)
	return sub.Cancel
}

// subscription is the ladder-as-state-machine: {active strategy, escalation
// counter, current watcher}. Transitions happen only on error events.
type subscription struct {
	engine      *Engine
	src         Source
	onData      func([]*entity.Annotation)
	onError     func(error)
	strategy    Strategy
	escalations int
	done        chan struct{}
	once        sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscription) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		watcher, err := s.src.Watch(ctx, s.strategy)
		if err != nil {
			if !s.escalate(err) {
				return
			}
			continue
		}

		if !s.pump(ctx, watcher) {
			return
		}
	}
}

// pump drains one watcher until cancellation or an error event. Returns
// false when the subscription is finished for good.
func (s *subscription) pump(ctx context.Context, watcher Watcher) bool {
	defer watcher.Close()

	snapshots := watcher.Snapshots()
	errs := watcher.Errors()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.done:
			return false
		case snap, ok := <-snapshots:
			if !ok {
				return s.escalate(errors.New("snapshot channel closed by store"))
			}
			s.deliver(snap)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return s.escalate(err)
		}
	}
}

// deliver pushes a normalized snapshot unless the subscription was cancelled.
func (s *subscription) deliver(snap []*entity.Annotation) {
	select {
	case <-s.done:
	default:
		s.onData(Normalize(snap))
	}
}

// escalate records one failure of the active strategy. The error itself is
// informational for the caller; by the time onError fires the engine has
// already decided how to self-heal. Returns false once the ladder is
// exhausted.
func (s *subscription) escalate(err error) bool {
	s.engine.logger.Warn("Fallback", "subscription strategy failed", map[string]interface{}{
		"strategy":    s.strategy.String(),
		"escalations": s.escalations,
		"error":       err.Error(),
	})
	if s.onError != nil {
		s.onError(err)
	}

	if s.escalations >= MaxEscalations {
		s.engine.logger.Warn("Fallback", "subscription ladder exhausted, serving empty snapshot", nil)
		select {
		case <-s.done:
		default:
			s.onData([]*entity.Annotation{})
		}
		return false
	}

	s.escalations++
	if s.strategy < StrategyUnfiltered {
		s.strategy++
	}
	return true
}

// Normalize applies the post-processing every snapshot goes through no
// matter which strategy served it: soft-deleted records are dropped and the
// remainder sorted by created_at descending. This keeps the consumer-visible
// shape and ordering invariant across the whole ladder.
func Normalize(list []*entity.Annotation) []*entity.Annotation {
	result := make([]*entity.Annotation, 0, len(list))
	for _, a := range list {
		if a == nil || a.IsDeleted {
			continue
		}
		result = append(result, a)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
