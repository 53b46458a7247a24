// Package poll keeps a displayed resource approximately fresh without a
// push channel: an immediate visible fetch, then timer-driven silent
// refreshes. The pattern replaces the per-page polling effects of the web
// client with one reusable synchronizer.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/goroutine"
)

// Fetch loads the current state of the synced resource.
type Fetch[T any] func(ctx context.Context) (T, error)

// Snapshot is what subscribers receive. On a failed refresh Err carries the
// dismissible message while Data keeps the previous good value; the view is
// never rolled back to empty.
type Snapshot[T any] struct {
	Data       T
	Err        error
	Silent     bool
	Generation uint64
	At         time.Time
}

// Syncer periodically re-fetches one resource. A tick that lands while a
// fetch is still in flight is skipped, not queued.
type Syncer[T any] struct {
	name     string
	interval time.Duration
	fetch    Fetch[T]
	log      logrus.FieldLogger
	recovery *goroutine.RecoveryHandler

	inFlight atomic.Bool
	closed   atomic.Bool
	nextGen  atomic.Uint64

	mu      sync.Mutex
	applied uint64
	last    Snapshot[T]
	hasLast bool

	updates chan Snapshot[T]
	kicks   chan bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a syncer; Start begins polling.
func New[T any](name string, interval time.Duration, fetch Fetch[T], log logrus.FieldLogger) *Syncer[T] {
	return &Syncer[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		log:      log.WithField("syncer", name),
		recovery: goroutine.NewRecoveryHandler(log),
		updates:  make(chan Snapshot[T], 8),
		kicks:    make(chan bool, 4),
		done:     make(chan struct{}),
	}
}

// Updates delivers every applied snapshot. The channel is never closed;
// after Close nothing is sent on it, so consumers must select on their own
// context or done signal rather than range over it.
func (s *Syncer[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Last returns the most recent applied snapshot, false before the first.
func (s *Syncer[T]) Last() (Snapshot[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Start launches the loop: one immediate visible fetch, then silent ticks.
func (s *Syncer[T]) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.recovery.SafeGoWithContext(ctx, func(ctx context.Context) {
		defer close(s.done)

		s.refresh(ctx, false)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refresh(ctx, true)
			case silent := <-s.kicks:
				s.refresh(ctx, silent)
			}
		}
	})
}

// Kick requests an out-of-band refresh, e.g. from a push notification.
// Like a tick, it is dropped while a fetch is in flight.
func (s *Syncer[T]) Kick(silent bool) {
	select {
	case s.kicks <- silent:
	default:
	}
}

// Close stops the loop; no snapshot is delivered afterwards.
func (s *Syncer[T]) Close() {
	s.closed.Store(true)
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Syncer[T]) refresh(ctx context.Context, silent bool) {
	// In-flight guard: overlapping refreshes are skipped, never queued.
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Debug("refresh skipped, previous cycle still in flight")
		return
	}

	gen := s.nextGen.Add(1)

	s.recovery.SafeGo(func() {
		defer s.inFlight.Store(false)

		data, err := s.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		s.apply(gen, data, err, silent)
	})
}

// apply installs a fetch result unless a newer one already landed, so a
// slow response can never overwrite fresher data.
func (s *Syncer[T]) apply(gen uint64, data T, err error, silent bool) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	if gen <= s.applied && s.hasLast {
		s.mu.Unlock()
		s.log.Debug("stale refresh dropped")
		return
	}
	s.applied = gen

	snap := Snapshot[T]{
		Data:       data,
		Err:        err,
		Silent:     silent,
		Generation: gen,
		At:         time.Now(),
	}
	if err != nil {
		// Keep the previous good data under the error message.
		if s.hasLast {
			snap.Data = s.last.Data
		}
		s.log.WithError(err).Warn("refresh failed, keeping last good data")
	}
	s.last = snap
	s.hasLast = true
	s.mu.Unlock()

	// Non-blocking fan-out: a full subscriber loses the oldest update.
	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snap:
		default:
		}
	}
}
