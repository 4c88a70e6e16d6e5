// Package session serializes every timeline mutation onto one owner
// goroutine. Edits, drags, staging and mixdown all run through Do, and the
// periodic tick runs on the same goroutine so it never interleaves with an
// edit transaction.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"Tracksmith/logger"
)

var (
	ErrClosed   = errors.New("session closed")
	ErrPanicked = errors.New("session request panicked")
)

type request struct {
	ctx    context.Context
	fn     func(ctx context.Context, st *State) error
	result chan error
}

type Option func(*Session)

// WithTickInterval sets the background tick period. Zero disables the tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tick = d }
}

type Session struct {
	state *State
	tick  time.Duration

	reqs chan request
	done chan struct{}
	once sync.Once

	seq  uint64
	last atomic.Pointer[Snapshot]

	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func New(state *State, opts ...Option) *Session {
	s := &Session{
		state: state,
		tick:  time.Second,
		reqs:  make(chan request),
		done:  make(chan struct{}),
		subs:  make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	snap := state.snapshot(0)
	s.last.Store(&snap)
	return s
}

// Run owns the state until ctx is cancelled. It must be called exactly once.
func (s *Session) Run(ctx context.Context) error {
	var tickC <-chan time.Time
	if s.tick > 0 {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		tickC = ticker.C
	}
	defer s.shutdown()

	logger.Info("session started", logger.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			logger.Info("session stopped")
			return nil

		case r := <-s.reqs:
			err := s.serve(r)
			s.publish()
			r.result <- err

		case <-tickC:
			s.onTick(ctx)
		}
	}
}

// serve runs one request. Engine commands it issues are detached from the
// caller's cancellation so they always run to completion, and a panic is
// returned as the request's error instead of stopping the loop.
func (s *Session) serve(r request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("session request panicked", logger.Any("panic", p), logger.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	return r.fn(context.WithoutCancel(r.ctx), s.state)
}

func (s *Session) shutdown() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.mu.Unlock()
	})
}

// Do runs fn on the session goroutine and waits for it to return. ctx only
// bounds the wait to get onto the session goroutine: fn receives a context
// that keeps ctx's values but is never cancelled, so an edit or mixdown that
// has started runs to completion. The snapshot reflecting fn is published
// before Do returns.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, st *State) error) error {
	r := request{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case s.reqs <- r:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	return <-r.result
}

// onTick refreshes the master duration without touching tracks or clips.
func (s *Session) onTick(ctx context.Context) {
	st := s.state
	if st.Prober != nil && st.Mixdown != nil {
		master := st.Mixdown.MasterPath()
		if info, err := os.Stat(master); err == nil && info.Mode().IsRegular() {
			secs, err := st.Prober.ProbeDuration(ctx, master)
			if err != nil {
				logger.Debug("master probe failed", logger.String("path", master), logger.ErrorField(err))
			} else {
				st.masterSeconds = secs
			}
		}
	}
	s.publish()
}

func (s *Session) publish() {
	s.seq++
	snap := s.state.snapshot(s.seq)
	s.last.Store(&snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Keep only the newest snapshot for slow readers.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Snapshot returns the most recently published snapshot.
func (s *Session) Snapshot() Snapshot {
	return *s.last.Load()
}

// Subscribe returns a channel receiving every published snapshot and a
// function that cancels the subscription. The channel is closed when the
// session stops or the subscription is cancelled.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}
