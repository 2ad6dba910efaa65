package store

import (
	"errors"
	"log/slog"
	"sync"

	"checkers-local/types"
)

var (
	// ErrNotReady is returned by thunks invoked before the engine is delivered.
	ErrNotReady = errors.New("store: engine not ready")
	// ErrBusy is returned when a move is requested while another is in flight.
	ErrBusy = errors.New("store: engine is working")
)

// Store is the single owner of the game state. All writes go through Dispatch.
type Store struct {
	logger *slog.Logger

	mu    sync.Mutex
	state State
	// movesSeq identifies the latest possible-moves request; replies to older
	// requests are dropped.
	movesSeq uint64
	// moving is set while a move or engine move is in flight.
	moving  bool
	subs    map[int]*subscription
	nextSub int
}

type subscription struct {
	fn     func(State)
	signal chan struct{}
	stop   chan struct{}
}

// New creates an empty store. It becomes usable once Initialize delivers a bridge.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger,
		state:  State{PossibleMoves: []types.PossibleMove{}},
		subs:   make(map[int]*subscription),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies actions as one transition and returns the new state.
func (s *Store) Dispatch(actions ...Action) State {
	st, _ := s.update(func(st State) (State, error) {
		return Batch(actions...)(st), nil
	})
	return st
}

// update runs fn under the lock. When fn fails the state is left as it was
// and nobody is notified.
func (s *Store) update(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	next, err := fn(s.state)
	if err != nil {
		st := s.state
		s.mu.Unlock()
		return st, err
	}
	s.state = next
	s.notifyLocked()
	s.mu.Unlock()
	return next, nil
}

// updateIfLatest applies a only if seq is still the newest possible-moves request.
func (s *Store) updateIfLatest(seq uint64, a Action) bool {
	applied := true
	s.update(func(st State) (State, error) {
		if s.movesSeq != seq {
			applied = false
			return st, errStale
		}
		return a(st), nil
	})
	return applied
}

var errStale = errors.New("stale reply")

func (s *Store) notifyLocked() {
	for _, sub := range s.subs {
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// Subscribe calls fn with the current state now and after every subsequent
// change. fn runs on its own goroutine and always receives the latest
// snapshot; intermediate snapshots may be skipped when changes come quickly.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	sub := &subscription{
		fn:     fn,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	select {
	case sub.signal <- struct{}{}:
	default:
	}
	go func() {
		for {
			select {
			case <-sub.stop:
				return
			case <-sub.signal:
				fn(s.Snapshot())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.stop)
		})
	}
}
