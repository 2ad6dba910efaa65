package ui

import (
	"context"
	"sync"

	"checkers-local/store"
	"checkers-local/types"
)

// Mover is the part of the store the selection protocol drives.
type Mover interface {
	Snapshot() store.State
	GetPossibleMoves(ctx context.Context, origin types.TileCoordinate) <-chan error
	MovePawn(ctx context.Context, from, to types.TileCoordinate) <-chan error
}

// resetOrigin is the origin the selection falls back to after a move lands.
var resetOrigin = types.TileCoordinate{Row: 0, Col: 0}

// Selector implements the two-click move protocol. The first click picks an
// origin and asks for its moves; clicking one of the highlighted destinations
// commits the move, any other square becomes the new origin.
type Selector struct {
	mv Mover

	mu           sync.Mutex
	origin       types.TileCoordinate
	boardVersion uint64
}

// NewSelector creates a selector with the origin at the reset square.
func NewSelector(mv Mover) *Selector {
	return &Selector{mv: mv, origin: resetOrigin}
}

// Origin returns the currently selected origin.
func (s *Selector) Origin() types.TileCoordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// Click handles a click on c. Clicks are refused while the engine is working.
func (s *Selector) Click(ctx context.Context, c types.TileCoordinate) <-chan error {
	st := s.mv.Snapshot()
	if st.Working {
		return failed(store.ErrBusy)
	}

	s.mu.Lock()
	if _, ok := st.IsDestination(c); ok {
		from := s.origin
		s.mu.Unlock()
		return s.mv.MovePawn(ctx, from, c)
	}
	s.origin = c
	s.mu.Unlock()
	return s.mv.GetPossibleMoves(ctx, c)
}

// Observe resets the origin whenever a new board lands. The store has already
// cleared the highlighted moves in the same update.
func (s *Selector) Observe(st store.State) {
	s.mu.Lock()
	if st.BoardVersion == s.boardVersion {
		s.mu.Unlock()
		return
	}
	s.boardVersion = st.BoardVersion
	s.origin = resetOrigin
	s.mu.Unlock()
}

func failed(err error) <-chan error {
	done := make(chan error, 1)
	done <- err
	close(done)
	return done
}
