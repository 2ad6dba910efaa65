package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"checkers-local/engine"
	"checkers-local/types"
)

// Readiness delivers the engine bridge once the engine is up.
type Readiness interface {
	Run(ctx context.Context) (*engine.Bridge, error)
}

// task runs fn on its own goroutine and reports its outcome on the returned channel.
func task(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
		close(done)
	}()
	return done
}

func failed(err error) <-chan error {
	done := make(chan error, 1)
	done <- err
	close(done)
	return done
}

// Initialize waits for the handshake to deliver the bridge, stores it and
// loads the initial state.
func (s *Store) Initialize(ctx context.Context, r Readiness) <-chan error {
	return task(func() error {
		b, err := r.Run(ctx)
		if err != nil {
			s.logger.Error("engine handshake failed", "err", err)
			s.Dispatch(SetError(err))
			return err
		}
		s.Dispatch(SetChecker(b))
		s.logger.Info("engine bridge delivered")
		return s.fetchState(ctx, false)
	})
}

// FetchState reloads the board and turn from the engine.
func (s *Store) FetchState(ctx context.Context) <-chan error {
	return task(func() error {
		return s.fetchState(ctx, false)
	})
}

// fetchState asks for tiles and turn together and publishes them in one
// transition once both have arrived. When endMove is set this is the refresh
// that closes a move, and Working drops to false with it whether or not the
// refresh succeeded. Otherwise Working is left to the move in flight, if any.
func (s *Store) fetchState(ctx context.Context, endMove bool) error {
	e := s.Snapshot().checker
	if e == nil {
		return ErrNotReady
	}

	var (
		tiles []types.Tile
		turn  types.Turn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tiles, err = e.GetTiles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		turn, err = e.GetTurn(gctx)
		return err
	})
	err := g.Wait()

	st, _ := s.update(func(st State) (State, error) {
		if endMove {
			s.moving = false
			// Destinations from before the move never survive it.
			s.movesSeq++
			st = ClearPossibleMoves()(st)
		}
		if err != nil {
			st = SetError(err)(st)
		} else {
			st = Batch(SetBoard(tiles), SetTurn(turn))(st)
		}
		return SetWorking(s.moving)(st), nil
	})
	if err != nil {
		s.logger.Warn("failed to fetch state", "err", err)
		return err
	}
	s.logger.Debug("state refreshed", "turn", st.Turn, "board_version", st.BoardVersion)
	return nil
}

// GetPossibleMoves asks for the legal moves from origin and replaces the
// highlighted set with them, even when there are none. Only the reply to the
// latest request is applied.
func (s *Store) GetPossibleMoves(ctx context.Context, origin types.TileCoordinate) <-chan error {
	if !origin.Valid() {
		return failed(fmt.Errorf("store: origin %v is off the board", origin))
	}
	s.mu.Lock()
	e := s.state.checker
	if e == nil {
		s.mu.Unlock()
		return failed(ErrNotReady)
	}
	s.movesSeq++
	seq := s.movesSeq
	s.mu.Unlock()

	return task(func() error {
		moves, err := e.GetPossibleMoves(ctx, origin)
		if err != nil {
			s.logger.Warn("failed to get possible moves", "origin", origin, "err", err)
			s.Dispatch(SetError(err))
			return err
		}
		if !s.updateIfLatest(seq, SetPossibleMoves(moves)) {
			s.logger.Debug("dropping stale possible moves", "origin", origin)
		}
		return nil
	})
}

// ClearPossibleMoves removes the highlighted set and discards any reply still
// on its way.
func (s *Store) ClearPossibleMoves() {
	s.update(func(st State) (State, error) {
		s.movesSeq++
		return ClearPossibleMoves()(st), nil
	})
}

// MovePawn applies a human move. Working is set before the call is issued
// and stays set until the following refresh has landed.
func (s *Store) MovePawn(ctx context.Context, from, to types.TileCoordinate) <-chan error {
	if !from.Valid() || !to.Valid() {
		return failed(fmt.Errorf("store: move %v -> %v is off the board", from, to))
	}
	e, err := s.begin()
	if err != nil {
		return failed(err)
	}
	s.logger.Info("move pawn", "from", from, "to", to)
	return task(func() error {
		return s.finish(ctx, e.MovePawn(ctx, from, to))
	})
}

// MakeAMove lets the engine move for the side to move, under the same busy
// protocol as MovePawn.
func (s *Store) MakeAMove(ctx context.Context) <-chan error {
	e, err := s.begin()
	if err != nil {
		return failed(err)
	}
	s.logger.Info("engine move requested")
	return task(func() error {
		return s.finish(ctx, e.MakeAMove(ctx))
	})
}

// begin atomically checks that no move is in flight and marks one as started.
func (s *Store) begin() (engine.Engine, error) {
	var e engine.Engine
	_, err := s.update(func(st State) (State, error) {
		if st.checker == nil {
			return st, ErrNotReady
		}
		if st.Working {
			return st, ErrBusy
		}
		e = st.checker
		s.moving = true
		// Possible-moves replies issued before the move no longer apply.
		s.movesSeq++
		return Batch(SetWorking(true), SetError(nil))(st), nil
	})
	return e, err
}

// finish records a failed move and resynchronizes with the engine either way.
func (s *Store) finish(ctx context.Context, moveErr error) error {
	if moveErr != nil {
		s.logger.Warn("engine move failed", "err", moveErr)
		s.Dispatch(SetError(moveErr))
	}
	if err := s.fetchState(ctx, true); err != nil && moveErr == nil {
		return err
	}
	return moveErr
}
