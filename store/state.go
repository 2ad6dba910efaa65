// Package store holds the canonical game state and the operations that change it.
//
// State is an immutable snapshot. Actions are pure functions from one snapshot
// to the next; thunks call the engine and dispatch actions once it answers.
package store

import (
	"checkers-local/engine"
	"checkers-local/types"
)

// State is a snapshot of the game as last confirmed by the engine.
type State struct {
	Board types.Board
	// BoardVersion changes every time a new board lands; 0 means no board yet.
	BoardVersion  uint64
	Turn          types.Turn
	PossibleMoves []types.PossibleMove
	Working       bool
	LastError     error

	checker engine.Engine
}

// Ready returns true once the engine bridge has been delivered.
func (s State) Ready() bool {
	return s.checker != nil
}

// HasBoard returns true once a full board has been received.
func (s State) HasBoard() bool {
	return s.BoardVersion > 0
}

// IsDestination returns the possible move ending on c, if any.
func (s State) IsDestination(c types.TileCoordinate) (types.PossibleMove, bool) {
	for _, m := range s.PossibleMoves {
		if m.Destination == c {
			return m, true
		}
	}
	return types.PossibleMove{}, false
}

// Action is a synchronous state transition.
type Action func(State) State

// SetChecker stores the engine bridge.
func SetChecker(e engine.Engine) Action {
	return func(s State) State {
		s.checker = e
		return s
	}
}

// SetBoard rebuilds the board from the engine's flat tile sequence. A sequence
// that does not describe a full board leaves the board untouched and records
// the error.
func SetBoard(tiles []types.Tile) Action {
	board, err := types.BoardFromTiles(tiles)
	return func(s State) State {
		if err != nil {
			s.LastError = err
			return s
		}
		s.Board = board
		s.BoardVersion++
		return s
	}
}

// SetTurn stores the side to move.
func SetTurn(turn types.Turn) Action {
	return func(s State) State {
		s.Turn = turn
		return s
	}
}

// SetPossibleMoves replaces the highlighted moves. It never merges.
func SetPossibleMoves(moves []types.PossibleMove) Action {
	moves = append([]types.PossibleMove{}, moves...)
	return func(s State) State {
		s.PossibleMoves = moves
		return s
	}
}

// ClearPossibleMoves removes all highlighted moves.
func ClearPossibleMoves() Action {
	return func(s State) State {
		s.PossibleMoves = []types.PossibleMove{}
		return s
	}
}

// SetWorking sets the busy flag.
func SetWorking(working bool) Action {
	return func(s State) State {
		s.Working = working
		return s
	}
}

// SetError records the last failure; nil clears it.
func SetError(err error) Action {
	return func(s State) State {
		s.LastError = err
		return s
	}
}

// Batch applies actions in order as a single transition, so consumers never
// see the intermediate snapshots.
func Batch(actions ...Action) Action {
	return func(s State) State {
		for _, a := range actions {
			s = a(s)
		}
		return s
	}
}
