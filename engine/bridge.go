package engine

import (
	"context"
	"fmt"
	"time"

	"checkers-local/rpc"
	"checkers-local/types"
)

// Bridge exposes the engine's operations as local calls over an rpc.Caller.
type Bridge struct {
	caller  rpc.Caller
	timeout time.Duration
}

// NewBridge wraps caller. A non-zero timeout bounds every call.
func NewBridge(caller rpc.Caller, timeout time.Duration) *Bridge {
	return &Bridge{caller: caller, timeout: timeout}
}

func (b *Bridge) call(ctx context.Context, method string, params, result interface{}) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := b.caller.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// Initialize asks the engine whether its setup is complete.
func (b *Bridge) Initialize(ctx context.Context) (bool, error) {
	var ok bool
	err := b.call(ctx, MethodInitialize, nil, &ok)
	return ok, err
}

// GetTiles returns the engine's flat tile sequence.
func (b *Bridge) GetTiles(ctx context.Context) ([]types.Tile, error) {
	var codes []int
	if err := b.call(ctx, MethodGetTiles, nil, &codes); err != nil {
		return nil, err
	}
	if len(codes) != types.BoardSize*types.BoardSize {
		return nil, fmt.Errorf("%s: expected %d tiles, got %d", MethodGetTiles, types.BoardSize*types.BoardSize, len(codes))
	}
	tiles := make([]types.Tile, len(codes))
	for i, code := range codes {
		tiles[i] = types.Tile(code)
		if !tiles[i].Valid() {
			return nil, fmt.Errorf("%s: invalid tile code %d at index %d", MethodGetTiles, code, i)
		}
	}
	return tiles, nil
}

// GetTurn returns the side to move.
func (b *Bridge) GetTurn(ctx context.Context) (types.Turn, error) {
	var turn types.Turn
	if err := b.call(ctx, MethodGetTurn, nil, &turn); err != nil {
		return types.GameOver, err
	}
	return turn, nil
}

// GetPossibleMoves returns the legal moves from origin.
func (b *Bridge) GetPossibleMoves(ctx context.Context, origin types.TileCoordinate) ([]types.PossibleMove, error) {
	var moves []types.PossibleMove
	if err := b.call(ctx, MethodGetPossibleMoves, []int{origin.Row, origin.Col}, &moves); err != nil {
		return nil, err
	}
	if moves == nil {
		moves = []types.PossibleMove{}
	}
	return moves, nil
}

// MovePawn applies a move from one square to another.
func (b *Bridge) MovePawn(ctx context.Context, from, to types.TileCoordinate) error {
	return b.call(ctx, MethodMovePawn, []int{from.Row, from.Col, to.Row, to.Col}, nil)
}

// MakeAMove lets the engine move for the side to move.
func (b *Bridge) MakeAMove(ctx context.Context) error {
	return b.call(ctx, MethodMakeAMove, nil, nil)
}
