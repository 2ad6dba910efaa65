package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"checkers-local/rpc"
	"checkers-local/types"
)

// Expose serves e over the rpc wire contract. It is the worker-side
// counterpart of Bridge.
func Expose(e Engine) rpc.Handler {
	return func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
		switch method {
		case MethodInitialize:
			return e.Initialize(ctx)

		case MethodGetTiles:
			tiles, err := e.GetTiles(ctx)
			if err != nil {
				return nil, err
			}
			codes := make([]int, len(tiles))
			for i, t := range tiles {
				codes[i] = int(t)
			}
			return codes, nil

		case MethodGetTurn:
			return e.GetTurn(ctx)

		case MethodGetPossibleMoves:
			args, err := intArgs(method, params, 2)
			if err != nil {
				return nil, err
			}
			moves, err := e.GetPossibleMoves(ctx, types.TileCoordinate{Row: args[0], Col: args[1]})
			if err != nil {
				return nil, err
			}
			if moves == nil {
				moves = []types.PossibleMove{}
			}
			return moves, nil

		case MethodMovePawn:
			args, err := intArgs(method, params, 4)
			if err != nil {
				return nil, err
			}
			from := types.TileCoordinate{Row: args[0], Col: args[1]}
			to := types.TileCoordinate{Row: args[2], Col: args[3]}
			return nil, e.MovePawn(ctx, from, to)

		case MethodMakeAMove:
			return nil, e.MakeAMove(ctx)
		}
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func intArgs(method string, params json.RawMessage, n int) ([]int, error) {
	var args []int
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, fmt.Errorf("%s: invalid params: %w", method, err)
	}
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d params, got %d", method, n, len(args))
	}
	return args, nil
}
