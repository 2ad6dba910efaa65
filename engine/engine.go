// Package engine defines the checkers engine contract and the bridge that reaches it.
package engine

import (
	"context"
	"time"

	"checkers-local/types"
)

// Engine is the rules/AI engine's operation set. The engine itself runs in
// another execution context; Bridge implements this interface over a message
// channel and Expose serves an implementation over one.
type Engine interface {
	// Initialize returns true once the engine's internal setup is complete.
	// It is safe to call repeatedly before that.
	Initialize(ctx context.Context) (bool, error)

	// GetTiles returns the full board as 64 tiles, column by column.
	GetTiles(ctx context.Context) ([]types.Tile, error)

	// GetTurn returns the side to move.
	GetTurn(ctx context.Context) (types.Turn, error)

	// GetPossibleMoves returns the legal moves from origin for the side to move.
	// It is empty when origin holds no movable piece.
	GetPossibleMoves(ctx context.Context, origin types.TileCoordinate) ([]types.PossibleMove, error)

	// MovePawn returns once the move, and any capture it requires, is fully applied.
	MovePawn(ctx context.Context, from, to types.TileCoordinate) error

	// MakeAMove lets the engine pick and apply a move for the side to move.
	MakeAMove(ctx context.Context) error
}

// Wire method names.
const (
	MethodInitialize       = "initialize"
	MethodGetTiles         = "getTiles"
	MethodGetTurn          = "getTurn"
	MethodGetPossibleMoves = "getPossibleMoves"
	MethodMovePawn         = "movePawn"
	MethodMakeAMove        = "makeAMove"
)

// Config holds configuration for reaching an engine.
type Config struct {
	EnginePath  string        // Path to the engine executable
	EngineArgs  []string      // Extra arguments for the engine
	CallTimeout time.Duration // Upper bound for a single call, 0 for none
	Handshake   HandshakeConfig
}

// HandshakeConfig controls readiness polling.
type HandshakeConfig struct {
	Interval    time.Duration // Delay between polls
	MaxAttempts int           // 0 polls until the engine is ready
	Backoff     float64       // Interval multiplier after each failed poll, <= 1 keeps it fixed
	MaxInterval time.Duration // Cap for the backed-off interval, 0 for none
}
