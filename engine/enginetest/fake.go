// Package enginetest provides a scriptable in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"checkers-local/engine"
	"checkers-local/rpc"
	"checkers-local/types"
)

// Fake is an engine.Engine whose answers are set by the test. It does not
// know the rules of checkers: moves do whatever MoveFunc says.
type Fake struct {
	mu sync.Mutex

	// InitResults are returned by successive Initialize calls; once used up
	// Initialize returns true.
	InitResults []bool
	// InitErrs, when non-nil at an index, fails that Initialize call instead.
	InitErrs []error

	Tiles []types.Tile
	Turn  types.Turn
	Moves map[types.TileCoordinate][]types.PossibleMove

	// MoveFunc runs for MovePawn. The default moves the piece and passes the turn.
	MoveFunc func(f *Fake, from, to types.TileCoordinate) error
	// EngineMoveFunc runs for MakeAMove. The default only passes the turn.
	EngineMoveFunc func(f *Fake) error

	calls  map[string]int
	gates  map[string]chan struct{}
	fail   map[string]error
	delays map[string]time.Duration
	inits  int
}

// NewFake returns an engine with an empty board and red to move.
func NewFake() *Fake {
	return &Fake{
		Tiles:  make([]types.Tile, types.BoardSize*types.BoardSize),
		Turn:   types.Red,
		Moves:  make(map[types.TileCoordinate][]types.PossibleMove),
		calls:  make(map[string]int),
		gates:  make(map[string]chan struct{}),
		fail:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

// Spawn serves f on an in-process worker and returns the client side.
func (f *Fake) Spawn() *rpc.Client {
	return rpc.Spawn(engine.Expose(f), nil)
}

// Hold makes calls to method block until the returned release func is called.
func (f *Fake) Hold(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[method] == ch {
				delete(f.gates, method)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Fail makes calls to method return err. A nil err clears it.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Delay makes every call to method take at least d before answering.
func (f *Fake) Delay(method string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[method] = d
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// SetTile changes one square, addressed the same way the engine lists tiles.
func (f *Fake) SetTile(c types.TileCoordinate, t types.Tile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tiles[c.Col*types.BoardSize+c.Row] = t
}

// SetTurn changes the side to move.
func (f *Fake) SetTurn(turn types.Turn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Turn = turn
}

// SetMoves sets the possible moves reported for origin.
func (f *Fake) SetMoves(origin types.TileCoordinate, moves ...types.PossibleMove) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Moves[origin] = moves
}

// enter records the call, waits for any hold, and returns a scripted failure.
func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	gate := f.gates[method]
	err := f.fail[method]
	delay := f.delays[method]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *Fake) Initialize(ctx context.Context) (bool, error) {
	f.mu.Lock()
	n := f.inits
	f.inits++
	f.mu.Unlock()
	if err := f.enter(ctx, engine.MethodInitialize); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.InitErrs) && f.InitErrs[n] != nil {
		return false, f.InitErrs[n]
	}
	if n < len(f.InitResults) {
		return f.InitResults[n], nil
	}
	return true, nil
}

func (f *Fake) GetTiles(ctx context.Context) ([]types.Tile, error) {
	if err := f.enter(ctx, engine.MethodGetTiles); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Tile(nil), f.Tiles...), nil
}

func (f *Fake) GetTurn(ctx context.Context) (types.Turn, error) {
	if err := f.enter(ctx, engine.MethodGetTurn); err != nil {
		return types.GameOver, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Turn, nil
}

func (f *Fake) GetPossibleMoves(ctx context.Context, origin types.TileCoordinate) ([]types.PossibleMove, error) {
	if err := f.enter(ctx, engine.MethodGetPossibleMoves); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.PossibleMove(nil), f.Moves[origin]...), nil
}

func (f *Fake) MovePawn(ctx context.Context, from, to types.TileCoordinate) error {
	if err := f.enter(ctx, engine.MethodMovePawn); err != nil {
		return err
	}
	if f.MoveFunc != nil {
		return f.MoveFunc(f, from, to)
	}
	if !from.Valid() || !to.Valid() {
		return errors.New("coordinate off the board")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	src := from.Col*types.BoardSize + from.Row
	dst := to.Col*types.BoardSize + to.Row
	f.Tiles[dst], f.Tiles[src] = f.Tiles[src], types.Empty
	f.Turn = f.Turn.Opponent()
	return nil
}

func (f *Fake) MakeAMove(ctx context.Context) error {
	if err := f.enter(ctx, engine.MethodMakeAMove); err != nil {
		return err
	}
	if f.EngineMoveFunc != nil {
		return f.EngineMoveFunc(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Turn = f.Turn.Opponent()
	return nil
}
