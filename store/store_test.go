package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkers-local/engine"
	"checkers-local/engine/enginetest"
	"checkers-local/types"
)

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
		return nil
	}
}

func newReadyStore(t *testing.T, f *enginetest.Fake) *Store {
	t.Helper()
	return newReadyStoreTimeout(t, f, time.Second)
}

func newReadyStoreTimeout(t *testing.T, f *enginetest.Fake, timeout time.Duration) *Store {
	t.Helper()
	c := f.Spawn()
	t.Cleanup(func() { c.Close() })
	b := engine.NewBridge(c, timeout)
	h := engine.NewHandshake(b, engine.HandshakeConfig{Interval: 2 * time.Millisecond}, nil)
	s := New(nil)
	require.NoError(t, wait(t, s.Initialize(context.Background(), h)))
	return s
}

func TestSetBoardTransposesFlatSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		tiles := make([]types.Tile, 64)
		for i := range tiles {
			tiles[i] = types.Tile(rng.Intn(5))
		}
		st := SetBoard(tiles)(State{})
		require.True(t, st.HasBoard())
		for i, tile := range tiles {
			require.Equal(t, tile, st.Board[i%8][i/8], "index %d", i)
		}
	}
}

func TestSetBoardRejectsPartialBoard(t *testing.T) {
	full := make([]types.Tile, 64)
	full[0] = types.RedPawn
	st := SetBoard(full)(State{})

	next := SetBoard(make([]types.Tile, 10))(st)
	assert.Error(t, next.LastError)
	assert.Equal(t, st.Board, next.Board)
	assert.Equal(t, st.BoardVersion, next.BoardVersion)
}

func TestSetPossibleMovesReplaces(t *testing.T) {
	a := []types.PossibleMove{{Destination: types.TileCoordinate{Row: 1, Col: 1}}}
	b := []types.PossibleMove{{Destination: types.TileCoordinate{Row: 2, Col: 2}}}
	st := SetPossibleMoves(a)(State{})
	st = SetPossibleMoves(b)(st)
	assert.Equal(t, b, st.PossibleMoves)

	st = ClearPossibleMoves()(st)
	assert.Empty(t, st.PossibleMoves)
}

func TestThunksBeforeReady(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	assert.ErrorIs(t, wait(t, s.GetPossibleMoves(ctx, types.TileCoordinate{Row: 5, Col: 0})), ErrNotReady)
	assert.ErrorIs(t, wait(t, s.MovePawn(ctx, types.TileCoordinate{}, types.TileCoordinate{Row: 1, Col: 1})), ErrNotReady)
	assert.ErrorIs(t, wait(t, s.MakeAMove(ctx)), ErrNotReady)
	assert.ErrorIs(t, wait(t, s.FetchState(ctx)), ErrNotReady)

	st := s.Snapshot()
	assert.False(t, st.Ready())
	assert.False(t, st.Working)
	assert.False(t, st.HasBoard())
}

func TestInitializeLoadsState(t *testing.T) {
	f := enginetest.NewFake()
	f.InitResults = []bool{false, true}
	f.SetTile(types.TileCoordinate{Row: 5, Col: 0}, types.RedPawn)
	f.SetTurn(types.Black)
	s := newReadyStore(t, f)

	st := s.Snapshot()
	assert.True(t, st.Ready())
	assert.True(t, st.HasBoard())
	assert.Equal(t, types.RedPawn, st.Board[5][0])
	assert.Equal(t, types.Black, st.Turn)
	assert.False(t, st.Working)
}

func TestInitializeHandshakeFailure(t *testing.T) {
	f := enginetest.NewFake()
	f.InitResults = []bool{false, false}
	c := f.Spawn()
	defer c.Close()
	h := engine.NewHandshake(engine.NewBridge(c, time.Second), engine.HandshakeConfig{Interval: time.Millisecond, MaxAttempts: 2}, nil)

	s := New(nil)
	err := wait(t, s.Initialize(context.Background(), h))
	assert.ErrorIs(t, err, engine.ErrHandshakeFailed)
	st := s.Snapshot()
	assert.False(t, st.Ready())
	assert.ErrorIs(t, st.LastError, engine.ErrHandshakeFailed)
}

func TestGetPossibleMovesReplacesSet(t *testing.T) {
	f := enginetest.NewFake()
	first := types.TileCoordinate{Row: 5, Col: 0}
	second := types.TileCoordinate{Row: 5, Col: 2}
	f.SetMoves(first,
		types.PossibleMove{Destination: types.TileCoordinate{Row: 4, Col: 1}},
	)
	f.SetMoves(second,
		types.PossibleMove{Destination: types.TileCoordinate{Row: 4, Col: 3}},
		types.PossibleMove{Destination: types.TileCoordinate{Row: 4, Col: 1}},
	)
	s := newReadyStore(t, f)
	ctx := context.Background()

	require.NoError(t, wait(t, s.GetPossibleMoves(ctx, first)))
	assert.Equal(t, f.Moves[first], s.Snapshot().PossibleMoves)

	require.NoError(t, wait(t, s.GetPossibleMoves(ctx, second)))
	assert.Equal(t, f.Moves[second], s.Snapshot().PossibleMoves)

	// An origin with no moves clears the highlighting.
	require.NoError(t, wait(t, s.GetPossibleMoves(ctx, types.TileCoordinate{Row: 0, Col: 0})))
	assert.Empty(t, s.Snapshot().PossibleMoves)
}

func TestClearDropsPendingPossibleMoves(t *testing.T) {
	f := enginetest.NewFake()
	origin := types.TileCoordinate{Row: 5, Col: 0}
	f.SetMoves(origin, types.PossibleMove{Destination: types.TileCoordinate{Row: 4, Col: 1}})
	s := newReadyStore(t, f)

	release := f.Hold(engine.MethodGetPossibleMoves)
	done := s.GetPossibleMoves(context.Background(), origin)
	require.Eventually(t, func() bool { return f.Calls(engine.MethodGetPossibleMoves) == 1 }, time.Second, time.Millisecond)
	s.ClearPossibleMoves()
	release()

	require.NoError(t, wait(t, done))
	assert.Empty(t, s.Snapshot().PossibleMoves)
}

func TestMovePawnKeepsWorkingUntilRefreshLands(t *testing.T) {
	f := enginetest.NewFake()
	from := types.TileCoordinate{Row: 5, Col: 0}
	to := types.TileCoordinate{Row: 4, Col: 1}
	f.SetTile(from, types.RedPawn)
	s := newReadyStore(t, f)
	before := s.Snapshot()

	releaseMove := f.Hold(engine.MethodMovePawn)
	releaseTurn := f.Hold(engine.MethodGetTurn)
	done := s.MovePawn(context.Background(), from, to)

	// Busy immediately, before the engine has even seen the call.
	assert.True(t, s.Snapshot().Working)

	require.Eventually(t, func() bool { return f.Calls(engine.MethodMovePawn) == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Snapshot().Working)
	releaseMove()

	// Tiles arrive but the turn is held back: nothing is published yet.
	require.Eventually(t, func() bool { return f.Calls(engine.MethodGetTurn) == 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	mid := s.Snapshot()
	assert.True(t, mid.Working)
	assert.Equal(t, before.BoardVersion, mid.BoardVersion)
	assert.Equal(t, types.Red, mid.Turn)

	releaseTurn()
	require.NoError(t, wait(t, done))

	after := s.Snapshot()
	assert.False(t, after.Working)
	assert.Greater(t, after.BoardVersion, before.BoardVersion)
	assert.Equal(t, types.RedPawn, after.Board[to.Row][to.Col])
	assert.Equal(t, types.Empty, after.Board[from.Row][from.Col])
	assert.Equal(t, types.Black, after.Turn)
}

func TestMoveClearsPossibleMovesWithNewBoard(t *testing.T) {
	f := enginetest.NewFake()
	from := types.TileCoordinate{Row: 5, Col: 0}
	to := types.TileCoordinate{Row: 4, Col: 1}
	f.SetTile(from, types.RedPawn)
	f.SetMoves(from, types.PossibleMove{Destination: to})
	s := newReadyStore(t, f)
	require.NoError(t, wait(t, s.GetPossibleMoves(context.Background(), from)))
	before := s.Snapshot()
	require.Len(t, before.PossibleMoves, 1)

	var mu sync.Mutex
	var stale []State
	unsubscribe := s.Subscribe(func(st State) {
		if _, ok := st.IsDestination(to); ok && st.BoardVersion > before.BoardVersion {
			mu.Lock()
			stale = append(stale, st)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	require.NoError(t, wait(t, s.MovePawn(context.Background(), from, to)))
	after := s.Snapshot()
	assert.False(t, after.Working)
	assert.Equal(t, types.Black, after.Turn)
	assert.Empty(t, after.PossibleMoves)
	_, ok := after.IsDestination(to)
	assert.False(t, ok)

	// A request for the new position is not dropped by the clear.
	f.SetMoves(to, types.PossibleMove{Destination: types.TileCoordinate{Row: 3, Col: 2}})
	require.NoError(t, wait(t, s.GetPossibleMoves(context.Background(), to)))
	assert.Len(t, s.Snapshot().PossibleMoves, 1)

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, stale, "new board published with the old destinations")
}

func TestSecondMoveRejectedWhileWorking(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStore(t, f)
	ctx := context.Background()

	release := f.Hold(engine.MethodMakeAMove)
	first := s.MakeAMove(ctx)
	assert.ErrorIs(t, wait(t, s.MakeAMove(ctx)), ErrBusy)
	assert.ErrorIs(t, wait(t, s.MovePawn(ctx, types.TileCoordinate{Row: 5, Col: 0}, types.TileCoordinate{Row: 4, Col: 1})), ErrBusy)

	release()
	require.NoError(t, wait(t, first))
	assert.Equal(t, 1, f.Calls(engine.MethodMakeAMove))
	assert.False(t, s.Snapshot().Working)
}

func TestFetchStateDuringMoveKeepsWorking(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStore(t, f)
	ctx := context.Background()

	release := f.Hold(engine.MethodMakeAMove)
	done := s.MakeAMove(ctx)
	require.NoError(t, wait(t, s.FetchState(ctx)))
	assert.True(t, s.Snapshot().Working)

	release()
	require.NoError(t, wait(t, done))
	assert.False(t, s.Snapshot().Working)
}

func TestFailedMoveClearsWorking(t *testing.T) {
	f := enginetest.NewFake()
	f.Fail(engine.MethodMovePawn, errors.New("illegal move"))
	s := newReadyStore(t, f)

	err := wait(t, s.MovePawn(context.Background(), types.TileCoordinate{Row: 5, Col: 0}, types.TileCoordinate{Row: 4, Col: 1}))
	assert.Error(t, err)
	st := s.Snapshot()
	assert.False(t, st.Working)
	assert.Error(t, st.LastError)

	// The next move clears the error.
	f.Fail(engine.MethodMovePawn, nil)
	require.NoError(t, wait(t, s.MakeAMove(context.Background())))
	assert.NoError(t, s.Snapshot().LastError)
}

func TestLostReplyTimesOut(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStoreTimeout(t, f, 30*time.Millisecond)

	release := f.Hold(engine.MethodMakeAMove)
	defer release()
	err := wait(t, s.MakeAMove(context.Background()))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	st := s.Snapshot()
	assert.False(t, st.Working)
	assert.ErrorIs(t, st.LastError, context.DeadlineExceeded)
}

func TestRefreshFailureClearsWorking(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStore(t, f)
	f.Fail(engine.MethodGetTiles, errors.New("worker crashed"))

	err := wait(t, s.MakeAMove(context.Background()))
	assert.Error(t, err)
	st := s.Snapshot()
	assert.False(t, st.Working)
	assert.Error(t, st.LastError)
}

func TestInvalidCoordinatesRejected(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStore(t, f)
	ctx := context.Background()

	assert.Error(t, wait(t, s.GetPossibleMoves(ctx, types.TileCoordinate{Row: 8, Col: 0})))
	assert.Error(t, wait(t, s.MovePawn(ctx, types.TileCoordinate{Row: -1}, types.TileCoordinate{})))
	assert.False(t, s.Snapshot().Working)
	assert.Equal(t, 0, f.Calls(engine.MethodMovePawn))
}

func TestSubscribeSeesLatestState(t *testing.T) {
	f := enginetest.NewFake()
	s := newReadyStore(t, f)

	states := make(chan State, 16)
	unsubscribe := s.Subscribe(func(st State) { states <- st })
	defer unsubscribe()

	first := <-states
	assert.Equal(t, types.Red, first.Turn)

	require.NoError(t, wait(t, s.MakeAMove(context.Background())))
	require.Eventually(t, func() bool {
		for {
			select {
			case st := <-states:
				if st.Turn == types.Black && !st.Working {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, time.Millisecond)
}
