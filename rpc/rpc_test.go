package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(release <-chan struct{}) Handler {
	return func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
		switch method {
		case "echo":
			var args []int
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			return args, nil
		case "slow":
			select {
			case <-release:
				return "slow", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		case "hang":
			<-ctx.Done()
			return nil, ctx.Err()
		case "nothing":
			return nil, nil
		}
		return nil, fmt.Errorf("unknown method %s", method)
	}
}

func TestCallRoundTrip(t *testing.T) {
	c := Spawn(echoHandler(nil), nil)
	defer c.Close()

	var got []int
	require.NoError(t, c.Call(context.Background(), "echo", []int{1, 2, 3}, &got))
	assert.Equal(t, []int{1, 2, 3}, got)

	require.NoError(t, c.Call(context.Background(), "nothing", nil, nil))
}

func TestRemoteError(t *testing.T) {
	c := Spawn(echoHandler(nil), nil)
	defer c.Close()

	err := c.Call(context.Background(), "bogus", nil, nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "bogus", remote.Method)
	assert.Contains(t, remote.Message, "unknown method")
}

func TestRepliesCorrelatedOutOfOrder(t *testing.T) {
	release := make(chan struct{})
	c := Spawn(echoHandler(release), nil)
	defer c.Close()

	slowDone := make(chan error, 1)
	var slow string
	go func() {
		slowDone <- c.Call(context.Background(), "slow", nil, &slow)
	}()

	// The fast call overtakes the slow one.
	var fast []int
	require.NoError(t, c.Call(context.Background(), "echo", []int{7}, &fast))
	assert.Equal(t, []int{7}, fast)

	close(release)
	require.NoError(t, <-slowDone)
	assert.Equal(t, "slow", slow)
}

func TestConcurrentCalls(t *testing.T) {
	c := Spawn(echoHandler(nil), nil)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var got []int
			assert.NoError(t, c.Call(context.Background(), "echo", []int{i}, &got))
			assert.Equal(t, []int{i}, got)
		}(i)
	}
	wg.Wait()
}

func TestLostReplyBlocksUntilContextEnds(t *testing.T) {
	c := Spawn(echoHandler(nil), nil)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Call(ctx, "hang", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallAfterClose(t *testing.T) {
	c := Spawn(echoHandler(nil), nil)
	require.NoError(t, c.Close())

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("channel should shut down after close")
	}
	err := c.Call(context.Background(), "echo", []int{1}, nil)
	assert.True(t, errors.Is(err, ErrClosed), "expected ErrClosed, got %v", err)
}
