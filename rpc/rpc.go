// Package rpc provides the message channel between the client and an engine
// running in another execution context.
//
// Messages are newline-delimited JSON. A request carries an id, a method name
// and positional params; the reply echoes the id. Replies may arrive in any
// order. Only plain data crosses the channel.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned by calls on a channel that has shut down.
var ErrClosed = errors.New("rpc: channel closed")

// Request is a single call sent to the worker.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the worker's reply to the request with the same ID.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RemoteError is an error reported by the worker for a call.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: %s: %s", e.Method, e.Message)
}

// Caller issues a call and decodes its result into result, which may be nil.
type Caller interface {
	Call(ctx context.Context, method string, params, result interface{}) error
}

// Handler runs one request on the worker side and returns its result.
type Handler func(ctx context.Context, method string, params json.RawMessage) (interface{}, error)

// maxLineSize bounds a single message.
const maxLineSize = 1 << 20
