package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Serve reads requests from r, runs each through h in its own goroutine and
// writes the replies to w. It returns once r is exhausted and every in-flight
// request has been answered.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)
	reply := func(resp Response) {
		line, err := json.Marshal(resp)
		if err != nil {
			line, _ = json.Marshal(Response{ID: resp.ID, Error: "failed to encode result: " + err.Error()})
		}
		line = append(line, '\n')
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := w.Write(line); err != nil {
			logger.Debug("rpc: failed to write reply", "id", resp.ID, "err", err)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn("rpc: dropping malformed request", "err", err)
			continue
		}
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			result, err := h(ctx, req.Method, req.Params)
			if err != nil {
				reply(Response{ID: req.ID, Error: err.Error()})
				return
			}
			// A handler that gave up because the worker is stopping sends nothing.
			if ctx.Err() != nil {
				return
			}
			resp := Response{ID: req.ID}
			if result != nil {
				data, err := json.Marshal(result)
				if err != nil {
					reply(Response{ID: req.ID, Error: "failed to encode result: " + err.Error()})
					return
				}
				resp.Result = data
			}
			reply(resp)
		}(req)
	}
	wg.Wait()
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return err
	}
	return nil
}
