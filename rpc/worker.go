package rpc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// Spawn starts h on a worker goroutine and returns a client connected to it.
// The two sides share nothing but a pair of pipes carrying JSON lines.
func Spawn(h Handler, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := Serve(ctx, reqR, respW, h, logger); err != nil {
			logger.Warn("rpc: worker stopped", "err", err)
		}
		respW.Close()
	}()

	c := NewClient(respR, reqW, logger)
	c.onClose = func() error {
		cancel()
		return nil
	}
	return c
}

// StartProcess starts the engine executable at path and returns a client
// speaking to it over its stdin and stdout.
func StartProcess(path string, args []string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	logger.Info("engine process started", "path", path, "pid", cmd.Process.Pid)

	// The engine's stderr goes to the debug log so it can never block the process.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Debug("engine stderr", "line", scanner.Text())
		}
	}()

	c := NewClient(stdout, stdin, logger)
	c.onClose = func() error {
		err := cmd.Wait()
		logger.Info("engine process exited", "err", err)
		return err
	}
	return c, nil
}
