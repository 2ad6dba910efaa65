package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrHandshakeFailed is returned when the engine never reported readiness.
var ErrHandshakeFailed = errors.New("engine: handshake failed")

// HandshakeState is a stage of the readiness handshake.
type HandshakeState int

const (
	Spawned HandshakeState = iota
	Polling
	Ready
	Failed
)

func (s HandshakeState) String() string {
	switch s {
	case Spawned:
		return "spawned"
	case Polling:
		return "polling"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const defaultPollInterval = 100 * time.Millisecond

// Handshake polls a freshly spawned engine until it reports readiness and
// then delivers the bridge. Polling happens at most once per Handshake.
type Handshake struct {
	bridge *Bridge
	cfg    HandshakeConfig
	logger *slog.Logger

	once sync.Once
	done chan struct{}

	mu       sync.Mutex
	state    HandshakeState
	attempts int
	result   *Bridge
	err      error
}

// NewHandshake creates a handshake for the engine behind b.
func NewHandshake(b *Bridge, cfg HandshakeConfig, logger *slog.Logger) *Handshake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handshake{
		bridge: b,
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
		state:  Spawned,
	}
}

// Run starts polling on the first call and waits for the outcome. Later calls
// wait for the same outcome; the bridge is handed out from a single result.
// ctx of the first call bounds the polling itself.
func (h *Handshake) Run(ctx context.Context) (*Bridge, error) {
	h.once.Do(func() {
		h.setState(Polling)
		go func() {
			b, err := h.poll(ctx)
			h.mu.Lock()
			h.result, h.err = b, err
			if err != nil {
				h.state = Failed
			} else {
				h.state = Ready
			}
			h.mu.Unlock()
			close(h.done)
		}()
	})
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// poll issues an Initialize call every interval without waiting for earlier
// ones to answer. The first truthy reply wins and the rest are abandoned.
// Each call is bounded only by the bridge's call timeout.
func (h *Handshake) poll(ctx context.Context) (*Bridge, error) {
	interval := h.cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan bool)
	attempt, pending := 0, 0
	issue := func() {
		attempt++
		pending++
		h.mu.Lock()
		h.attempts = attempt
		h.mu.Unlock()
		go func(attempt int) {
			ok, err := h.bridge.Initialize(pctx)
			switch {
			case err != nil:
				h.logger.Debug("engine ping error", "attempt", attempt, "err", err)
			case !ok:
				h.logger.Debug("engine not ready yet", "attempt", attempt)
			}
			select {
			case replies <- ok && err == nil:
			case <-pctx.Done():
			}
		}(attempt)
	}
	exhausted := func() bool {
		return h.cfg.MaxAttempts > 0 && attempt >= h.cfg.MaxAttempts
	}

	issue()
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case ok := <-replies:
			pending--
			if ok {
				h.logger.Info("engine is ready", "attempts", attempt)
				return h.bridge, nil
			}
			if exhausted() && pending == 0 {
				h.logger.Error("engine never became ready", "attempts", attempt)
				return nil, fmt.Errorf("%w after %d attempts", ErrHandshakeFailed, attempt)
			}
		case <-timer.C:
			if exhausted() {
				// Wait for the outstanding polls to answer.
				continue
			}
			if h.cfg.Backoff > 1 {
				interval = time.Duration(float64(interval) * h.cfg.Backoff)
				if h.cfg.MaxInterval > 0 && interval > h.cfg.MaxInterval {
					interval = h.cfg.MaxInterval
				}
			}
			issue()
			timer.Reset(interval)
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, ctx.Err())
		}
	}
}

func (h *Handshake) setState(s HandshakeState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// State returns the current stage.
func (h *Handshake) State() HandshakeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Attempts returns how many polls have been issued so far.
func (h *Handshake) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Done is closed once the handshake reaches Ready or Failed.
func (h *Handshake) Done() <-chan struct{} {
	return h.done
}
