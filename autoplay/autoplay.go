// Package autoplay lets the engine play a side on its own.
package autoplay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"checkers-local/store"
	"checkers-local/types"
)

// DefaultDelay is the pause before the engine moves for an autoplayed side.
const DefaultDelay = 250 * time.Millisecond

// Store is the part of the game store the controller needs.
type Store interface {
	Subscribe(fn func(store.State)) (unsubscribe func())
	MakeAMove(ctx context.Context) <-chan error
}

// key identifies the situation a timer was scheduled for. Any change to it
// cancels the pending timer.
type key struct {
	turn    types.Turn
	version uint64
	enabled bool
	working bool
}

// position identifies a single turn on a single board.
type position struct {
	turn    types.Turn
	version uint64
}

// Controller asks the store for an engine move whenever it is its side's
// turn and autoplay is enabled for that side. It fires at most once per board.
type Controller struct {
	side   types.Turn
	delay  time.Duration
	st     Store
	logger *slog.Logger

	mu          sync.Mutex
	ctx         context.Context
	running     bool
	enabled     bool
	state       store.State
	key         key
	fired       position
	hasFired    bool
	timer       *time.Timer
	gen         uint64
	unsubscribe func()
	onFire      func(error)
}

// New creates a controller for side. It does nothing until Start is called.
func New(st Store, side types.Turn, delay time.Duration, logger *slog.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		side:   side,
		delay:  delay,
		st:     st,
		logger: logger.With("side", side.String()),
	}
}

// Side returns the side this controller plays.
func (c *Controller) Side() types.Turn {
	return c.side
}

// OnFire registers a callback for the outcome of every engine move the
// controller requests.
func (c *Controller) OnFire(fn func(error)) {
	c.mu.Lock()
	c.onFire = fn
	c.mu.Unlock()
}

// Start subscribes to the store. Engine moves are requested with ctx.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.ctx = ctx
	c.mu.Unlock()

	unsubscribe := c.st.Subscribe(c.observe)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Stop cancels any pending move and unsubscribes.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.running = false
	c.key = key{}
	c.cancelLocked()
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Enabled returns true if autoplay is on for the side.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled turns autoplay on or off.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if enabled {
		// Re-enabling plays the current position even if it was played before.
		c.hasFired = false
	}
	c.logger.Info("autoplay toggled", "enabled", enabled)
	c.reconcileLocked()
}

// Toggle flips autoplay and returns the new setting.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	enabled := !c.enabled
	c.mu.Unlock()
	c.SetEnabled(enabled)
	return enabled
}

func (c *Controller) observe(st store.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.state = st
	c.reconcileLocked()
}

// reconcileLocked reschedules the timer if the situation changed.
func (c *Controller) reconcileLocked() {
	k := key{
		turn:    c.state.Turn,
		version: c.state.BoardVersion,
		enabled: c.enabled,
		working: c.state.Working,
	}
	if k == c.key {
		return
	}
	c.cancelLocked()
	c.key = k

	if !c.enabled || !c.running || !c.state.Ready() || !c.state.HasBoard() {
		return
	}
	if c.state.Turn != c.side || c.state.Working {
		return
	}
	pos := position{turn: c.state.Turn, version: c.state.BoardVersion}
	if c.hasFired && c.fired == pos {
		return
	}

	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.fire(gen, pos) })
}

func (c *Controller) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) fire(gen uint64, pos position) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.fired = pos
	c.hasFired = true
	ctx := c.ctx
	onFire := c.onFire
	c.mu.Unlock()

	c.logger.Debug("autoplay firing", "board_version", pos.version)
	go func() {
		err := <-c.st.MakeAMove(ctx)
		switch {
		case errors.Is(err, store.ErrBusy):
			c.logger.Debug("autoplay skipped, engine busy")
		case err != nil:
			c.logger.Warn("autoplay move failed", "err", err)
		}
		if onFire != nil {
			onFire(err)
		}
	}()
}
