// Package session wires one game: the engine channel, the store and the
// autoplay controllers. A session lives as long as the process.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"checkers-local/autoplay"
	"checkers-local/engine"
	"checkers-local/rpc"
	"checkers-local/store"
	"checkers-local/types"
)

// Options configures a session.
type Options struct {
	Engine        engine.Config
	AutoplayDelay time.Duration
	AutoplayRed   bool
	AutoplayBlack bool
}

// Session owns the engine channel, the game store and both autoplay controllers.
type Session struct {
	Store *store.Store
	Red   *autoplay.Controller
	Black *autoplay.Controller

	client    *rpc.Client
	handshake *engine.Handshake
	opts      Options
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a session around an engine reachable through client.
func New(client *rpc.Client, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	bridge := engine.NewBridge(client, opts.Engine.CallTimeout)
	st := store.New(logger.With("component", "store"))
	aplog := logger.With("component", "autoplay")
	return &Session{
		Store:     st,
		Red:       autoplay.New(st, types.Red, opts.AutoplayDelay, aplog),
		Black:     autoplay.New(st, types.Black, opts.AutoplayDelay, aplog),
		client:    client,
		handshake: engine.NewHandshake(bridge, opts.Engine.Handshake, logger.With("component", "handshake")),
		opts:      opts,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// StartProcess starts the engine executable and creates a session for it.
func StartProcess(opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := rpc.StartProcess(opts.Engine.EnginePath, opts.Engine.EngineArgs, logger.With("component", "rpc"))
	if err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", opts.Engine.EnginePath, err)
	}
	return New(client, opts, logger), nil
}

// Start runs the handshake and loads the first state. The returned channel
// reports when the game is ready to play.
func (s *Session) Start() <-chan error {
	s.Red.SetEnabled(s.opts.AutoplayRed)
	s.Black.SetEnabled(s.opts.AutoplayBlack)
	s.Red.Start(s.ctx)
	s.Black.Start(s.ctx)
	return s.Store.Initialize(s.ctx, s.handshake)
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Handshake returns the session's readiness handshake.
func (s *Session) Handshake() *engine.Handshake {
	return s.handshake
}

// Autoplay returns the controller for side, or nil for GameOver.
func (s *Session) Autoplay(side types.Turn) *autoplay.Controller {
	switch side {
	case types.Red:
		return s.Red
	case types.Black:
		return s.Black
	}
	return nil
}

// Close stops autoplay and shuts the engine down.
func (s *Session) Close() error {
	s.Red.Stop()
	s.Black.Stop()
	s.cancel()
	return s.client.Close()
}
