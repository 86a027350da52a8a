package video2gif

import (
	"context"

	"github.com/RevoLabs-IO/video2gif/internal/conversion"
	"github.com/RevoLabs-IO/video2gif/internal/model"
)

// Session is a cancellable conversion handle. Cancel may be called from any
// goroutine at any time; it is idempotent and safe after completion.
type Session struct {
	orch *conversion.Orchestrator
	cfg  model.EngineConfig
}

// NewSession prepares a cancellable conversion with the given config (nil
// selects defaults). The engine instance is still shared process-wide; the
// session owns only its request's lifecycle.
func NewSession(cfg *EngineConfig) *Session {
	return &Session{
		orch: conversion.New(conversion.WithLoader(sharedLoader())),
		cfg:  resolveConfig(cfg),
	}
}

// Convert runs the conversion. A session that was cancelled beforehand
// fails with the CANCELLED kind.
func (s *Session) Convert(ctx context.Context, payload []byte, opts Options) (*Result, error) {
	return s.orch.Convert(ctx, payload, opts, s.cfg)
}

// Cancel requests cooperative cancellation of the in-flight conversion.
func (s *Session) Cancel() {
	s.orch.Cancel()
}

// IsCancelled reports whether cancellation has been requested.
func (s *Session) IsCancelled() bool {
	return s.orch.IsCancelled()
}
