// Package telemetry provides the build progress recorders and the switch that
// selects one of them from the project configuration.
package telemetry

import (
	"context"
	"sync"

	"go.trai.ch/evoke/internal/adapters/telemetry/progrock"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// Switch forwards to the currently selected telemetry backend.
type Switch struct {
	mu      sync.RWMutex
	current ports.Telemetry
}

var _ ports.TelemetrySelector = (*Switch)(nil)

// NewSwitch returns a Switch that records through initial until Select is called.
func NewSwitch(initial ports.Telemetry) *Switch {
	if initial == nil {
		initial = NewNoop()
	}
	return &Switch{current: initial}
}

// Record starts a vertex on the current backend.
func (s *Switch) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	s.mu.RLock()
	backend := s.current
	s.mu.RUnlock()
	return backend.Record(ctx, name, opts...)
}

// Close closes the current backend.
func (s *Switch) Close() error {
	s.mu.RLock()
	backend := s.current
	s.mu.RUnlock()
	return backend.Close()
}

// Select opens the backend named by cfg.Telemetry and closes the previous one.
func (s *Switch) Select(ctx context.Context, cfg *domain.Config) error {
	next, err := Open(ctx, cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if err := prev.Close(); err != nil {
		return zerr.Wrap(err, "failed to close previous telemetry backend")
	}
	return nil
}

// Open creates the telemetry backend named by cfg.Telemetry.
func Open(ctx context.Context, cfg *domain.Config) (ports.Telemetry, error) {
	switch cfg.Telemetry {
	case domain.TelemetryProgrock, "":
		return progrock.New(), nil
	case domain.TelemetryOTel:
		return NewOTel(ctx, cfg.OTLPEndpoint)
	case domain.TelemetryNone:
		return NewNoop(), nil
	default:
		return nil, zerr.With(domain.ErrTelemetryInitFailed, "backend", cfg.Telemetry)
	}
}
