package ports

import (
	"context"
	"io"

	"go.trai.ch/evoke/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the progress of build steps.
type Telemetry interface {
	// Record starts a vertex for a unit of work. The returned context carries the vertex.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes and ends the recording session.
	Close() error
}

// TelemetrySelector is a Telemetry whose backend is chosen once the project
// configuration is known.
type TelemetrySelector interface {
	Telemetry
	// Select closes the current backend and switches to the one named by
	// cfg.Telemetry.
	Select(ctx context.Context, cfg *domain.Config) error
}

// Vertex is a single recorded unit of work.
type Vertex interface {
	// Stdout returns a writer for the standard output stream.
	Stdout() io.Writer
	// Stderr returns a writer for the error output stream.
	Stderr() io.Writer
	// Log records a message associated with the vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished, failed when err is non-nil.
	Complete(err error)
	// Cached marks the vertex as satisfied by the build info store.
	Cached()
}

// VertexConfig holds configuration for a starting vertex.
type VertexConfig struct {
	// Inputs are the file paths the unit of work reads.
	Inputs []string
	// Outputs are the file paths the unit of work writes.
	Outputs []string
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// WithInputs attaches input paths to a vertex.
func WithInputs(paths ...string) VertexOption {
	return func(c *VertexConfig) {
		c.Inputs = append(c.Inputs, paths...)
	}
}

// WithOutputs attaches output paths to a vertex.
func WithOutputs(paths ...string) VertexOption {
	return func(c *VertexConfig) {
		c.Outputs = append(c.Outputs, paths...)
	}
}

// NewVertexConfig applies opts to an empty config.
func NewVertexConfig(opts ...VertexOption) VertexConfig {
	var cfg VertexConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
