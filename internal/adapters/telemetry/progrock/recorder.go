// Package progrock records build progress on a progrock tape.
package progrock

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
)

// Recorder implements ports.Telemetry on top of a progrock writer.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex. Commands sharing a label are told apart by their
// outputs, so both take part in the vertex digest.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := ports.NewVertexConfig(opts...)
	v := &vertex{VertexRecorder: r.rec.Vertex(VertexDigest(name, cfg.Outputs), name)}
	return ports.ContextWithVertex(ctx, v), v
}

// Close closes the underlying writer when it supports closing.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// VertexDigest derives the vertex identity from its name and outputs.
func VertexDigest(name string, outputs []string) digest.Digest {
	if len(outputs) == 0 {
		return digest.FromString(name)
	}
	return digest.FromString(name + "\x00" + strings.Join(outputs, "\x00"))
}

// vertex adapts a progrock.VertexRecorder to ports.Vertex. Its Stdout, Stderr
// and Cached methods are promoted from the recorder.
type vertex struct {
	*progrock.VertexRecorder
}

// Log writes warnings and errors to the vertex's stderr, everything else to stdout.
func (v *vertex) Log(level domain.LogLevel, msg string) {
	var w io.Writer = v.Stdout()
	if level >= domain.LogLevelWarn {
		w = v.Stderr()
	}
	_, _ = fmt.Fprintf(w, "[%s] %s\n", level, msg)
}

func (v *vertex) Complete(err error) {
	v.Done(err)
}
