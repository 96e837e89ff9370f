// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/evoke/internal/core/domain"
)

// Executor defines the interface for running external build steps.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command described by cmd and waits for it to exit.
	//
	// Output is streamed to stdout and stderr as it is produced. The returned
	// exit code is -1 when the process could not be started or was killed.
	// A non-zero exit is also reported as an error.
	Execute(ctx context.Context, cmd domain.Descriptor, stdout, stderr io.Writer) (int, error)
}
