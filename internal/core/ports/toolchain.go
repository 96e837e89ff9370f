package ports

import "go.trai.ch/evoke/internal/core/domain"

// Toolchain synthesizes the build commands of every component.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// CreateCommands adds compile, archive and link commands to the graph.
	// The graph's dependency edges must already be resolved.
	CreateCommands(graph *domain.Graph, cfg *domain.Config) error
}
