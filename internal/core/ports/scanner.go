package ports

import (
	"context"

	"go.trai.ch/evoke/internal/core/domain"
)

// Scanner discovers the files and candidate components of a source tree.
//
//go:generate go run go.uber.org/mock/mockgen -source=scanner.go -destination=mocks/mock_scanner.go -package=mocks
type Scanner interface {
	// Scan walks root and returns a graph with files mapped to components,
	// plus the raw include names found in every file.
	Scan(ctx context.Context, root string, cfg *domain.Config) (*domain.Graph, domain.IncludeMap, error)
}
