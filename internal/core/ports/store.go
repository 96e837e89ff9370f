package ports

import "go.trai.ch/evoke/internal/core/domain"

// BuildInfoStore defines the interface for storing and retrieving build information.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build info recorded under key in the store directory dir.
	// Returns nil, nil if not found.
	Get(dir, key string) (*domain.BuildInfo, error)

	// Put stores the build info under info.Key in the store directory dir.
	Put(dir string, info domain.BuildInfo) error
}
