package ports

import "go.trai.ch/evoke/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads evoke.yaml from the given directory. A missing file yields the defaults.
	Load(cwd string) (*domain.Config, error)
}
