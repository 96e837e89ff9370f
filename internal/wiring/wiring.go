// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/evoke/internal/adapters/cas"
	_ "go.trai.ch/evoke/internal/adapters/config"
	_ "go.trai.ch/evoke/internal/adapters/fs"
	_ "go.trai.ch/evoke/internal/adapters/logger"
	_ "go.trai.ch/evoke/internal/adapters/scanner"
	_ "go.trai.ch/evoke/internal/adapters/shell"
	_ "go.trai.ch/evoke/internal/adapters/telemetry"
	_ "go.trai.ch/evoke/internal/adapters/toolchain"
	// Register app and engine nodes.
	_ "go.trai.ch/evoke/internal/app"
	_ "go.trai.ch/evoke/internal/engine/scheduler"
)
