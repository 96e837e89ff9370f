package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/evoke/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/evoke/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/evoke/internal/adapters/scanner"   //nolint:depguard // Wired in app layer
	"go.trai.ch/evoke/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/evoke/internal/adapters/toolchain" //nolint:depguard // Wired in app layer
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/evoke/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			scanner.NodeID,
			toolchain.NodeID,
			scheduler.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	scan, err := graft.Dep[ports.Scanner](ctx)
	if err != nil {
		return nil, err
	}

	tc, err := graft.Dep[ports.Toolchain](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.TelemetrySelector](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, scan, tc, sched, tel, log), nil
}
