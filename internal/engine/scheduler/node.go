package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/evoke/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/evoke/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/evoke/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/evoke/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/evoke/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/evoke/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
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

			return NewScheduler(executor, store, hasher, tel, log), nil
		},
	})
}
