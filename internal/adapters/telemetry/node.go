package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/evoke/internal/adapters/telemetry/progrock"
	"go.trai.ch/evoke/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.TelemetrySelector]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TelemetrySelector, error) {
			return NewSwitch(progrock.New()), nil
		},
	})
}
