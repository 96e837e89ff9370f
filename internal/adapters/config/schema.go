package config

import "go.trai.ch/evoke/internal/core/domain"

// supportedVersions lists the evoke.yaml schema versions this loader reads.
var supportedVersions = []string{"1"}

// telemetryBackends lists the accepted values of the telemetry key.
var telemetryBackends = []string{
	domain.TelemetryProgrock,
	domain.TelemetryOTel,
	domain.TelemetryNone,
}
