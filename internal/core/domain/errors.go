package domain

import "go.trai.ch/zerr"

var (
	// ErrComponentNotFound is returned when a requested component is not in the graph.
	ErrComponentNotFound = zerr.New("component not found")

	// ErrDuplicateProducer is returned when two commands declare the same output file.
	ErrDuplicateProducer = zerr.New("file is produced by more than one command")

	// ErrUntrackedOutput is returned when a command output is not owned by any component.
	ErrUntrackedOutput = zerr.New("command output is not owned by a component")

	// ErrCommandCycle is returned when commands wait on each other's outputs and none can start.
	ErrCommandCycle = zerr.New("cycle detected between commands")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrInputNotFound is returned when a declared input file is missing on disk.
	ErrInputNotFound = zerr.New("input not found")

	// ErrCommandFailed is returned when an external command cannot be started or exits abnormally.
	ErrCommandFailed = zerr.New("command failed")

	// ErrEmptyCommand is returned when a descriptor has no argv.
	ErrEmptyCommand = zerr.New("command has no arguments")

	// ErrBuildFailed is returned when at least one component failed to build.
	ErrBuildFailed = zerr.New("build failed")

	// ErrScanFailed is returned when the source tree cannot be scanned.
	ErrScanFailed = zerr.New("failed to scan source tree")

	// ErrToolchainFailed is returned when build commands cannot be synthesized.
	ErrToolchainFailed = zerr.New("failed to create build commands")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the config file parses but holds invalid values.
	ErrInvalidConfig = zerr.New("invalid config")

	// ErrTelemetryInitFailed is returned when the telemetry backend cannot be started.
	ErrTelemetryInitFailed = zerr.New("failed to initialize telemetry")
)
