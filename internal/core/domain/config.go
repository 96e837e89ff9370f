package domain

import "runtime"

// Telemetry backends selectable in the config file.
const (
	TelemetryProgrock = "progrock"
	TelemetryOTel     = "otel"
	TelemetryNone     = "none"
)

// Toolchain names the compiler driver programs and their extra flags.
type Toolchain struct {
	CC       string   `yaml:"cc"`
	CXX      string   `yaml:"cxx"`
	AR       string   `yaml:"ar"`
	CFlags   []string `yaml:"cflags"`
	CXXFlags []string `yaml:"cxxflags"`
	LDFlags  []string `yaml:"ldflags"`
}

// Config is the resolved project configuration.
type Config struct {
	Version      string            `yaml:"version"`
	BuildDir     string            `yaml:"build_dir"`
	Jobs         int               `yaml:"jobs"`
	Toolchain    Toolchain         `yaml:"toolchain"`
	Sources      []string          `yaml:"sources"`
	Headers      []string          `yaml:"headers"`
	Ignore       []string          `yaml:"ignore"`
	Executables  []string          `yaml:"executables"`
	Env          map[string]string `yaml:"env"`
	Telemetry    string            `yaml:"telemetry"`
	OTLPEndpoint string            `yaml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Version:  "1",
		BuildDir: "build",
		Toolchain: Toolchain{
			CC:  "gcc",
			CXX: "g++",
			AR:  "ar",
		},
		Sources:   []string{".c", ".cc", ".cpp", ".cxx"},
		Headers:   []string{".h", ".hh", ".hpp", ".hxx", ".inl"},
		Env:       map[string]string{},
		Telemetry: TelemetryProgrock,
	}
}

// Parallelism returns the configured job count, or the number of CPUs when unset.
func (c *Config) Parallelism() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}
