package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/evoke/internal/adapters/config"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
	return dir
}

func TestLoader_Load_Full(t *testing.T) {
	dir := writeConfig(t, `
version: "1"
build_dir: out/build/
jobs: 8
toolchain:
  cc: clang
  cxx: clang++
  ar: llvm-ar
  cflags: [-O2]
  cxxflags: [-std=c++20]
  ldflags: [-pthread]
sources: [.CPP, .c, .cpp]
headers: [.h]
ignore: [third_party]
executables: [tools/gen/]
env:
  CCACHE_DIR: /tmp/ccache
telemetry: OTel
otlp_endpoint: localhost:4317
`)

	loader := config.NewLoader(mocks.NewMockLogger(gomock.NewController(t)))
	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "out/build", cfg.BuildDir)
	assert.Equal(t, 8, cfg.Jobs)
	assert.Equal(t, 8, cfg.Parallelism())
	assert.Equal(t, domain.Toolchain{
		CC: "clang", CXX: "clang++", AR: "llvm-ar",
		CFlags: []string{"-O2"}, CXXFlags: []string{"-std=c++20"}, LDFlags: []string{"-pthread"},
	}, cfg.Toolchain)
	assert.Equal(t, []string{".c", ".cpp"}, cfg.Sources)
	assert.Equal(t, []string{".h"}, cfg.Headers)
	assert.Equal(t, []string{"third_party"}, cfg.Ignore)
	assert.Equal(t, []string{"tools/gen"}, cfg.Executables)
	assert.Equal(t, map[string]string{"CCACHE_DIR": "/tmp/ccache"}, cfg.Env)
	assert.Equal(t, domain.TelemetryOTel, cfg.Telemetry)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestLoader_Load_PartialKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, `
version: "1"
toolchain:
  cxx: clang++
`)

	cfg, err := config.NewLoader(nil).Load(dir)
	require.NoError(t, err)

	defaults := domain.DefaultConfig()
	assert.Equal(t, "clang++", cfg.Toolchain.CXX)
	assert.Equal(t, defaults.Toolchain.CC, cfg.Toolchain.CC)
	assert.Equal(t, defaults.BuildDir, cfg.BuildDir)
	assert.Equal(t, defaults.Sources, cfg.Sources)
	assert.Equal(t, defaults.Headers, cfg.Headers)
	assert.Equal(t, domain.TelemetryProgrock, cfg.Telemetry)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).Times(1)

	cfg, err := config.NewLoader(log).Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoader_Load_EmptyFile(t *testing.T) {
	cfg, err := config.NewLoader(nil).Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig().BuildDir, cfg.BuildDir)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "version: [", domain.ErrConfigParseFailed.Error()},
		{"unknown key", "version: \"1\"\ntasks: {}\n", domain.ErrConfigParseFailed.Error()},
		{"unsupported version", "version: \"2\"\n", "unsupported schema version"},
		{"build dir outside project", "build_dir: ../out\n", "must be a path inside the project"},
		{"absolute build dir", "build_dir: /tmp/out\n", "must be a path inside the project"},
		{"build dir is root", "build_dir: .\n", "must not be the project root"},
		{"negative jobs", "jobs: -1\n", "must not be negative"},
		{"empty compiler", "toolchain:\n  cc: \"\"\n", "must name a program"},
		{"extension without dot", "sources: [cpp]\n", "extensions start with a dot"},
		{"no sources", "sources: []\n", "must list at least one extension"},
		{"overlapping extensions", "sources: [.c]\nheaders: [.c]\n", "also listed as a source"},
		{"unknown telemetry", "telemetry: jaeger\n", "unknown telemetry backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.NewLoader(nil).Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParse_InvalidConfigCarriesKey(t *testing.T) {
	_, err := config.Parse([]byte("jobs: -3\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())

	var meta interface{ Metadata() map[string]any }
	require.ErrorAs(t, err, &meta)
	assert.Equal(t, "jobs", meta.Metadata()["key"])
	assert.Equal(t, -3, meta.Metadata()["value"])
}
