// Package config provides the evoke.yaml configuration loader.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

var _ ports.ConfigLoader = (*Loader)(nil)

// Load reads evoke.yaml from cwd. Keys missing from the file keep their
// default values, and a missing file yields the defaults.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath := filepath.Join(cwd, domain.ConfigFileName)

	data, err := os.ReadFile(configPath) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Logger.Info(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
			return domain.DefaultConfig(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

// Parse decodes an evoke.yaml document on top of the defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates cfg and brings paths and extensions into canonical form.
func normalize(cfg *domain.Config) error {
	if !slices.Contains(supportedVersions, cfg.Version) {
		return invalid("version", cfg.Version, "unsupported schema version")
	}

	buildDir, err := projectPath("build_dir", cfg.BuildDir)
	if err != nil {
		return err
	}
	if buildDir == "." {
		return invalid("build_dir", cfg.BuildDir, "must not be the project root")
	}
	cfg.BuildDir = buildDir

	if cfg.Jobs < 0 {
		return invalid("jobs", cfg.Jobs, "must not be negative")
	}

	for key, tool := range map[string]string{
		"toolchain.cc":  cfg.Toolchain.CC,
		"toolchain.cxx": cfg.Toolchain.CXX,
		"toolchain.ar":  cfg.Toolchain.AR,
	} {
		if strings.TrimSpace(tool) == "" {
			return invalid(key, tool, "must name a program")
		}
	}

	if cfg.Sources, err = extensions("sources", cfg.Sources); err != nil {
		return err
	}
	if cfg.Headers, err = extensions("headers", cfg.Headers); err != nil {
		return err
	}
	for _, ext := range cfg.Sources {
		if slices.Contains(cfg.Headers, ext) {
			return invalid("headers", ext, "extension is also listed as a source")
		}
	}

	for i, exe := range cfg.Executables {
		if cfg.Executables[i], err = projectPath("executables", exe); err != nil {
			return err
		}
	}

	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}

	cfg.Telemetry = strings.ToLower(cfg.Telemetry)
	if !slices.Contains(telemetryBackends, cfg.Telemetry) {
		return invalid("telemetry", cfg.Telemetry, "unknown telemetry backend")
	}

	return nil
}

// projectPath cleans a slash-separated path that must stay inside the project.
func projectPath(key, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalid(key, p, "must not be empty")
	}
	clean := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", invalid(key, p, "must be a path inside the project")
	}
	return clean, nil
}

// extensions lowercases and deduplicates a list of file extensions.
func extensions(key string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		return nil, invalid(key, "", "must list at least one extension")
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if len(ext) < 2 || ext[0] != '.' {
			return nil, invalid(key, ext, "extensions start with a dot")
		}
		out = append(out, ext)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func invalid(key string, value any, reason string) error {
	err := zerr.With(zerr.Wrap(errors.New(reason), domain.ErrInvalidConfig.Error()), "key", key)
	return zerr.With(err, "value", value)
}
