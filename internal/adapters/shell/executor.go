// Package shell provides the executor adapter that runs build steps as
// child processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

var _ ports.Executor = (*Executor)(nil)

// Execute runs cmd.Argv in cmd.Dir and waits for it to exit.
//
// The process sees os.Environ() overlaid by cmd.Env, and argv[0] is looked up
// on the PATH of that merged environment. Output lines are streamed to the
// given writers and logged: stdout at info level, stderr at warn level. When ctx
// carries a telemetry vertex, the command line is recorded on it first.
func (e *Executor) Execute(ctx context.Context, desc domain.Descriptor, stdout, stderr io.Writer) (int, error) {
	if len(desc.Argv) == 0 {
		return -1, zerr.With(domain.ErrEmptyCommand, "command", desc.Label)
	}

	name := desc.Argv[0]
	cmdEnv := resolveEnvironment(os.Environ(), desc.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelDebug, "$ "+strings.Join(desc.Argv, " "))
	}

	cmd := exec.CommandContext(ctx, executable, desc.Argv[1:]...) //nolint:gosec // argv is synthesized by the toolchain
	cmd.Args[0] = name
	cmd.Dir = desc.Dir
	cmd.Env = cmdEnv

	stdoutLog := &logWriter{log: e.logger.Info}
	stderrLog := &logWriter{log: e.logger.Warn}
	cmd.Stdout = io.MultiWriter(stdoutLog, orDiscard(stdout))
	cmd.Stderr = io.MultiWriter(stderrLog, orDiscard(stderr))

	err := cmd.Run()
	_ = stdoutLog.Close()
	_ = stderrLog.Close()

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "exit_code", exitCode)
		return exitCode, zerr.With(err, "command", desc.Label)
	}
	return 0, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// logWriter forwards complete lines to a log function. A trailing partial
// line is flushed by Close.
type logWriter struct {
	log func(string)
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	w.log(strings.TrimSuffix(string(line), "\r"))
}

// resolveEnvironment overlays overrides on the system environment. The result
// is sorted by variable name.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
