// Package app implements the application layer for evoke.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/evoke/internal/engine/resolver"
	"go.trai.ch/evoke/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scanner      ports.Scanner
	toolchain    ports.Toolchain
	scheduler    *scheduler.Scheduler
	telemetry    ports.TelemetrySelector
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	scanner ports.Scanner,
	toolchain ports.Toolchain,
	sched *scheduler.Scheduler,
	telemetry ports.TelemetrySelector,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		scanner:      scanner,
		toolchain:    toolchain,
		scheduler:    sched,
		telemetry:    telemetry,
		logger:       log,
	}
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Jobs overrides the configured parallelism when positive.
	Jobs    int
	NoCache bool
}

// Project is a loaded source tree with resolved dependencies.
type Project struct {
	Config    *domain.Config
	Graph     *domain.Graph
	Ambiguous []resolver.Ambiguous
}

// Load reads the configuration of the project at root, scans it and resolves
// its dependencies.
func (a *App) Load(ctx context.Context, root string) (*Project, error) {
	cfg, err := a.configLoader.Load(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return a.load(ctx, root, cfg)
}

func (a *App) load(ctx context.Context, root string, cfg *domain.Config) (*Project, error) {
	graph, includes, err := a.scanner.Scan(ctx, root, cfg)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrScanFailed.Error())
	}

	a.logger.Debug(fmt.Sprintf("scanned %d files into %d components", graph.FileCount(), countComponents(graph)))

	ambiguous := resolver.Resolve(graph, includes)
	for _, amb := range ambiguous {
		a.logger.Warn(describeAmbiguous(graph, amb))
	}

	if err := a.toolchain.CreateCommands(graph, cfg); err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}

	return &Project{Config: cfg, Graph: graph, Ambiguous: ambiguous}, nil
}

// Build loads the project at root and runs its commands. It returns
// ErrBuildFailed when any component did not build.
func (a *App) Build(ctx context.Context, root string, opts BuildOptions) (err error) {
	cfg, err := a.configLoader.Load(root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if err := a.telemetry.Select(ctx, cfg); err != nil {
		return err
	}
	defer func() {
		if closeErr := a.telemetry.Close(); closeErr != nil {
			a.logger.Error(closeErr)
		}
	}()

	ctx, vertex := a.telemetry.Record(ctx, "build")
	defer func() { vertex.Complete(err) }()

	project, err := a.load(ctx, root, cfg)
	if err != nil {
		return err
	}

	jobs := cfg.Parallelism()
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}
	storeDir := filepath.Join(project.Graph.Root(), domain.StorePath(cfg.BuildDir))

	err = a.scheduler.Run(ctx, project.Graph, scheduler.RunOptions{
		Parallelism: jobs,
		NoCache:     opts.NoCache,
		StoreDir:    storeDir,
	})
	if err != nil {
		return err
	}

	failed := project.Graph.Failed()
	for _, c := range failed {
		a.logger.Warn(fmt.Sprintf("%s failed:\n%s", project.Graph.ComponentName(c), strings.TrimRight(c.Status.Errors, "\n")))
	}
	if len(failed) > 0 {
		return errors.Join(domain.ErrBuildFailed,
			zerr.With(zerr.New("components did not build"), "failed_components", len(failed)))
	}

	a.logger.Info(fmt.Sprintf("built %d components", countComponents(project.Graph)))
	return nil
}

// Graph loads the project at root and writes its components, dependencies,
// include order and link order to w.
func (a *App) Graph(ctx context.Context, root string, w io.Writer) error {
	project, err := a.Load(ctx, root)
	if err != nil {
		return err
	}
	return RenderGraph(w, project.Graph)
}

// Clean removes the build directory of the project at root.
func (a *App) Clean(_ context.Context, root string) error {
	cfg, err := a.configLoader.Load(root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	dir := filepath.Join(root, filepath.FromSlash(cfg.BuildDir))
	a.logger.Info(fmt.Sprintf("removing %s...", cfg.BuildDir))
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove build directory"), "path", dir)
	}
	a.logger.Info(fmt.Sprintf("removed %s", cfg.BuildDir))
	return nil
}

func describeAmbiguous(g *domain.Graph, amb resolver.Ambiguous) string {
	candidates := make([]string, len(amb.Candidates))
	for i, id := range amb.Candidates {
		candidates[i] = g.File(id).Path.String()
	}
	return fmt.Sprintf("ambiguous include %q in %s: could be %s",
		amb.Name, g.File(amb.From).Path.String(), strings.Join(candidates, ", "))
}

func countComponents(g *domain.Graph) int {
	n := 0
	for range g.Components() {
		n++
	}
	return n
}
