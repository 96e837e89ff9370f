// Package scanner discovers the files, components and raw includes of a C/C++
// source tree.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/adapters/fs"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var (
	includeRe = regexp.MustCompile(`^\s*#\s*include\s*[<"]([^>"]+)[>"]`)
	mainRe    = regexp.MustCompile(`(?m)^\s*(?:int|auto|void)\s+main\s*\(`)
)

// foldedDirs are directory names that belong to their parent's component.
var foldedDirs = []string{"src", "include"}

// Scanner implements ports.Scanner on the local file system.
type Scanner struct {
	walker *fs.Walker
	logger ports.Logger
}

var _ ports.Scanner = (*Scanner)(nil)

// New creates a new Scanner.
func New(walker *fs.Walker, logger ports.Logger) *Scanner {
	return &Scanner{walker: walker, logger: logger}
}

// unit is what reading a single file yields.
type unit struct {
	includes []string
	hasMain  bool
}

// Scan walks root and builds a graph of its tracked files and components.
func (s *Scanner) Scan(ctx context.Context, root string, cfg *domain.Config) (*domain.Graph, domain.IncludeMap, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, domain.ErrScanFailed.Error()), "root", root)
	}

	g := domain.NewGraph(abs)
	files, err := s.collect(ctx, g, cfg)
	if err != nil {
		return nil, nil, err
	}
	g.MapFilesToComponents()
	g.ForgetEmptyComponents()

	units, err := s.read(ctx, g, files, cfg)
	if err != nil {
		return nil, nil, err
	}

	includes := make(domain.IncludeMap)
	for i, f := range files {
		u := units[i]
		if len(u.includes) > 0 {
			includes[f.ID] = u.includes
		}
		if u.hasMain && slices.Contains(cfg.Sources, f.Ext()) {
			if c := g.Component(f.Component); c != nil {
				c.Type = domain.ComponentExecutable
			}
		}
	}

	for _, exe := range cfg.Executables {
		c, err := g.ComponentByRoot(exe)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("executable %q is not a component", exe))
			continue
		}
		c.Type = domain.ComponentExecutable
	}

	return g, includes, nil
}

// collect registers every tracked file and a component candidate for its directory.
func (s *Scanner) collect(ctx context.Context, g *domain.Graph, cfg *domain.Config) ([]*domain.File, error) {
	buildDir := domain.CleanPath(cfg.BuildDir)

	var files []*domain.File
	for p := range s.walker.WalkFiles(g.Root(), cfg.Ignore) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(g.Root(), p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrScanFailed.Error()), "path", p)
		}
		rel = domain.CleanPath(rel)
		if rel == buildDir || strings.HasPrefix(rel, buildDir+"/") {
			continue
		}
		ext := strings.ToLower(path.Ext(rel))
		if !slices.Contains(cfg.Sources, ext) && !slices.Contains(cfg.Headers, ext) {
			continue
		}

		f := g.AddFile(rel)
		g.AddComponent(ComponentRoot(f.Dir()))
		files = append(files, f)
	}
	return files, nil
}

// read extracts includes from every file with a bounded number of workers.
func (s *Scanner) read(ctx context.Context, g *domain.Graph, files []*domain.File, cfg *domain.Config) ([]unit, error) {
	units := make([]unit, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism())
	for i, f := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			full := filepath.Join(g.Root(), filepath.FromSlash(f.Path.String()))
			data, err := os.ReadFile(full) //nolint:gosec // path comes from walking the project
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrScanFailed.Error()), "path", f.Path.String())
			}
			units[i] = parse(data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// parse returns the include names of a file in source order and whether it
// defines main.
func parse(data []byte) unit {
	var u unit
	for line := range bytes.Lines(data) {
		if !bytes.Contains(line, []byte("include")) {
			continue
		}
		if m := includeRe.FindSubmatch(line); m != nil {
			u.includes = append(u.includes, strings.TrimSpace(string(m[1])))
		}
	}
	u.hasMain = mainRe.Match(data)
	return u
}

// ComponentRoot returns the component candidate for a directory. A src or
// include directory and everything below it belong to the parent of the
// outermost such directory.
func ComponentRoot(dir string) string {
	dir = domain.CleanPath(dir)
	if dir == "." {
		return dir
	}
	parts := strings.Split(dir, "/")
	for i, part := range parts {
		if slices.Contains(foldedDirs, part) {
			if i == 0 {
				return "."
			}
			return strings.Join(parts[:i], "/")
		}
	}
	return dir
}
