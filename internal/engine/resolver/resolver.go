package resolver

import (
	"maps"
	"path"
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
)

// Ambiguous is an include name that matched more than one file.
type Ambiguous struct {
	From       domain.FileID
	Name       string
	Candidates []domain.FileID
}

// Resolve runs every resolution pass over g in order: lookup table, direct
// edges, ambiguity taint, taint propagation and public dependency extraction.
// It returns the ambiguous includes it found.
func Resolve(g *domain.Graph, includes domain.IncludeMap) []Ambiguous {
	table := CreateIncludeLookupTable(g)
	ambiguous := MapIncludesToDependencies(g, table, includes)
	TaintAmbiguous(g, ambiguous)
	PropagateExternalIncludes(g)
	ExtractPublicDependencies(g)
	return ambiguous
}

// MapIncludesToDependencies adds a file edge for every include name that
// resolves to exactly one file and records the directory the name is relative
// to on the target's component. Names starting with ./ or ../ are tried
// relative to the including file first. Names that match several files are
// returned as ambiguous and get an edge to every candidate, so the includer
// is rebuilt and linked against whichever one it meant. Unknown names are
// external headers and are ignored.
func MapIncludesToDependencies(g *domain.Graph, t *IncludeTable, includes domain.IncludeMap) []Ambiguous {
	var ambiguous []Ambiguous
	for _, id := range slices.Sorted(maps.Keys(includes)) {
		from := g.File(id)
		if from == nil {
			continue
		}
		for _, name := range includes[id] {
			if target, ok := resolveRelative(g, from, name); ok {
				from.AddDependency(target.ID)
				continue
			}

			target, candidates, ok := t.Lookup(name)
			switch {
			case ok:
				if target == from.ID {
					continue
				}
				from.AddDependency(target)
				recordIncludeDir(g, g.File(target), name)
			case len(candidates) > 0:
				ambiguous = append(ambiguous, Ambiguous{From: from.ID, Name: name, Candidates: candidates})
				for _, c := range candidates {
					if c != from.ID {
						from.AddDependency(c)
						recordIncludeDir(g, g.File(c), name)
					}
				}
			}
		}
	}
	return ambiguous
}

func resolveRelative(g *domain.Graph, from *domain.File, name string) (*domain.File, bool) {
	if !strings.HasPrefix(name, "./") && !strings.HasPrefix(name, "../") {
		return nil, false
	}
	f, ok := g.FileByPath(path.Join(from.Dir(), name))
	if !ok || f.ID == from.ID {
		return nil, false
	}
	return f, true
}

func recordIncludeDir(g *domain.Graph, target *domain.File, name string) {
	c := g.Component(target.Component)
	if c == nil {
		return
	}
	dir := strings.TrimSuffix(target.Path.String(), name)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	c.AddIncludeDir(dir)
}

// TaintAmbiguous marks every candidate of every ambiguous include with HasInclude.
func TaintAmbiguous(g *domain.Graph, ambiguous []Ambiguous) {
	for _, a := range ambiguous {
		for _, id := range a.Candidates {
			g.File(id).HasInclude = true
		}
	}
}

// PropagateExternalIncludes spreads the HasInclude taint from every file to
// every file that transitively includes it.
func PropagateExternalIncludes(g *domain.Graph) {
	includers := make(map[domain.FileID][]domain.FileID)
	var queue []domain.FileID
	for f := range g.Files() {
		for _, dep := range f.Dependencies {
			includers[dep] = append(includers[dep], f.ID)
		}
		if f.HasInclude {
			queue = append(queue, f.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, inc := range includers[id] {
			f := g.File(inc)
			if f.HasInclude {
				continue
			}
			f.HasInclude = true
			queue = append(queue, inc)
		}
	}
}

// ExtractPublicDependencies classifies files as public and derives component
// edges from cross-component file edges.
//
// A file is public when it is included from another component or when a public
// file of the same component reaches it. The HasInclude taint plays no part: it
// reaches every translation unit above an ambiguous header, and those are never
// visible outside their component. An edge whose including file is public goes
// to PubDeps, otherwise to PrivDeps.
func ExtractPublicDependencies(g *domain.Graph) {
	var queue []domain.FileID
	markPublic := func(f *domain.File) {
		if !f.Public {
			f.Public = true
			queue = append(queue, f.ID)
		}
	}

	for f := range g.Files() {
		for _, dep := range f.Dependencies {
			target := g.File(dep)
			if target.Component != domain.NoComponent && target.Component != f.Component {
				markPublic(target)
			}
		}
	}

	for len(queue) > 0 {
		f := g.File(queue[0])
		queue = queue[1:]
		for _, dep := range f.Dependencies {
			if target := g.File(dep); target.Component == f.Component {
				markPublic(target)
			}
		}
	}

	for f := range g.Files() {
		owner := g.Component(f.Component)
		if owner == nil {
			continue
		}
		for _, dep := range f.Dependencies {
			target := g.File(dep)
			if target.Component == domain.NoComponent || target.Component == owner.ID {
				continue
			}
			if g.Component(target.Component) == nil {
				continue
			}
			if f.Public {
				owner.AddPublicDependency(target.Component)
			} else {
				owner.AddPrivateDependency(target.Component)
			}
		}
	}
}
