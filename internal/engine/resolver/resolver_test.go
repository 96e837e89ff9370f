package resolver_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/engine/resolver"
)

// project builds a graph with the given component roots and files and maps
// files to components.
func project(t *testing.T, roots []string, files ...string) *domain.Graph {
	t.Helper()
	g := domain.NewGraph("/project")
	for _, r := range roots {
		g.AddComponent(r)
	}
	for _, f := range files {
		g.AddFile(f)
	}
	g.MapFilesToComponents()
	g.ForgetEmptyComponents()
	return g
}

func file(t *testing.T, g *domain.Graph, p string) *domain.File {
	t.Helper()
	f, ok := g.FileByPath(p)
	require.True(t, ok, "file %s not in graph", p)
	return f
}

func component(t *testing.T, g *domain.Graph, root string) *domain.Component {
	t.Helper()
	c, err := g.ComponentByRoot(root)
	require.NoError(t, err)
	return c
}

func TestCreateIncludeLookupTable(t *testing.T) {
	g := project(t, []string{"lib/a", "lib/b"},
		"lib/a/foo.h", "lib/b/foo.h", "lib/a/bar.h", "tools/untracked.h")

	table := resolver.CreateIncludeLookupTable(g)

	_, candidates, ok := table.Lookup("foo.h")
	assert.False(t, ok)
	assert.Equal(t, []domain.FileID{file(t, g, "lib/a/foo.h").ID, file(t, g, "lib/b/foo.h").ID}, candidates)

	id, _, ok := table.Lookup("a/foo.h")
	assert.True(t, ok)
	assert.Equal(t, file(t, g, "lib/a/foo.h").ID, id)

	id, _, ok = table.Lookup("lib/a/bar.h")
	assert.True(t, ok)
	assert.Equal(t, file(t, g, "lib/a/bar.h").ID, id)

	_, candidates, ok = table.Lookup("stdio.h")
	assert.False(t, ok)
	assert.Empty(t, candidates)

	_, _, ok = table.Lookup("untracked.h")
	assert.False(t, ok, "files outside every component are not includable")

	assert.Equal(t, []string{"foo.h"}, table.Collisions())
}

func TestResolve_AmbiguousInclude(t *testing.T) {
	g := project(t, []string{"app", "lib/a", "lib/b"},
		"app/main.cpp", "lib/a/foo.h", "lib/b/foo.h")
	main := file(t, g, "app/main.cpp")
	fooA := file(t, g, "lib/a/foo.h")
	fooB := file(t, g, "lib/b/foo.h")

	ambiguous := resolver.Resolve(g, domain.IncludeMap{
		main.ID: {"foo.h"},
	})

	require.Len(t, ambiguous, 1)
	assert.Equal(t, "foo.h", ambiguous[0].Name)
	assert.Equal(t, main.ID, ambiguous[0].From)

	assert.True(t, fooA.HasInclude)
	assert.True(t, fooB.HasInclude)
	assert.True(t, main.HasInclude, "taint propagates to the includer")

	assert.True(t, main.DependsOn(fooA.ID))
	assert.True(t, main.DependsOn(fooB.ID))

	app := component(t, g, "app")
	assert.Equal(t,
		[]domain.ComponentID{component(t, g, "lib/a").ID, component(t, g, "lib/b").ID},
		app.PrivDeps.Sorted(),
		"every candidate becomes a dependency")
	assert.Empty(t, app.PubDeps)
	assert.True(t, fooA.Public)
	assert.True(t, fooB.Public)
	assert.False(t, main.Public)
	assert.Equal(t, []string{"lib/a"}, component(t, g, "lib/a").IncludeDirs)
}

func TestResolve_TaintedSourceKeepsPrivateEdges(t *testing.T) {
	g := project(t, []string{"svc", "lib/a", "lib/b", "net"},
		"svc/impl.cpp", "lib/a/foo.h", "lib/b/foo.h", "net/net.h")
	impl := file(t, g, "svc/impl.cpp")

	resolver.Resolve(g, domain.IncludeMap{
		impl.ID: {"foo.h", "net.h"},
	})

	assert.True(t, impl.HasInclude)
	assert.False(t, impl.Public, "a translation unit is never reachable from another component")

	svc := component(t, g, "svc")
	assert.Empty(t, svc.PubDeps)
	assert.Equal(t,
		[]domain.ComponentID{
			component(t, g, "lib/a").ID,
			component(t, g, "lib/b").ID,
			component(t, g, "net").ID,
		},
		svc.PrivDeps.Sorted())
}

func TestResolve_TaintedHeaderIncludedFromOutside(t *testing.T) {
	g := project(t, []string{"app", "svc", "lib/a", "lib/b"},
		"app/main.cpp", "svc/svc.h", "lib/a/foo.h", "lib/b/foo.h")
	main := file(t, g, "app/main.cpp")
	svcHeader := file(t, g, "svc/svc.h")

	resolver.Resolve(g, domain.IncludeMap{
		main.ID:      {"svc.h"},
		svcHeader.ID: {"foo.h"},
	})

	assert.True(t, svcHeader.Public)
	svc := component(t, g, "svc")
	assert.Equal(t,
		[]domain.ComponentID{component(t, g, "lib/a").ID, component(t, g, "lib/b").ID},
		svc.PubDeps.Sorted(),
		"a public header exposes every candidate of its ambiguous include")
	assert.Equal(t, []domain.ComponentID{svc.ID}, component(t, g, "app").PrivDeps.Sorted())
}

func TestResolve_PublicAndPrivateDependencies(t *testing.T) {
	g := project(t, []string{"app", "lib/a", "lib/b", "lib/c"},
		"app/main.cpp",
		"lib/a/a.h", "lib/a/a.cpp", "lib/a/impl.cpp",
		"lib/b/include/b.h",
		"lib/c/c.h",
	)
	main := file(t, g, "app/main.cpp")
	aH := file(t, g, "lib/a/a.h")
	aCpp := file(t, g, "lib/a/a.cpp")
	impl := file(t, g, "lib/a/impl.cpp")

	ambiguous := resolver.Resolve(g, domain.IncludeMap{
		main.ID: {"a/a.h", "vector"},
		aH.ID:   {"b.h"},
		aCpp.ID: {"a.h"},
		impl.ID: {"c.h", "a.h"},
	})
	require.Empty(t, ambiguous)

	app := component(t, g, "app")
	a := component(t, g, "lib/a")
	b := component(t, g, "lib/b")
	c := component(t, g, "lib/c")

	assert.Empty(t, app.PubDeps)
	assert.Equal(t, []domain.ComponentID{a.ID}, app.PrivDeps.Sorted())
	assert.Equal(t, []domain.ComponentID{b.ID}, a.PubDeps.Sorted())
	assert.Equal(t, []domain.ComponentID{c.ID}, a.PrivDeps.Sorted())

	assert.True(t, aH.Public)
	assert.False(t, aCpp.Public)
	assert.False(t, impl.Public)
	assert.False(t, main.Public)

	assert.Equal(t, []string{"lib", "lib/a"}, a.IncludeDirs)
	assert.Equal(t, []string{"lib/b/include"}, b.IncludeDirs)
	assert.Equal(t, []string{"lib/c"}, c.IncludeDirs)
}

func TestResolve_PublicDominatesPrivate(t *testing.T) {
	g := project(t, []string{"app", "lib/a", "lib/b"},
		"app/main.cpp", "lib/a/a.h", "lib/a/a.cpp", "lib/b/b.h")
	main := file(t, g, "app/main.cpp")
	aH := file(t, g, "lib/a/a.h")
	aCpp := file(t, g, "lib/a/a.cpp")

	resolver.Resolve(g, domain.IncludeMap{
		main.ID: {"a.h"},
		aCpp.ID: {"b.h"},
		aH.ID:   {"b.h"},
	})

	a := component(t, g, "lib/a")
	b := component(t, g, "lib/b")
	assert.Equal(t, []domain.ComponentID{b.ID}, a.PubDeps.Sorted())
	assert.Empty(t, a.PrivDeps)
}

func TestResolve_PublicReachWithinComponent(t *testing.T) {
	g := project(t, []string{"app", "lib/a", "lib/b"},
		"app/main.cpp", "lib/a/api.h", "lib/a/detail.h", "lib/b/b.h")
	main := file(t, g, "app/main.cpp")
	api := file(t, g, "lib/a/api.h")
	detail := file(t, g, "lib/a/detail.h")

	resolver.Resolve(g, domain.IncludeMap{
		main.ID:   {"api.h"},
		api.ID:    {"detail.h"},
		detail.ID: {"b.h"},
	})

	assert.True(t, detail.Public, "reachable from a public header")
	a := component(t, g, "lib/a")
	assert.Equal(t, []domain.ComponentID{component(t, g, "lib/b").ID}, a.PubDeps.Sorted())
}

func TestResolve_RelativeAndSelfIncludes(t *testing.T) {
	g := project(t, []string{"lib/a"},
		"lib/a/src/x.cpp", "lib/a/include/x.h", "lib/a/include/y.h")
	x := file(t, g, "lib/a/src/x.cpp")
	xh := file(t, g, "lib/a/include/x.h")
	yh := file(t, g, "lib/a/include/y.h")

	resolver.Resolve(g, domain.IncludeMap{
		x.ID:  {"../include/x.h", "../include/missing.h"},
		yh.ID: {"y.h", "./y.h"},
	})

	assert.Equal(t, []domain.FileID{xh.ID}, x.Dependencies)
	assert.Empty(t, yh.Dependencies)
	assert.Empty(t, component(t, g, "lib/a").IncludeDirs, "relative includes need no search path")
}

func TestPropagateExternalIncludes(t *testing.T) {
	g := project(t, []string{"lib"}, "lib/a.cpp", "lib/b.h", "lib/c.h", "lib/d.h")
	a := file(t, g, "lib/a.cpp")
	b := file(t, g, "lib/b.h")
	c := file(t, g, "lib/c.h")
	d := file(t, g, "lib/d.h")
	a.AddDependency(b.ID)
	b.AddDependency(c.ID)
	a.AddDependency(d.ID)
	c.HasInclude = true

	resolver.PropagateExternalIncludes(g)

	assert.True(t, a.HasInclude)
	assert.True(t, b.HasInclude)
	assert.True(t, c.HasInclude)
	assert.False(t, d.HasInclude)
}

func TestResolve_AmbiguityIsMonotonic(t *testing.T) {
	tainted := func(n int) map[string]bool {
		roots := []string{"app"}
		files := []string{"app/main.cpp"}
		for i := range n {
			root := fmt.Sprintf("lib/m%d", i)
			roots = append(roots, root)
			files = append(files, root+"/foo.h")
		}
		g := project(t, roots, files...)
		main := file(t, g, "app/main.cpp")
		resolver.Resolve(g, domain.IncludeMap{main.ID: {"foo.h"}})

		set := make(map[string]bool)
		for f := range g.Files() {
			if f.HasInclude {
				set[f.Path.String()] = true
			}
		}
		return set
	}

	prev := tainted(1)
	assert.Empty(t, prev, "a single candidate is not ambiguous")
	for n := 2; n <= 5; n++ {
		cur := tainted(n)
		for p := range prev {
			assert.True(t, cur[p], "%s lost its taint with %d candidates", p, n)
		}
		assert.Len(t, cur, n+1)
		prev = cur
	}
}
