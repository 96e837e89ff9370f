package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/evoke/internal/adapters/fs"
	"go.trai.ch/evoke/internal/adapters/scanner"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func newScanner(t *testing.T) (*scanner.Scanner, *mocks.MockLogger) {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	return scanner.New(fs.NewWalker(), log), log
}

func includesOf(t *testing.T, g *domain.Graph, includes domain.IncludeMap, p string) []string {
	t.Helper()
	f, ok := g.FileByPath(p)
	require.True(t, ok, "file %s not tracked", p)
	return includes[f.ID]
}

func componentOf(t *testing.T, g *domain.Graph, p string) *domain.Component {
	t.Helper()
	f, ok := g.FileByPath(p)
	require.True(t, ok, "file %s not tracked", p)
	c := g.Component(f.Component)
	require.NotNil(t, c, "file %s has no component", p)
	return c
}

func TestScan_Project(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/foo/include/foo/foo.h": "#pragma once\nint foo();\n",
		"lib/foo/src/foo.cpp":       "#include \"foo/foo.h\"\n#include <vector>\nint foo() { return 1; }\n",
		"app/main.cpp":              "#include \"foo/foo.h\"\n\nint main() {\n  return foo();\n}\n",
		"build/obj/app/stale.cpp":   "int main() {}\n",
		"third_party/x/x.h":         "",
		"README.md":                 "# project\n",
	})

	cfg := domain.DefaultConfig()
	cfg.Ignore = []string{"third_party"}

	s, _ := newScanner(t)
	g, includes, err := s.Scan(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, root, g.Root())
	assert.Equal(t, 3, g.FileCount())
	_, ok := g.FileByPath("build/obj/app/stale.cpp")
	assert.False(t, ok, "the build directory is never scanned")
	_, ok = g.FileByPath("third_party/x/x.h")
	assert.False(t, ok)

	var roots []string
	for c := range g.Components() {
		roots = append(roots, c.Root)
	}
	assert.ElementsMatch(t, []string{"app", "lib/foo"}, roots)

	lib := componentOf(t, g, "lib/foo/include/foo/foo.h")
	assert.Equal(t, "lib/foo", lib.Root)
	assert.Same(t, lib, componentOf(t, g, "lib/foo/src/foo.cpp"))
	assert.Equal(t, domain.ComponentLibrary, lib.Type)
	assert.Equal(t, domain.ComponentExecutable, componentOf(t, g, "app/main.cpp").Type)

	assert.Equal(t, []string{"foo/foo.h", "vector"}, includesOf(t, g, includes, "lib/foo/src/foo.cpp"))
	assert.Equal(t, []string{"foo/foo.h"}, includesOf(t, g, includes, "app/main.cpp"))
	assert.Empty(t, includesOf(t, g, includes, "lib/foo/include/foo/foo.h"))
}

func TestScan_MainInHeaderDoesNotMakeExecutable(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/entry.h": "int main() { return 0; }\n",
		"lib/lib.c":   "int lib(void) { return 0; }\n",
	})

	s, _ := newScanner(t)
	g, _, err := s.Scan(context.Background(), root, domain.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.ComponentLibrary, componentOf(t, g, "lib/lib.c").Type)
}

func TestScan_ConfiguredExecutables(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tools/gen/gen.cpp": "int run() { return 0; }\n",
	})

	cfg := domain.DefaultConfig()
	cfg.Executables = []string{"tools/gen", "tools/missing"}

	s, log := newScanner(t)
	log.EXPECT().Warn(`executable "tools/missing" is not a component`).Times(1)

	g, _, err := s.Scan(context.Background(), root, cfg)
	require.NoError(t, err)
	assert.Equal(t, domain.ComponentExecutable, componentOf(t, g, "tools/gen/gen.cpp").Type)
}

func TestScan_RootComponent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/main.c":     "#include \"util.h\"\nint main(void) { return 0; }\n",
		"include/util.h": "",
	})

	s, _ := newScanner(t)
	g, _, err := s.Scan(context.Background(), root, domain.DefaultConfig())
	require.NoError(t, err)

	c := componentOf(t, g, "src/main.c")
	assert.Equal(t, ".", c.Root)
	assert.Same(t, c, componentOf(t, g, "include/util.h"))
	assert.Equal(t, domain.ComponentExecutable, c.Type)
}

func TestScan_CustomExtensions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/a.cxx": "",
		"lib/a.hpp": "",
		"lib/b.c":   "",
	})

	cfg := domain.DefaultConfig()
	cfg.Sources = []string{".cxx"}
	cfg.Headers = []string{".hpp"}

	s, _ := newScanner(t)
	g, _, err := s.Scan(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, g.FileCount())
	_, ok := g.FileByPath("lib/b.c")
	assert.False(t, ok)
}

func TestScan_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"lib/a.c": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := newScanner(t)
	_, _, err := s.Scan(ctx, root, domain.DefaultConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestComponentRoot(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{".", "."},
		{"src", "."},
		{"include/project", "."},
		{"lib/foo", "lib/foo"},
		{"lib/foo/src", "lib/foo"},
		{"lib/foo/include/foo", "lib/foo"},
		{"lib/foo/src/detail", "lib/foo"},
		{"lib/sources", "lib/sources"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, scanner.ComponentRoot(tt.dir))
		})
	}
}
