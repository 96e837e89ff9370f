package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/evoke/internal/adapters/toolchain"
	"go.trai.ch/evoke/internal/core/domain"
)

func commandsByLabel(g *domain.Graph) map[string]*domain.PendingCommand {
	out := make(map[string]*domain.PendingCommand)
	for cmd := range g.Commands() {
		out[cmd.Descriptor.Label] = cmd
	}
	return out
}

func paths(g *domain.Graph, ids []domain.FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.File(id).Path.String()
	}
	return out
}

func addFile(g *domain.Graph, c *domain.Component, p string) *domain.File {
	f := g.AddFile(p)
	f.Component = c.ID
	c.Files = append(c.Files, f.ID)
	return f
}

// layeredProject builds app -> lib/net -> util, where util is header only.
func layeredProject() *domain.Graph {
	g := domain.NewGraph("/project")
	net := g.AddComponent("lib/net")
	util := g.AddComponent("util")
	app := g.AddComponent("app")
	app.Type = domain.ComponentExecutable

	netH := addFile(g, net, "lib/net/include/net/net.h")
	netCpp := addFile(g, net, "lib/net/src/net.cpp")
	utilH := addFile(g, util, "util/include/util/util.h")
	mainC := addFile(g, app, "app/main.c")

	netCpp.AddDependency(netH.ID)
	netH.AddDependency(utilH.ID)
	mainC.AddDependency(netH.ID)

	net.AddIncludeDir("lib/net/include")
	util.AddIncludeDir("util/include")
	net.AddPublicDependency(util.ID)
	app.AddPrivateDependency(net.ID)
	return g
}

func TestGCC_CreateCommands(t *testing.T) {
	g := layeredProject()
	cfg := domain.DefaultConfig()
	cfg.Toolchain.CFlags = []string{"-std=c11"}
	cfg.Toolchain.LDFlags = []string{"-pthread"}
	cfg.Env = map[string]string{"LANG": "C"}

	require.NoError(t, toolchain.NewGCC().CreateCommands(g, cfg))
	require.Equal(t, 4, g.CommandCount(), "the header only component gets no commands")
	cmds := commandsByLabel(g)

	compileNet := cmds["compile lib/net/src/net.cpp"]
	require.NotNil(t, compileNet)
	assert.Equal(t, []string{
		"g++", "-Iutil/include", "-Ilib/net/include",
		"-c", "-o", "build/obj/lib/net/src/net.o", "lib/net/src/net.cpp",
	}, compileNet.Descriptor.Argv)
	assert.Equal(t, []string{"lib/net/src/net.cpp", "lib/net/include/net/net.h", "util/include/util/util.h"},
		paths(g, compileNet.Inputs))
	assert.Equal(t, []string{"build/obj/lib/net/src/net.o"}, paths(g, compileNet.Outputs))
	assert.Equal(t, "/project", compileNet.Descriptor.Dir)
	assert.Equal(t, map[string]string{"LANG": "C"}, compileNet.Descriptor.Env)

	archive := cmds["archive build/lib/liblib.net.a"]
	require.NotNil(t, archive)
	assert.Equal(t, []string{"ar", "rcs", "build/lib/liblib.net.a", "build/obj/lib/net/src/net.o"},
		archive.Descriptor.Argv)
	assert.Equal(t, compileNet.Outputs, archive.Inputs)

	compileMain := cmds["compile app/main.c"]
	require.NotNil(t, compileMain)
	assert.Equal(t, []string{
		"gcc", "-std=c11", "-Iutil/include", "-Ilib/net/include",
		"-c", "-o", "build/obj/app/main.o", "app/main.c",
	}, compileMain.Descriptor.Argv)

	link := cmds["link build/bin/app"]
	require.NotNil(t, link)
	assert.Equal(t, []string{
		"g++", "-o", "build/bin/app", "build/obj/app/main.o",
		"-Lbuild/lib", "-llib.net", "-pthread",
	}, link.Descriptor.Argv)
	assert.Equal(t, []string{"build/obj/app/main.o", "build/lib/liblib.net.a"}, paths(g, link.Inputs))
	assert.Equal(t, []string{"build/bin/app"}, paths(g, link.Outputs))

	lib, ok := g.FileByPath("build/lib/liblib.net.a")
	require.True(t, ok)
	assert.True(t, lib.Generated)
	netComp, err := g.ComponentByRoot("lib/net")
	require.NoError(t, err)
	assert.Equal(t, netComp.ID, lib.Component)
}

func TestGCC_CyclicLibrariesAreGrouped(t *testing.T) {
	g := domain.NewGraph("/project")
	x := g.AddComponent("x")
	y := g.AddComponent("y")
	app := g.AddComponent("app")
	app.Type = domain.ComponentExecutable
	addFile(g, x, "x/x.c")
	addFile(g, y, "y/y.c")
	addFile(g, app, "app/main.c")
	x.AddPublicDependency(y.ID)
	y.AddPublicDependency(x.ID)
	app.AddPrivateDependency(x.ID)

	require.NoError(t, toolchain.NewGCC().CreateCommands(g, domain.DefaultConfig()))

	link := commandsByLabel(g)["link build/bin/app"]
	require.NotNil(t, link)
	assert.Equal(t, []string{
		"g++", "-o", "build/bin/app", "build/obj/app/main.o", "-Lbuild/lib",
		"-Wl,--start-group", "-lx", "-ly", "-Wl,--end-group",
	}, link.Descriptor.Argv)
	assert.Equal(t, []string{"build/obj/app/main.o", "build/lib/libx.a", "build/lib/liby.a"}, paths(g, link.Inputs))
}

func TestGCC_GroupWithoutLinkableMembersCollapses(t *testing.T) {
	g := domain.NewGraph("/project")
	x := g.AddComponent("x")
	hdr := g.AddComponent("hdr")
	app := g.AddComponent("app")
	app.Type = domain.ComponentExecutable
	addFile(g, x, "x/x.c")
	addFile(g, hdr, "hdr/hdr.h")
	addFile(g, app, "app/main.c")
	x.AddPublicDependency(hdr.ID)
	hdr.AddPublicDependency(x.ID)
	app.AddPrivateDependency(x.ID)

	require.NoError(t, toolchain.NewGCC().CreateCommands(g, domain.DefaultConfig()))

	link := commandsByLabel(g)["link build/bin/app"]
	require.NotNil(t, link)
	assert.Equal(t, []string{"g++", "-o", "build/bin/app", "build/obj/app/main.o", "-Lbuild/lib", "-lx"},
		link.Descriptor.Argv)
}

func TestGCC_ExecutablesAreNeverLinked(t *testing.T) {
	g := domain.NewGraph("/project")
	tool := g.AddComponent("tool")
	tool.Type = domain.ComponentExecutable
	app := g.AddComponent("app")
	app.Type = domain.ComponentExecutable
	addFile(g, tool, "tool/main.c")
	addFile(g, app, "app/main.c")
	app.AddPrivateDependency(tool.ID)

	require.NoError(t, toolchain.NewGCC().CreateCommands(g, domain.DefaultConfig()))

	link := commandsByLabel(g)["link build/bin/app"]
	require.NotNil(t, link)
	assert.Equal(t, []string{"g++", "-o", "build/bin/app", "build/obj/app/main.o", "-Lbuild/lib"},
		link.Descriptor.Argv)
}

func TestGCC_RootComponentTakesProjectName(t *testing.T) {
	g := domain.NewGraph("/work/hello")
	root := g.AddComponent(".")
	root.Type = domain.ComponentExecutable
	addFile(g, root, "main.cpp")

	cfg := domain.DefaultConfig()
	cfg.BuildDir = "out"
	require.NoError(t, toolchain.NewGCC().CreateCommands(g, cfg))

	cmds := commandsByLabel(g)
	require.NotNil(t, cmds["compile main.cpp"])
	assert.Equal(t, []string{"out/obj/main.o"}, paths(g, cmds["compile main.cpp"].Outputs))
	require.NotNil(t, cmds["link out/bin/hello"])
}

func TestGCC_NameCollision(t *testing.T) {
	g := domain.NewGraph("/project")
	addFile(g, g.AddComponent("lib/net"), "lib/net/a.c")
	addFile(g, g.AddComponent("lib.net"), "lib.net/b.c")

	err := toolchain.NewGCC().CreateCommands(g, domain.DefaultConfig())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrToolchainFailed.Error())
}

func TestObjectPath(t *testing.T) {
	g := domain.NewGraph("/project")
	lib := g.AddComponent("lib/net")
	root := g.AddComponent(".")

	tests := []struct {
		comp *domain.Component
		src  string
		want string
	}{
		{lib, "lib/net/net.cpp", "build/obj/lib/net/net.o"},
		{lib, "lib/net/src/detail/io.cc", "build/obj/lib/net/src/detail/io.o"},
		{root, "main.c", "build/obj/main.o"},
		{root, "src/main.c", "build/obj/src/main.o"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, toolchain.ObjectPath("build", tt.comp, g.AddFile(tt.src)))
		})
	}
}
