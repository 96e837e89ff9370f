// Package toolchain synthesizes compile, archive and link commands for a
// GCC-compatible compiler driver.
package toolchain

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/evoke/internal/engine/ordering"
	"go.trai.ch/zerr"
)

// GCC implements ports.Toolchain for gcc, clang and compatible drivers.
type GCC struct{}

var _ ports.Toolchain = (*GCC)(nil)

// NewGCC creates a new GCC toolchain.
func NewGCC() *GCC {
	return &GCC{}
}

// CreateCommands adds the build commands of every component to g.
func (t *GCC) CreateCommands(g *domain.Graph, cfg *domain.Config) error {
	names := make(map[string]domain.ComponentID)
	for c := range g.Components() {
		name := g.ComponentName(c)
		if other, ok := names[name]; ok {
			err := zerr.With(domain.ErrToolchainFailed, "name", name)
			err = zerr.With(err, "component", c.Root)
			return zerr.With(err, "other", g.Component(other).Root)
		}
		names[name] = c.ID
	}

	b := builder{g: g, cfg: cfg}
	for c := range g.Components() {
		b.component(c)
	}
	return nil
}

type builder struct {
	g   *domain.Graph
	cfg *domain.Config
}

func (b *builder) component(c *domain.Component) {
	flags := b.includeFlags(c)

	var objects []domain.FileID
	for _, id := range c.Files {
		src := b.g.File(id)
		if !b.isSource(src) {
			continue
		}
		objects = append(objects, b.compile(c, src, flags).ID)
	}
	if len(objects) == 0 {
		return
	}

	if c.Type == domain.ComponentExecutable {
		b.link(c, objects)
	} else {
		b.archive(c, objects)
	}
}

func (b *builder) isSource(f *domain.File) bool {
	return slices.Contains(b.cfg.Sources, f.Ext())
}

func (b *builder) isC(f *domain.File) bool {
	return f.Ext() == ".c"
}

// includeFlags returns -I for every include dir of every component whose
// headers c can see, in cluster order.
func (b *builder) includeFlags(c *domain.Component) []string {
	var flags []string
	for _, id := range ordering.Flatten(ordering.TransitivePubDeps(b.g, c.ID)) {
		for _, dir := range b.g.Component(id).IncludeDirs {
			flag := "-I" + dir
			if !slices.Contains(flags, flag) {
				flags = append(flags, flag)
			}
		}
	}
	return flags
}

func (b *builder) compile(c *domain.Component, src *domain.File, includeFlags []string) *domain.File {
	obj := b.g.CreateFile(c.ID, ObjectPath(b.cfg.BuildDir, c, src))

	driver, extra := b.cfg.Toolchain.CXX, b.cfg.Toolchain.CXXFlags
	if b.isC(src) {
		driver, extra = b.cfg.Toolchain.CC, b.cfg.Toolchain.CFlags
	}
	argv := []string{driver}
	argv = append(argv, extra...)
	argv = append(argv, includeFlags...)
	argv = append(argv, "-c", "-o", obj.Path.String(), src.Path.String())

	cmd := b.g.AddCommand(c.ID, b.descriptor("compile "+src.Path.String(), argv))
	for _, id := range b.closure(src) {
		cmd.AddInput(id)
	}
	cmd.AddOutput(obj.ID)
	return obj
}

// closure returns src followed by every file it transitively includes.
func (b *builder) closure(src *domain.File) []domain.FileID {
	deps := []domain.FileID{src.ID}
	for i := 0; i < len(deps); i++ {
		for _, dep := range b.g.File(deps[i]).Dependencies {
			if !slices.Contains(deps, dep) {
				deps = append(deps, dep)
			}
		}
	}
	return deps
}

func (b *builder) archive(c *domain.Component, objects []domain.FileID) {
	lib := b.g.CreateFile(c.ID, LibraryPath(b.cfg.BuildDir, b.g.ComponentName(c)))

	argv := []string{b.cfg.Toolchain.AR, "rcs", lib.Path.String()}
	argv = append(argv, b.paths(objects)...)

	cmd := b.g.AddCommand(c.ID, b.descriptor("archive "+lib.Path.String(), argv))
	for _, id := range objects {
		cmd.AddInput(id)
	}
	cmd.AddOutput(lib.ID)
}

func (b *builder) link(c *domain.Component, objects []domain.FileID) {
	bin := b.g.CreateFile(c.ID, ExecutablePath(b.cfg.BuildDir, b.g.ComponentName(c)))

	argv := []string{b.cfg.Toolchain.CXX, "-o", bin.Path.String()}
	argv = append(argv, b.paths(objects)...)
	argv = append(argv, "-L"+path.Join(b.cfg.BuildDir, domain.LibDirName))

	var libs []domain.FileID
	clusters := ordering.TransitiveAllDeps(b.g, c.ID)
	for _, entry := range ordering.LinkPlan(c.ID, clusters) {
		members := slices.DeleteFunc(slices.Clone(entry.Members), func(id domain.ComponentID) bool {
			return !b.linkable(b.g.Component(id))
		})
		if len(members) == 0 {
			continue
		}

		group := entry.Group && len(members) > 1
		if group {
			argv = append(argv, "-Wl,--start-group")
		}
		for _, id := range members {
			dep := b.g.Component(id)
			name := b.g.ComponentName(dep)
			argv = append(argv, "-l"+name)
			libs = append(libs, b.g.CreateFile(dep.ID, LibraryPath(b.cfg.BuildDir, name)).ID)
		}
		if group {
			argv = append(argv, "-Wl,--end-group")
		}
	}
	argv = append(argv, b.cfg.Toolchain.LDFlags...)

	cmd := b.g.AddCommand(c.ID, b.descriptor("link "+bin.Path.String(), argv))
	for _, id := range objects {
		cmd.AddInput(id)
	}
	for _, id := range libs {
		cmd.AddInput(id)
	}
	cmd.AddOutput(bin.ID)
}

// linkable reports whether c is archived into a library.
func (b *builder) linkable(c *domain.Component) bool {
	if c == nil || c.Type != domain.ComponentLibrary {
		return false
	}
	return slices.ContainsFunc(c.Files, func(id domain.FileID) bool {
		return b.isSource(b.g.File(id))
	})
}

func (b *builder) paths(ids []domain.FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = b.g.File(id).Path.String()
	}
	return out
}

func (b *builder) descriptor(label string, argv []string) domain.Descriptor {
	return domain.Descriptor{
		Label: label,
		Argv:  argv,
		Dir:   b.g.Root(),
		Env:   b.cfg.Env,
	}
}

// ObjectPath returns the object file of src: its path below the component
// root with the extension replaced, under <build>/obj/<root>.
func ObjectPath(buildDir string, c *domain.Component, src *domain.File) string {
	rel := src.Path.String()
	if c.Root != "." {
		rel = strings.TrimPrefix(rel, c.Root+"/")
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return path.Join(buildDir, domain.ObjDirName, c.Root, rel+".o")
}

// LibraryPath returns the static library of the component called name.
func LibraryPath(buildDir, name string) string {
	return path.Join(buildDir, domain.LibDirName, "lib"+name+".a")
}

// ExecutablePath returns the binary of the component called name.
func ExecutablePath(buildDir, name string) string {
	return path.Join(buildDir, domain.BinDirName, name)
}
