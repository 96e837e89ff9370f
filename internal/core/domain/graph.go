// Package domain contains the core domain models of the build graph: files,
// components, pending commands and the registry that owns them.
package domain

import (
	"iter"
	"path"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Graph is the registry of every File, Component and PendingCommand of one run.
// Entities refer to each other by ID; the Graph owns their lifetime.
type Graph struct {
	root string

	files       []*File
	filesByPath map[InternedString]FileID

	// components holds nil for forgotten components so IDs stay stable.
	components []*Component
	byRoot     map[string]ComponentID

	commands []*PendingCommand
}

// NewGraph creates an empty graph for the project rooted at root.
func NewGraph(root string) *Graph {
	return &Graph{
		root:        root,
		filesByPath: make(map[InternedString]FileID),
		byRoot:      make(map[string]ComponentID),
	}
}

// Root returns the absolute project root.
func (g *Graph) Root() string {
	return g.root
}

// CleanPath normalizes p to the slash-separated, root-relative form used as a file key.
func CleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// AddFile returns the file registered for p, creating it if needed.
func (g *Graph) AddFile(p string) *File {
	key := NewInternedString(CleanPath(p))
	if id, ok := g.filesByPath[key]; ok {
		return g.files[id]
	}
	f := &File{
		ID:        FileID(len(g.files)),
		Path:      key,
		Component: NoComponent,
	}
	g.files = append(g.files, f)
	g.filesByPath[key] = f.ID
	return f
}

// CreateFile registers p as a generated file owned by comp.
func (g *Graph) CreateFile(comp ComponentID, p string) *File {
	f := g.AddFile(p)
	f.Generated = true
	f.Component = comp
	return f
}

// File returns the file with the given ID, or nil.
func (g *Graph) File(id FileID) *File {
	if id < 0 || int(id) >= len(g.files) {
		return nil
	}
	return g.files[id]
}

// FileByPath returns the file registered for p.
func (g *Graph) FileByPath(p string) (*File, bool) {
	id, ok := g.filesByPath[NewInternedString(CleanPath(p))]
	if !ok {
		return nil, false
	}
	return g.files[id], true
}

// Files yields every file in ID order.
func (g *Graph) Files() iter.Seq[*File] {
	return func(yield func(*File) bool) {
		for _, f := range g.files {
			if !yield(f) {
				return
			}
		}
	}
}

// FileCount returns the number of registered files.
func (g *Graph) FileCount() int {
	return len(g.files)
}

// AddComponent returns the component rooted at root, creating it if needed.
func (g *Graph) AddComponent(root string) *Component {
	root = CleanPath(root)
	if id, ok := g.byRoot[root]; ok {
		return g.components[id]
	}
	c := newComponent(ComponentID(len(g.components)), root)
	g.components = append(g.components, c)
	g.byRoot[root] = c.ID
	return c
}

// Component returns the component with the given ID, or nil if it does not exist
// or was forgotten.
func (g *Graph) Component(id ComponentID) *Component {
	if id < 0 || int(id) >= len(g.components) {
		return nil
	}
	return g.components[id]
}

// ComponentName returns the name outputs of c are called by: its root with
// separators replaced by dots, or the base name of the project directory for
// the root component.
func (g *Graph) ComponentName(c *Component) string {
	if c.Root == "." {
		return filepath.Base(g.root)
	}
	return c.Name()
}

// ComponentByRoot looks up a component by its root directory.
func (g *Graph) ComponentByRoot(root string) (*Component, error) {
	id, ok := g.byRoot[CleanPath(root)]
	if !ok {
		return nil, zerr.With(ErrComponentNotFound, "root", root)
	}
	return g.components[id], nil
}

// Components yields every live component in ID order.
func (g *Graph) Components() iter.Seq[*Component] {
	return func(yield func(*Component) bool) {
		for _, c := range g.components {
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// MapFilesToComponents assigns every non-generated file to the component with
// the deepest root that contains it. Files outside every root stay untracked.
func (g *Graph) MapFilesToComponents() {
	for _, c := range g.components {
		if c != nil {
			c.Files = c.Files[:0]
		}
	}
	for _, f := range g.files {
		if f.Generated {
			continue
		}
		f.Component = g.owner(f.Dir())
		if f.Component != NoComponent {
			c := g.components[f.Component]
			c.Files = append(c.Files, f.ID)
		}
	}
}

func (g *Graph) owner(dir string) ComponentID {
	for {
		if id, ok := g.byRoot[dir]; ok {
			return id
		}
		if dir == "." || dir == "/" {
			return NoComponent
		}
		dir = path.Dir(dir)
	}
}

// ForgetEmptyComponents drops every component that owns no files and removes
// the edges that point at it.
func (g *Graph) ForgetEmptyComponents() {
	forgotten := make(ComponentSet)
	for i, c := range g.components {
		if c == nil || len(c.Files) > 0 {
			continue
		}
		forgotten.Add(c.ID)
		delete(g.byRoot, c.Root)
		g.components[i] = nil
	}
	if len(forgotten) == 0 {
		return
	}
	for _, c := range g.components {
		if c == nil {
			continue
		}
		for id := range forgotten {
			c.PubDeps.Remove(id)
			c.PrivDeps.Remove(id)
		}
	}
	for _, f := range g.files {
		if forgotten.Has(f.Component) {
			f.Component = NoComponent
		}
	}
}

// AddCommand registers a new command owned by comp.
func (g *Graph) AddCommand(comp ComponentID, desc Descriptor) *PendingCommand {
	cmd := &PendingCommand{
		ID:         CommandID(len(g.commands)),
		Component:  comp,
		Descriptor: desc,
	}
	g.commands = append(g.commands, cmd)
	if c := g.Component(comp); c != nil {
		c.Commands = append(c.Commands, cmd.ID)
	}
	return cmd
}

// Command returns the command with the given ID, or nil.
func (g *Graph) Command(id CommandID) *PendingCommand {
	if id < 0 || int(id) >= len(g.commands) {
		return nil
	}
	return g.commands[id]
}

// Commands yields every command in ID order.
func (g *Graph) Commands() iter.Seq[*PendingCommand] {
	return func(yield func(*PendingCommand) bool) {
		for _, cmd := range g.commands {
			if !yield(cmd) {
				return
			}
		}
	}
}

// CommandCount returns the number of registered commands.
func (g *Graph) CommandCount() int {
	return len(g.commands)
}

// Failed returns the components whose build did not succeed, in ID order.
func (g *Graph) Failed() []*Component {
	var failed []*Component
	for c := range g.Components() {
		if !c.Status.Success {
			failed = append(failed, c)
		}
	}
	return failed
}
