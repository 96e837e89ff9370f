package domain

import (
	"maps"
	"slices"
	"strings"
)

// ComponentID identifies a Component within a Graph.
type ComponentID int

// NoComponent is the owner of files that live outside every component root.
const NoComponent ComponentID = -1

// ComponentType distinguishes the output a component is built into.
type ComponentType string

const (
	// ComponentLibrary is archived into a static library.
	ComponentLibrary ComponentType = "library"
	// ComponentExecutable is linked into a binary.
	ComponentExecutable ComponentType = "executable"
)

// ComponentSet is an unordered set of component IDs.
type ComponentSet map[ComponentID]struct{}

// Add inserts id into the set.
func (s ComponentSet) Add(id ComponentID) {
	s[id] = struct{}{}
}

// Remove deletes id from the set.
func (s ComponentSet) Remove(id ComponentID) {
	delete(s, id)
}

// Has reports whether id is in the set.
func (s ComponentSet) Has(id ComponentID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending ID order.
func (s ComponentSet) Sorted() []ComponentID {
	return slices.Sorted(maps.Keys(s))
}

// BuildStatus is the outcome of building a component.
type BuildStatus struct {
	Success bool
	Errors  string
}

// Component is a directory-scoped unit of compilation that maps to one output:
// a static library or an executable.
type Component struct {
	ID   ComponentID
	Root string
	Type ComponentType

	// Files lists the owned files in the order they were mapped.
	Files []FileID

	// PubDeps are dependencies that are part of this component's interface and
	// propagate to its dependents. PrivDeps are needed only to build it.
	PubDeps  ComponentSet
	PrivDeps ComponentSet

	// IncludeDirs are the directories that must be on the include path to reach
	// this component's headers by the names other files use.
	IncludeDirs []string

	Commands []CommandID

	// Status is written by the scheduler's run loop only.
	Status BuildStatus
}

func newComponent(id ComponentID, root string) *Component {
	return &Component{
		ID:       id,
		Root:     root,
		Type:     ComponentLibrary,
		PubDeps:  make(ComponentSet),
		PrivDeps: make(ComponentSet),
		Status:   BuildStatus{Success: true},
	}
}

// Name returns the root with path separators replaced by dots.
func (c *Component) Name() string {
	return strings.ReplaceAll(c.Root, "/", ".")
}

// AddIncludeDir records dir as an include directory of the component.
func (c *Component) AddIncludeDir(dir string) {
	i, found := slices.BinarySearch(c.IncludeDirs, dir)
	if !found {
		c.IncludeDirs = slices.Insert(c.IncludeDirs, i, dir)
	}
}

// AddPublicDependency records dep as a public dependency. A public edge
// supersedes a private one to the same component.
func (c *Component) AddPublicDependency(dep ComponentID) {
	if dep == c.ID {
		return
	}
	c.PubDeps.Add(dep)
	c.PrivDeps.Remove(dep)
}

// AddPrivateDependency records dep as a private dependency unless it is
// already public.
func (c *Component) AddPrivateDependency(dep ComponentID) {
	if dep == c.ID || c.PubDeps.Has(dep) {
		return
	}
	c.PrivDeps.Add(dep)
}

// Fail clears the success flag and appends msg to the accumulated errors.
func (c *Component) Fail(msg string) {
	c.Status.Success = false
	if c.Status.Errors != "" && !strings.HasSuffix(c.Status.Errors, "\n") {
		c.Status.Errors += "\n"
	}
	c.Status.Errors += msg
}
