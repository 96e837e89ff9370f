package domain

import (
	"path"
	"slices"
	"strings"
)

// FileID identifies a File within a Graph.
type FileID int

// File is a single filesystem artifact tracked by the build: a source, a header,
// or a generated object, archive or binary.
type File struct {
	ID   FileID
	Path InternedString

	// Dependencies holds the files this file textually includes, sorted by ID.
	Dependencies []FileID

	// HasInclude marks a file that might be reached by an include name the
	// resolver could not pin to a single file.
	HasInclude bool

	// Component is the owning component, or NoComponent for untracked files.
	Component ComponentID

	// Generated is set for files declared as the output of a build step.
	Generated bool

	// Public is set for files reachable from outside the owning component.
	Public bool
}

// AddDependency records that f includes the file with the given ID.
// It reports whether the edge was new.
func (f *File) AddDependency(id FileID) bool {
	if id == f.ID {
		return false
	}
	i, found := slices.BinarySearch(f.Dependencies, id)
	if found {
		return false
	}
	f.Dependencies = slices.Insert(f.Dependencies, i, id)
	return true
}

// DependsOn reports whether f directly includes the file with the given ID.
func (f *File) DependsOn(id FileID) bool {
	_, found := slices.BinarySearch(f.Dependencies, id)
	return found
}

// Dir returns the directory part of the file path.
func (f *File) Dir() string {
	return path.Dir(f.Path.String())
}

// Ext returns the lower-cased extension of the file, including the dot.
func (f *File) Ext() string {
	return strings.ToLower(path.Ext(f.Path.String()))
}

// Stem returns the base name of the file without its extension.
func (f *File) Stem() string {
	base := path.Base(f.Path.String())
	return strings.TrimSuffix(base, path.Ext(base))
}

// IncludeMap holds the raw include names of each scanned file, as written in source.
type IncludeMap map[FileID][]string
