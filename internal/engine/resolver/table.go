// Package resolver turns raw include names into file and component dependency edges.
package resolver

import (
	"slices"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
)

// IncludeTable maps every include name a tracked file can be reached by to its
// candidates. A name with more than one candidate is a collision.
type IncludeTable struct {
	names map[string][]domain.FileID
}

// CreateIncludeLookupTable registers every trailing path suffix of every tracked
// file as a candidate include name: lib/a/foo.h is reachable as foo.h, a/foo.h
// and lib/a/foo.h.
func CreateIncludeLookupTable(g *domain.Graph) *IncludeTable {
	t := &IncludeTable{names: make(map[string][]domain.FileID)}
	for f := range g.Files() {
		if f.Generated || f.Component == domain.NoComponent {
			continue
		}
		t.register(f)
	}
	return t
}

func (t *IncludeTable) register(f *domain.File) {
	p := f.Path.String()
	for {
		t.names[p] = append(t.names[p], f.ID)
		i := strings.IndexByte(p, '/')
		if i < 0 {
			return
		}
		p = p[i+1:]
	}
}

// Lookup returns the single file name resolves to. When name is a collision,
// ok is false and candidates lists every match in ID order. Unknown names
// return neither.
func (t *IncludeTable) Lookup(name string) (id domain.FileID, candidates []domain.FileID, ok bool) {
	ids := t.names[name]
	switch len(ids) {
	case 0:
		return 0, nil, false
	case 1:
		return ids[0], nil, true
	default:
		return 0, slices.Clone(ids), false
	}
}

// Collisions returns every include name with more than one candidate, sorted.
func (t *IncludeTable) Collisions() []string {
	var out []string
	for name, ids := range t.names {
		if len(ids) > 1 {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
