// Package ordering computes dependency clusters of components with Tarjan's
// strongly connected components algorithm.
package ordering

import (
	"slices"

	"go.trai.ch/evoke/internal/core/domain"
)

// Mode selects which component edges a traversal follows.
type Mode int

const (
	// PublicClosure follows PubDeps from every component and PrivDeps only from
	// the origin. It yields the components whose headers the origin can see.
	PublicClosure Mode = iota
	// AllDeps follows PubDeps and PrivDeps from every component. It yields the
	// components the origin must be linked against.
	AllDeps
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case PublicClosure:
		return "public"
	case AllDeps:
		return "all"
	default:
		return "unknown"
	}
}

// Neighbors returns the edges of c followed in this mode, in ID order.
func (m Mode) Neighbors(c *domain.Component, origin domain.ComponentID) []domain.ComponentID {
	out := c.PubDeps.Sorted()
	if m == AllDeps || c.ID == origin {
		for _, id := range c.PrivDeps.Sorted() {
			if !c.PubDeps.Has(id) {
				out = append(out, id)
			}
		}
		slices.Sort(out)
	}
	return out
}

type frame struct {
	id        domain.ComponentID
	neighbors []domain.ComponentID
	next      int
}

type visit struct {
	index   int
	lowlink int
	onStack bool
}

// Clusters returns the strongly connected components reachable from origin,
// origin included. A cluster is emitted only after every cluster it depends on,
// so for A -> B -> C the result is [C] [B] [A]. Members of a cluster are sorted
// by ID and neighbors are visited in ID order, so the result is deterministic.
//
// The traversal uses an explicit work stack and never fails.
func Clusters(g *domain.Graph, origin domain.ComponentID, mode Mode) [][]domain.ComponentID {
	if g.Component(origin) == nil {
		return nil
	}

	var (
		clusters [][]domain.ComponentID
		visited  = make(map[domain.ComponentID]*visit)
		stack    []domain.ComponentID
		work     []frame
		counter  int
	)

	push := func(id domain.ComponentID) {
		visited[id] = &visit{index: counter, lowlink: counter, onStack: true}
		counter++
		stack = append(stack, id)
		work = append(work, frame{id: id, neighbors: mode.Neighbors(g.Component(id), origin)})
	}

	push(origin)
	for len(work) > 0 {
		top := &work[len(work)-1]
		id := top.id
		v := visited[id]

		if top.next < len(top.neighbors) {
			w := top.neighbors[top.next]
			top.next++
			if g.Component(w) == nil {
				continue
			}
			if wv, seen := visited[w]; !seen {
				push(w)
			} else if wv.onStack {
				v.lowlink = min(v.lowlink, wv.index)
			}
			continue
		}

		work = work[:len(work)-1]
		if v.lowlink == v.index {
			var cluster []domain.ComponentID
			for {
				n := len(stack) - 1
				member := stack[n]
				stack = stack[:n]
				visited[member].onStack = false
				cluster = append(cluster, member)
				if member == id {
					break
				}
			}
			slices.Sort(cluster)
			clusters = append(clusters, cluster)
		}
		if len(work) > 0 {
			parent := visited[work[len(work)-1].id]
			parent.lowlink = min(parent.lowlink, v.lowlink)
		}
	}
	return clusters
}

// TransitivePubDeps returns the clusters of the origin's include closure.
func TransitivePubDeps(g *domain.Graph, origin domain.ComponentID) [][]domain.ComponentID {
	return Clusters(g, origin, PublicClosure)
}

// TransitiveAllDeps returns the clusters of the origin's link closure.
func TransitiveAllDeps(g *domain.Graph, origin domain.ComponentID) [][]domain.ComponentID {
	return Clusters(g, origin, AllDeps)
}

// LinkOrder returns clusters reversed: every cluster precedes the clusters it
// depends on, which is the order a single pass linker consumes libraries in.
// Dependents come first on purpose: for A -> B -> C, A links as -lB -lC.
func LinkOrder(clusters [][]domain.ComponentID) [][]domain.ComponentID {
	out := slices.Clone(clusters)
	slices.Reverse(out)
	return out
}

// Flatten concatenates the members of every cluster.
func Flatten(clusters [][]domain.ComponentID) []domain.ComponentID {
	var out []domain.ComponentID
	for _, c := range clusters {
		out = append(out, c...)
	}
	return out
}
