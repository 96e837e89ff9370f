package app

import (
	"fmt"
	"io"
	"strings"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/engine/ordering"
)

const none = "-"

// RenderGraph writes one block per component in ID order. Mutually dependent
// libraries in the link order are shown in braces.
func RenderGraph(w io.Writer, g *domain.Graph) error {
	var b strings.Builder
	first := true
	for c := range g.Components() {
		if !first {
			b.WriteString("\n")
		}
		first = false

		files := make([]string, len(c.Files))
		for i, id := range c.Files {
			files[i] = g.File(id).Path.String()
		}

		fmt.Fprintf(&b, "%s (%s, %s)\n", c.Root, g.ComponentName(c), c.Type)
		writeField(&b, "files", files)
		writeField(&b, "public deps", roots(g, c.PubDeps.Sorted()))
		writeField(&b, "private deps", roots(g, c.PrivDeps.Sorted()))
		writeField(&b, "include dirs", c.IncludeDirs)
		writeField(&b, "include order", roots(g, ordering.Flatten(ordering.TransitivePubDeps(g, c.ID))))
		writeField(&b, "link order", linkOrder(g, c))
		writeField(&b, "commands", commands(g, c))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeField(b *strings.Builder, name string, values []string) {
	value := none
	if len(values) > 0 {
		value = strings.Join(values, " ")
	}
	fmt.Fprintf(b, "  %-14s %s\n", name+":", value)
}

func roots(g *domain.Graph, ids []domain.ComponentID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Component(id).Root
	}
	return out
}

func linkOrder(g *domain.Graph, c *domain.Component) []string {
	var out []string
	for _, entry := range ordering.LinkPlan(c.ID, ordering.TransitiveAllDeps(g, c.ID)) {
		members := roots(g, entry.Members)
		if entry.Group {
			out = append(out, "{"+strings.Join(members, " ")+"}")
			continue
		}
		out = append(out, members...)
	}
	return out
}

func commands(g *domain.Graph, c *domain.Component) []string {
	out := make([]string, len(c.Commands))
	for i, id := range c.Commands {
		out[i] = "[" + g.Command(id).Descriptor.Label + "]"
	}
	return out
}
