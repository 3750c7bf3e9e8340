package depgraph

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var textEntryPattern = regexp.MustCompile(`^([\w./:\-]+)\s*->\s*((?:[\w./:\-]+\s*,\s*)*[\w./:\-]+)?$`)

// ParseText builds a graph from the compact notation used in fixtures
// and on the command line:
//
//	a->b,c; b->d; d->a
//
// Entries are separated by semicolons; line breaks and surrounding
// space are ignored. An entry with nothing after the arrow declares a
// node with no dependencies.
func ParseText(text string, opts ...Option[string]) (*Graph[string], error) {
	g := New(opts...)

	text = strings.NewReplacer("\r", "", "\n", "").Replace(text)
	for _, entry := range strings.Split(text, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		m := textEntryPattern.FindStringSubmatch(entry)
		if m == nil {
			return nil, errors.Errorf("malformed graph entry '%s'", entry)
		}

		edges := []string{}
		if m[2] != "" {
			for _, e := range strings.Split(m[2], ",") {
				edges = append(edges, strings.TrimSpace(e))
			}
		}

		if err := g.Add(m[1], edges...); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return g, nil
}

// RenderText renders a string graph in the notation read by ParseText.
func RenderText(g *Graph[string]) string {
	entries := make([]string, 0, g.Len())
	for _, node := range g.Nodes() {
		entries = append(entries, node+"->"+strings.Join(g.Edges(node), ","))
	}
	return strings.Join(entries, ";")
}
