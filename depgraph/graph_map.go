package depgraph

import (
	"sort"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// GraphMap is an alias for map[string][]string which is a convenient
// format for representating dependency graphs, and is the basis for
// other output formats.
type GraphMap map[string][]string

// NewGraphMap renders the edges of a graph into a GraphMap, removing
// stripPrefix from every node name.
func NewGraphMap(g *Graph[string], stripPrefix string) GraphMap {
	out := GraphMap{}

	for _, node := range g.Nodes() {
		edges := g.Edges(node)
		targets := make([]string, len(edges))
		for idx, e := range edges {
			targets[idx] = strings.TrimPrefix(e, stripPrefix)
		}

		out[strings.TrimPrefix(node, stripPrefix)] = targets
	}

	grip.Debugf("rendered graph output mapping with %d nodes", len(out))
	return out
}

// Graph converts the mapping into a Graph. Maps carry no order, so
// nodes are added in sorted order.
func (report GraphMap) Graph(opts ...Option[string]) (*Graph[string], error) {
	keys := make([]string, 0, len(report))
	for k := range report {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	g := New(opts...)
	for _, k := range keys {
		if err := g.Add(k, report[k]...); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return g, nil
}

func cleanNameForDot(name string) string {
	return strings.Join([]string{`"`, `"`}, strings.Replace(name, `"`, `\"`, -1))
}

// Dot transform a graph mapping.
func (report GraphMap) Dot() (string, error) { return report.DotWithCycles(nil, nil) }

// DotWithCycles renders the mapping as a dot graph, drawing the edges
// that take part in any of the cycles in red. Node names that are equal
// under key are drawn as one node, using the first spelling seen; a nil
// key compares names exactly. Nodes that only appear as dependencies
// are drawn as well.
func (report GraphMap) DotWithCycles(cycles [][]string, key KeyFunc[string]) (string, error) {
	const name = "libdeps"
	if key == nil {
		key = func(n string) string { return n }
	}

	dot := gographviz.NewGraph()
	if err := dot.SetName(name); err != nil {
		return "", errors.WithStack(err)
	}
	if err := dot.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	hot := map[[2]string]bool{}
	for _, c := range cycles {
		for idx := 0; idx < len(c)-1; idx++ {
			hot[[2]string{key(c[idx]), key(c[idx+1])}] = true
		}
	}

	keys := make([]string, 0, len(report))
	for k := range report {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	spelling := map[string]string{}
	nodes := []string{}
	addNode := func(n string) string {
		k := key(n)
		if s, ok := spelling[k]; ok {
			return s
		}
		spelling[k] = n
		nodes = append(nodes, n)
		return n
	}
	for _, node := range keys {
		addNode(node)
	}
	for _, node := range keys {
		for _, edge := range report[node] {
			addNode(edge)
		}
	}

	for _, node := range nodes {
		if err := dot.AddNode(name, cleanNameForDot(node), nil); err != nil {
			return "", errors.Wrapf(err, "problem adding node '%s'", node)
		}
	}

	for _, node := range keys {
		src := cleanNameForDot(spelling[key(node)])
		for _, edge := range report[node] {
			var attrs map[string]string
			if hot[[2]string{key(node), key(edge)}] {
				attrs = map[string]string{"color": "red"}
			}
			if err := dot.AddEdge(src, cleanNameForDot(spelling[key(edge)]), true, attrs); err != nil {
				return "", errors.Wrapf(err, "problem adding edge '%s' -> '%s'", node, edge)
			}
		}
	}

	grip.Infof("rendering dot file with %d nodes and %d edges to graph", len(nodes), len(dot.Edges.Edges))
	return dot.String(), nil
}
