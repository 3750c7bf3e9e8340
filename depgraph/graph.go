/*
Package depgraph holds the dependency graph model used by dagger, the
cycle detector that runs over it, and the loaders and report formats
built around them.

A Graph maps each node to the ordered list of nodes it depends on.
Keys keep their insertion order so that a given input always produces
the same traversal, and therefore the same cycle report.
*/
package depgraph

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrDuplicateNode is returned by Graph.Add when a node has already
// been added to the graph.
var ErrDuplicateNode = errors.New("node already exists in graph")

// KeyFunc maps a node to the canonical value used to compare it with
// other nodes. Two nodes are the same node when their keys are equal.
type KeyFunc[T comparable] func(T) T

// FoldCase is a KeyFunc for graphs whose node names are compared
// without regard to case, as in Visual Studio assembly names.
func FoldCase(name string) string { return strings.ToLower(name) }

// Option configures a Graph at construction time.
type Option[T comparable] func(*Graph[T])

// WithKeyFunc sets the identity policy of the graph. It must be set
// before any nodes are added.
func WithKeyFunc[T comparable](fn func(T) T) Option[T] {
	return func(g *Graph[T]) {
		if fn != nil {
			g.key = fn
		}
	}
}

// Graph is an adjacency list keyed by node. The detector never
// modifies a graph; Add is only used while building it.
type Graph[T comparable] struct {
	order []T
	edges map[T][]T
	key   KeyFunc[T]
}

// New builds an empty graph.
func New[T comparable](opts ...Option[T]) *Graph[T] {
	g := &Graph[T]{
		edges: make(map[T][]T),
		key:   func(n T) T { return n },
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Add records node with its outgoing edges in the order given. Adding
// the same node twice is an error.
func (g *Graph[T]) Add(node T, edges ...T) error {
	k := g.key(node)
	if _, ok := g.edges[k]; ok {
		return errors.Wrapf(ErrDuplicateNode, "adding '%v'", node)
	}

	out := make([]T, len(edges))
	copy(out, edges)

	g.order = append(g.order, node)
	g.edges[k] = out

	return nil
}

// Key returns the canonical identity of node.
func (g *Graph[T]) Key(node T) T { return g.key(node) }

// Same reports whether a and b identify the same node.
func (g *Graph[T]) Same(a, b T) bool { return g.key(a) == g.key(b) }

// Nodes returns the keys of the graph in insertion order.
func (g *Graph[T]) Nodes() []T {
	if g == nil {
		return nil
	}

	out := make([]T, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns the dependencies of node. Nodes that were never added
// are sinks and have no edges.
func (g *Graph[T]) Edges(node T) []T {
	if g == nil {
		return []T{}
	}

	edges, ok := g.edges[g.key(node)]
	if !ok {
		return []T{}
	}

	return edges
}

// Has reports whether node was added to the graph as a key.
func (g *Graph[T]) Has(node T) bool {
	if g == nil {
		return false
	}

	_, ok := g.edges[g.key(node)]
	return ok
}

// HasEdge reports whether from lists to among its dependencies.
func (g *Graph[T]) HasEdge(from, to T) bool {
	for _, e := range g.Edges(from) {
		if g.Same(e, to) {
			return true
		}
	}

	return false
}

// Len returns the number of keys in the graph.
func (g *Graph[T]) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// NumEdges returns the total number of edges in the graph.
func (g *Graph[T]) NumEdges() int {
	if g == nil {
		return 0
	}

	var count int
	for _, edges := range g.edges {
		count += len(edges)
	}
	return count
}

// Prune returns a copy of the graph without the nodes matched by
// drop. Edges to dropped nodes are removed as well.
func (g *Graph[T]) Prune(drop func(T) bool) *Graph[T] {
	if g == nil {
		return New[T]()
	}

	out := New[T](WithKeyFunc[T](g.key))

	for _, node := range g.order {
		if drop(node) {
			continue
		}

		edges := []T{}
		for _, e := range g.edges[g.key(node)] {
			if drop(e) {
				continue
			}
			edges = append(edges, e)
		}

		// keys are already unique under the same key function
		_ = out.Add(node, edges...)
	}

	return out
}
