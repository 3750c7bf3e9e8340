package depgraph

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// index assigns stable gonum IDs to the nodes of g: keys in insertion
// order followed by sinks in the order they are first referenced.
type index[T comparable] struct {
	ids   map[T]int64
	nodes []T
}

func newIndex[T comparable](g *Graph[T]) *index[T] {
	idx := &index[T]{ids: map[T]int64{}}

	for _, node := range g.Nodes() {
		idx.add(g, node)
	}
	for _, node := range g.Nodes() {
		for _, e := range g.Edges(node) {
			idx.add(g, e)
		}
	}

	return idx
}

func (idx *index[T]) add(g *Graph[T], node T) {
	k := g.Key(node)
	if _, ok := idx.ids[k]; ok {
		return
	}
	idx.ids[k] = int64(len(idx.nodes))
	idx.nodes = append(idx.nodes, node)
}

// Directed converts g into a gonum directed graph. Self edges are not
// representable in a simple graph and are dropped.
func Directed[T comparable](g *Graph[T]) (graph.Directed, []T) {
	return directed(g, false)
}

// directed builds the gonum graph of g, pointing edges from
// dependencies to dependents when reverse is set.
func directed[T comparable](g *Graph[T], reverse bool) (*simple.DirectedGraph, []T) {
	idx := newIndex(g)
	dag := simple.NewDirectedGraph()

	for id := range idx.nodes {
		dag.AddNode(simple.Node(int64(id)))
	}

	for _, node := range g.Nodes() {
		from := idx.ids[g.Key(node)]
		for _, e := range g.Edges(node) {
			to := idx.ids[g.Key(e)]
			if from == to {
				continue
			}
			if reverse {
				dag.SetEdge(simple.Edge{F: simple.Node(to), T: simple.Node(from)})
				continue
			}
			dag.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	return dag, idx.nodes
}

// BuildOrder returns the nodes of an acyclic graph so that every node
// comes after all of its dependencies. The order is deterministic, and
// nodes with no dependencies between them keep the order in which they
// appear in the graph.
func BuildOrder[T comparable](g *Graph[T]) ([]T, error) {
	for _, node := range g.Nodes() {
		if g.HasEdge(node, node) {
			return nil, errors.Errorf("'%v' depends on itself", node)
		}
	}

	dag, nodes := directed(g, true)

	sorted, err := topo.SortStabilized(dag, func(ns []graph.Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
	})
	if err != nil {
		return nil, errors.Wrap(err, "graph has no build order")
	}

	out := make([]T, len(sorted))
	for idx, n := range sorted {
		out[idx] = nodes[n.ID()]
	}

	return out, nil
}

// StronglyConnected returns the groups of two or more nodes that can
// all reach each other. Nodes within a group, and the groups
// themselves, follow the order in which nodes appear in the graph.
func StronglyConnected[T comparable](g *Graph[T]) [][]T {
	dag, nodes := Directed(g)

	components := topo.TarjanSCC(dag)
	groups := make([][]int64, 0, len(components))
	for _, c := range components {
		if len(c) < 2 {
			continue
		}

		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	out := make([][]T, len(groups))
	for i, ids := range groups {
		out[i] = make([]T, len(ids))
		for j, id := range ids {
			out[i][j] = nodes[id]
		}
	}

	return out
}
