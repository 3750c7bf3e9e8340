package depgraph

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrBrokenInvariant reports a bookkeeping fault inside the detector.
// It never describes bad input.
var ErrBrokenInvariant = errors.New("cycle detector invariant violated")

// VisitState is the color of a node during a detection run.
type VisitState int

const (
	// White nodes have not been reached yet.
	White VisitState = iota
	// Gray nodes are on the active exploration path.
	Gray
	// Black nodes and everything reachable from them are explored.
	Black
)

func (s VisitState) String() string {
	switch s {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("VisitState(%d)", int(s))
	}
}

// Cycle is a closed path through the graph: the first and last
// elements are the same node.
type Cycle[T comparable] []T

// Len returns the number of edges in the cycle.
func (c Cycle[T]) Len() int {
	if len(c) == 0 {
		return 0
	}
	return len(c) - 1
}

// Strings renders every node of the cycle with fmt.
func (c Cycle[T]) Strings() []string {
	out := make([]string, len(c))
	for idx := range c {
		out[idx] = fmt.Sprint(c[idx])
	}
	return out
}

// Join renders the cycle as a single string, e.g. "a.b.a".
func (c Cycle[T]) Join(sep string) string { return strings.Join(c.Strings(), sep) }

func (c Cycle[T]) String() string { return c.Join(".") }

type frame[T comparable] struct {
	node   T
	edges  []T
	cursor int
}

func (f *frame[T]) next() (T, bool) {
	if f.cursor >= len(f.edges) {
		var zero T
		return zero, false
	}

	v := f.edges[f.cursor]
	f.cursor++
	return v, true
}

type detector[T comparable] struct {
	graph  *Graph[T]
	colors map[T]VisitState
	stack  []*frame[T]
	cycles []Cycle[T]
}

// FindCycles returns every cycle closed by a back edge in the graph,
// in the order they are found. Roots are tried in insertion order and
// each node's edges are followed in the order they were added, so the
// result is stable for a given graph.
//
// Cycles are not deduplicated: two back edges into the same ancestor
// produce two (possibly overlapping) cycles.
func FindCycles[T comparable](g *Graph[T]) ([]Cycle[T], error) {
	d := &detector[T]{
		graph:  g,
		colors: make(map[T]VisitState, g.Len()),
		cycles: []Cycle[T]{},
	}

	for _, root := range g.Nodes() {
		if d.color(root) != White {
			continue
		}

		if err := d.traverse(root); err != nil {
			return nil, errors.Wrapf(err, "searching from '%v'", root)
		}
	}

	return d.cycles, nil
}

// HasCycles reports whether the graph contains at least one cycle.
func HasCycles[T comparable](g *Graph[T]) (bool, error) {
	cycles, err := FindCycles(g)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return len(cycles) > 0, nil
}

// CountCycles returns the number of cycles FindCycles reports.
func CountCycles[T comparable](g *Graph[T]) (int, error) {
	cycles, err := FindCycles(g)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return len(cycles), nil
}

func (d *detector[T]) color(node T) VisitState { return d.colors[d.graph.Key(node)] }

func (d *detector[T]) paint(node T, s VisitState) { d.colors[d.graph.Key(node)] = s }

func (d *detector[T]) push(node T) {
	d.paint(node, Gray)
	d.stack = append(d.stack, &frame[T]{node: node, edges: d.graph.Edges(node)})
}

func (d *detector[T]) pop() {
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	d.paint(top.node, Black)
}

func (d *detector[T]) traverse(root T) error {
	d.push(root)

	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]

		v, ok := top.next()
		if !ok {
			d.pop()
			continue
		}

		switch d.color(v) {
		case Black:
		case White:
			d.push(v)
		case Gray:
			cycle, err := d.closeCycle(v)
			if err != nil {
				return err
			}
			d.cycles = append(d.cycles, cycle)
		}
	}

	return nil
}

// closeCycle copies the stack from the frame of the gray node v up to
// the top and appends v to close the loop.
func (d *detector[T]) closeCycle(v T) (Cycle[T], error) {
	if len(d.stack) == 0 {
		return nil, errors.Wrap(ErrBrokenInvariant, "building cycle with an empty stack")
	}

	start := -1
	for idx := len(d.stack) - 1; idx >= 0; idx-- {
		if d.graph.Same(d.stack[idx].node, v) {
			start = idx
			break
		}
	}

	if start < 0 {
		return nil, errors.Wrapf(ErrBrokenInvariant, "gray node '%v' is not on the stack", v)
	}

	path := make(Cycle[T], 0, len(d.stack)-start+1)
	for _, f := range d.stack[start:] {
		path = append(path, f.node)
	}

	return append(path, d.stack[start].node), nil
}

// ValidateCycle checks that c is a closed walk along the edges of g.
func ValidateCycle[T comparable](g *Graph[T], c Cycle[T]) error {
	if g == nil {
		return errors.Errorf("cannot validate cycle %v without a graph", c)
	}

	if len(c) < 2 {
		return errors.Errorf("cycle %v is too short", c)
	}

	if !g.Same(c[0], c[len(c)-1]) {
		return errors.Errorf("cycle %v does not end where it starts", c)
	}

	for idx := 0; idx < len(c)-1; idx++ {
		if !g.HasEdge(c[idx], c[idx+1]) {
			return errors.Errorf("cycle %v uses missing edge %v -> %v", c, c[idx], c[idx+1])
		}
	}

	return nil
}
