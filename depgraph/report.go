package depgraph

import (
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// CycleReport collects the cycles of a graph along with the strongly
// connected groups they belong to. Order is only set when the graph
// has no cycles.
type CycleReport struct {
	Source string     `json:"source,omitempty" yaml:"source,omitempty"`
	Cycles [][]string `json:"cycles" yaml:"cycles"`
	Groups [][]string `json:"groups" yaml:"groups"`
	Order  []string   `json:"order,omitempty" yaml:"order,omitempty"`
	Graph  GraphMap   `json:"graph" yaml:"graph"`
}

// NewCycleReport runs the cycle detector over g. Node names in the
// report have stripPrefix removed.
func NewCycleReport(g *Graph[string], stripPrefix string) (*CycleReport, error) {
	cycles, err := FindCycles(g)
	if err != nil {
		return nil, errors.Wrap(err, "problem finding cycles")
	}

	trim := func(in []string) []string {
		out := make([]string, len(in))
		for idx := range in {
			out[idx] = strings.TrimPrefix(in[idx], stripPrefix)
		}
		return out
	}

	report := &CycleReport{
		Cycles: make([][]string, 0, len(cycles)),
		Groups: [][]string{},
		Graph:  NewGraphMap(g, stripPrefix),
	}

	for _, c := range cycles {
		report.Cycles = append(report.Cycles, trim(c))
	}

	for _, c := range StronglyConnected(g) {
		report.Groups = append(report.Groups, trim(c))
	}

	if len(cycles) == 0 {
		order, err := BuildOrder(g)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		report.Order = trim(order)
	}

	grip.Info(message.Fields{
		"message": "built cycle report",
		"nodes":   g.Len(),
		"edges":   g.NumEdges(),
		"cycles":  len(report.Cycles),
		"groups":  len(report.Groups),
	})

	return report, nil
}

// HasCycles reports whether the report found any cycles.
func (r *CycleReport) HasCycles() bool { return len(r.Cycles) > 0 }

// Lines renders every cycle on its own line, with nodes joined by sep.
func (r *CycleReport) Lines(sep string) []string {
	out := make([]string, len(r.Cycles))
	for idx, c := range r.Cycles {
		out[idx] = strings.Join(c, sep)
	}
	return out
}
