package units

import (
	"path/filepath"
	"strings"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/evergreen-ci/dagger/sln"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// GraphOptions control how a graph is read and trimmed before cycle
// detection.
type GraphOptions struct {
	CaseInsensitive bool     `bson:"case_insensitive" json:"case_insensitive" yaml:"case_insensitive"`
	StripPrefix     string   `bson:"strip_prefix" json:"strip_prefix" yaml:"strip_prefix"`
	Prune           []string `bson:"prune" json:"prune" yaml:"prune"`
}

// GraphOptionsFromConfig copies the graph related settings of the
// application configuration.
func GraphOptionsFromConfig(conf *dagger.Configuration) GraphOptions {
	return GraphOptions{
		CaseInsensitive: conf.CaseInsensitive,
		StripPrefix:     conf.StripPrefix,
		Prune:           conf.Prune,
	}
}

// LoadGraph reads a Visual Studio solution or a graph description file
// and removes the nodes matched by the prune patterns. Solutions always
// compare assembly names without regard to case.
func LoadGraph(fn string, opts GraphOptions) (*depgraph.Graph[string], error) {
	var (
		g   *depgraph.Graph[string]
		err error
	)

	if strings.EqualFold(filepath.Ext(fn), ".sln") {
		g, _, err = sln.Load(fn)
	} else {
		var gopts []depgraph.Option[string]
		if opts.CaseInsensitive {
			gopts = append(gopts, depgraph.WithKeyFunc(depgraph.FoldCase))
		}
		g, err = depgraph.LoadFile(fn, gopts...)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "problem loading graph from '%s'", fn)
	}

	for _, pattern := range opts.Prune {
		if pattern == "" {
			grip.Warning("pruning nodes that match the empty strings is a noop")
			continue
		}

		// patterns match under the graph's identity so that case
		// insensitive graphs prune without regard to case
		key := g.Key(pattern)
		before := g.Len()
		g = g.Prune(func(n string) bool { return strings.Contains(g.Key(n), key) })
		grip.Infof("pruning %d nodes matching '%s'", before-g.Len(), pattern)
	}

	return g, nil
}
