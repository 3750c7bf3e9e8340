package operations

import (
	"fmt"
	"strings"

	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/evergreen-ci/dagger/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Commands returns the dagger subcommands for finding dependency
// cycles in solutions and graph files.
func Commands() []cli.Command {
	return []cli.Command{
		solution(),
		cycles(),
		dot(),
		Batch(),
	}
}

func solution() cli.Command {
	return cli.Command{
		Name:      "sln",
		Usage:     "find cyclic dependencies within a Visual Studio solution file",
		ArgsUsage: "[FILE]",
		Flags:     addSeparatorFlag(graphFlags(addPathFlag()...)...),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			fn := c.String(pathFlagName)

			conf, err := loadConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			graph, err := units.LoadGraph(fn, units.GraphOptionsFromConfig(conf))
			if err != nil {
				return errors.WithStack(err)
			}

			grip.Info("=== finding cycles ====")
			found, err := depgraph.FindCycles(graph)
			if err != nil {
				return errors.Wrapf(err, "problem finding cycles in '%s'", fn)
			}

			for _, cycle := range found {
				nodes := cycle.Strings()
				for idx := range nodes {
					nodes[idx] = strings.TrimPrefix(nodes[idx], conf.StripPrefix)
				}
				fmt.Fprintln(c.App.Writer, strings.Join(nodes, c.String(separatorFlagName)))
			}
			fmt.Fprintf(c.App.Writer, "cycles=%d\n", len(found))

			if len(found) > 0 {
				return errors.Errorf("found %d dependency cycles in '%s'", len(found), fn)
			}

			return nil
		},
	}
}

func cycles() cli.Command {
	return cli.Command{
		Name:  "cycles",
		Usage: "write a report of the dependency cycles and strongly connected groups of a graph",
		Flags: addSeparatorFlag(graphFlags(addOutputPath("cycleReport.json", addPathFlag()...)...)...),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			fn := c.String(pathFlagName)

			report, _, err := buildReport(c, fn)
			if err != nil {
				return errors.WithStack(err)
			}

			for _, line := range report.Lines(c.String(separatorFlagName)) {
				fmt.Fprintln(c.App.Writer, line)
			}
			fmt.Fprintf(c.App.Writer, "cycles=%d\n", len(report.Cycles))

			return errors.Wrap(writeReport(c.String(outputFlagName), report),
				"problem writing cycle report")
		},
	}
}

func dot() cli.Command {
	return cli.Command{
		Name:  "dot",
		Usage: "render a graph in graphviz dot format with its cycles highlighted",
		Flags: graphFlags(addOutputPath("libs.dot", addPathFlag()...)...),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			report, graph, err := buildReport(c, c.String(pathFlagName))
			if err != nil {
				return errors.WithStack(err)
			}

			grip.Info("generating dot file")
			out, err := report.Graph.DotWithCycles(report.Cycles, graph.Key)
			if err != nil {
				return errors.Wrap(err, "problem rendering dot file")
			}

			grip.Info("writing dot file to disk")
			return errors.Wrap(writeString(c.String(outputFlagName), out),
				"problem writing dot file")
		},
	}
}

func buildReport(c *cli.Context, fn string) (*depgraph.CycleReport, *depgraph.Graph[string], error) {
	conf, err := loadConfiguration(c)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	grip.Infoln("starting to load graph from:", fn)
	graph, err := units.LoadGraph(fn, units.GraphOptionsFromConfig(conf))
	if err != nil {
		return nil, nil, errors.Wrap(err, "problem loading graph")
	}

	report, err := depgraph.NewCycleReport(graph, conf.StripPrefix)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	report.Source = fn

	grip.Info(message.Fields{
		"message": "found cycles in graph",
		"source":  fn,
		"cycles":  len(report.Cycles),
		"nodes":   len(report.Graph),
	})

	return report, graph, nil
}
