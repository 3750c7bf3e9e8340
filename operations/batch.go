package operations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/dagger/units"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// BatchSummary is one line of the batch command's summary report.
type BatchSummary struct {
	Source   string `json:"source" yaml:"source"`
	Cycles   int    `json:"cycles" yaml:"cycles"`
	ReportID string `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Batch returns the ./dagger batch command, which analyzes several
// graphs at once on a local amboy queue and writes one cycle report per
// graph to the configured report storage.
func Batch() cli.Command {
	return cli.Command{
		Name: "batch",
		Usage: strings.Join([]string{
			"find the cycles of several graphs in parallel",
			"reports are stored in the configured local directory or s3 bucket",
		}, "\n\t"),
		Flags:  mergeFlags(baseFlags(), graphFlags(), addPathsFlag(addOutputPath("")...)),
		Before: requireFilesExist(pathFlagName),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := loadConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			env := dagger.GetEnvironment()
			if err = configure(ctx, env, conf, true); err != nil {
				return errors.WithStack(err)
			}

			summary, err := runBatch(ctx, env, c.StringSlice(pathFlagName))
			for _, s := range summary {
				if s.Error != "" {
					fmt.Fprintf(c.App.Writer, "%s: error=%s\n", s.Source, s.Error)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s: cycles=%d report=%s\n", s.Source, s.Cycles, s.ReportID)
			}

			if fn := c.String(outputFlagName); fn != "" {
				grip.Warning(message.WrapError(writeReport(fn, summary), message.Fields{
					"message": "problem writing batch summary",
					"output":  fn,
				}))
			}

			return errors.WithStack(err)
		},
	}
}

// runBatch submits a cycle report job for every path to the
// environment's queue, reading each graph with the environment's
// configuration, and waits for all of them to finish.
func runBatch(ctx context.Context, env dagger.Environment, paths []string) ([]BatchSummary, error) {
	conf, err := env.GetConf()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	opts := units.GraphOptionsFromConfig(conf)

	q, err := env.GetQueue()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err = q.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "starting queue")
	}

	jobs := make([]units.CycleReportResult, 0, len(paths))
	catcher := grip.NewBasicCatcher()
	for _, path := range paths {
		j := units.NewCycleReportJob(env, path, opts)
		if err = q.Put(ctx, j); err != nil {
			catcher.Wrapf(err, "problem queuing job for '%s'", path)
			continue
		}
		jobs = append(jobs, j.(units.CycleReportResult))
	}

	amboy.WaitInterval(ctx, q, 100*time.Millisecond)
	grip.Info(q.Stats(ctx))

	summary := make([]BatchSummary, 0, len(jobs))
	for _, j := range jobs {
		s := BatchSummary{
			Source:   j.Source(),
			ReportID: j.StoredReportID(),
		}

		if err = j.Error(); err != nil {
			catcher.Wrapf(err, "job for '%s'", j.Source())
			s.Error = err.Error()
		} else if report := j.CycleReport(); report != nil {
			s.Cycles = len(report.Cycles)
		}

		summary = append(summary, s)
	}

	return summary, catcher.Resolve()
}
