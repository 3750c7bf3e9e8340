package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/evergreen-ci/dagger/model"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	cycleReportJobName = "cycle-report"
)

type cycleReportJob struct {
	Path     string                `bson:"path" json:"path" yaml:"path"`
	Options  GraphOptions          `bson:"options" json:"options" yaml:"options"`
	ReportID string                `bson:"report_id" json:"report_id" yaml:"report_id"`
	Report   *depgraph.CycleReport `bson:"-" json:"report,omitempty" yaml:"report,omitempty"`
	job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`

	env dagger.Environment
}

func init() {
	registry.AddJobType(cycleReportJobName, func() amboy.Job { return makeCycleReportJob() })
}

func makeCycleReportJob() *cycleReportJob {
	j := &cycleReportJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    cycleReportJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewCycleReportJob builds a job that loads the graph at path, finds
// its cycles and, when the environment has a report bucket, stores the
// report there.
func NewCycleReportJob(env dagger.Environment, path string, opts GraphOptions) amboy.Job {
	j := makeCycleReportJob()
	j.SetID(fmt.Sprintf("%s.%s.%s", cycleReportJobName, path, utility.RandomString()))
	j.env = env
	j.Path = path
	j.Options = opts
	return j
}

// CycleReportResult exposes the outcome of a finished cycle report job.
type CycleReportResult interface {
	amboy.Job
	Source() string
	CycleReport() *depgraph.CycleReport
	StoredReportID() string
}

func (j *cycleReportJob) Source() string                     { return j.Path }
func (j *cycleReportJob) CycleReport() *depgraph.CycleReport { return j.Report }
func (j *cycleReportJob) StoredReportID() string             { return j.ReportID }

func (j *cycleReportJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = dagger.GetEnvironment()
	}

	g, err := LoadGraph(j.Path, j.Options)
	if err != nil {
		j.AddError(err)
		return
	}

	report, err := depgraph.NewCycleReport(g, j.Options.StripPrefix)
	if err != nil {
		j.AddError(errors.Wrapf(err, "problem building cycle report for '%s'", j.Path))
		return
	}
	report.Source = j.Path
	j.Report = report

	bucket, err := j.env.GetBucket()
	if err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"message": "not storing cycle report",
			"job":     j.ID(),
		}))
		return
	}

	stored := model.NewStoredCycleReport(j.Path, report)
	if err = model.NewReportStore(bucket).Save(ctx, stored); err != nil {
		j.AddError(err)
		return
	}
	j.ReportID = stored.ID

	grip.Info(message.Fields{
		"message":   "stored cycle report",
		"job":       j.ID(),
		"source":    j.Path,
		"report_id": stored.ID,
		"cycles":    len(report.Cycles),
	})
}
