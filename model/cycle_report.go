package model

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/evergreen-ci/pail"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// StoredCycleReport wraps a cycle report with the metadata needed to
// find it again in blob storage.
type StoredCycleReport struct {
	ID        string                `json:"id" yaml:"id"`
	Source    string                `json:"source" yaml:"source"`
	CreatedAt time.Time             `json:"created_at" yaml:"created_at"`
	Report    *depgraph.CycleReport `json:"report" yaml:"report"`
}

// NewStoredCycleReport gives a report a new random id.
func NewStoredCycleReport(source string, report *depgraph.CycleReport) *StoredCycleReport {
	return &StoredCycleReport{
		ID:        utility.RandomString(),
		Source:    source,
		CreatedAt: time.Now().UTC().Round(time.Millisecond),
		Report:    report,
	}
}

// Key is the name of the report in the bucket.
func (r *StoredCycleReport) Key() string { return r.ID + ".json" }

// ReportStore reads and writes cycle reports in a pail bucket.
type ReportStore struct {
	bucket pail.Bucket
}

// NewReportStore wraps a bucket.
func NewReportStore(b pail.Bucket) *ReportStore { return &ReportStore{bucket: b} }

// Save writes the report to the bucket, replacing any report with the
// same id.
func (s *ReportStore) Save(ctx context.Context, r *StoredCycleReport) error {
	if r == nil || r.Report == nil {
		return errors.New("cannot save an empty report")
	}
	if r.ID == "" {
		return errors.New("cannot save a report without an id")
	}

	data, err := json.MarshalIndent(r, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem marshalling report")
	}

	if err = s.bucket.Put(ctx, r.Key(), bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "problem writing report '%s'", r.ID)
	}

	grip.Debug(message.Fields{
		"message": "saved cycle report",
		"id":      r.ID,
		"source":  r.Source,
		"cycles":  len(r.Report.Cycles),
	})

	return nil
}

// Find reads the report with the given id.
func (s *ReportStore) Find(ctx context.Context, id string) (*StoredCycleReport, error) {
	rc, err := s.bucket.Get(ctx, id+".json")
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding report '%s'", id)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading report '%s'", id)
	}

	out := &StoredCycleReport{}
	if err = json.Unmarshal(data, out); err != nil {
		return nil, errors.Wrapf(err, "problem parsing report '%s'", id)
	}

	return out, nil
}
