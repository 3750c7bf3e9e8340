package model

import (
	"context"
	"fmt"
	"os"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/pail"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// PailType describes the name of the blob storage backing a pail Bucket
// implementation.
type PailType string

const (
	PailS3    PailType = dagger.OutputS3
	PailLocal PailType = dagger.OutputLocal

	defaultS3Region = "us-east-1"
)

// Create returns a pail Bucket backed by PailType. For local buckets
// the bucket name is a directory.
func (t PailType) Create(ctx context.Context, bucket, prefix, region string) (pail.Bucket, error) {
	var b pail.Bucket
	var err error

	switch t {
	case PailS3:
		if region == "" {
			region = defaultS3Region
		}

		opts := pail.S3Options{
			Name:       bucket,
			Prefix:     prefix,
			Region:     region,
			MaxRetries: utility.ToIntPtr(10),
		}
		b, err = pail.NewS3Bucket(ctx, opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case PailLocal:
		if bucket == "" {
			return nil, errors.New("must specify a directory for local storage")
		}
		if err = os.MkdirAll(bucket, 0755); err != nil {
			return nil, errors.Wrapf(err, "problem creating directory '%s'", bucket)
		}

		opts := pail.LocalOptions{
			Path:   bucket,
			Prefix: prefix,
		}
		b, err = pail.NewLocalBucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	default:
		return nil, errors.Errorf("storage type '%s' is not implemented", t)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// CreateFromConfig builds the bucket described by the output section
// of the configuration.
func CreateFromConfig(ctx context.Context, conf dagger.OutputConfiguration) (pail.Bucket, error) {
	return PailType(conf.Type).Create(ctx, conf.Bucket, conf.Prefix, conf.Region)
}

// GetDownloadURL returns, if applicable, the download URL for the object at
// the given bucket/prefix/key location.
func (t PailType) GetDownloadURL(bucket, prefix, key string) string {
	switch t {
	case PailS3:
		return fmt.Sprintf(
			"https://%s.s3.amazonaws.com/%s",
			bucket,
			prefix+"/"+key,
		)
	default:
		return ""
	}
}
