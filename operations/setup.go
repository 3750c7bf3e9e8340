package operations

import (
	"context"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/dagger/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// loadConfiguration reads the file named by the global --config flag,
// if any, and applies the command's flags on top of it.
func loadConfiguration(c *cli.Context) (*dagger.Configuration, error) {
	conf := &dagger.Configuration{}

	if fn := c.GlobalString(configFlag); fn != "" {
		var err error
		conf, err = dagger.LoadConfiguration(fn)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if c.IsSet(ignoreCaseFlagName) {
		conf.CaseInsensitive = c.Bool(ignoreCaseFlagName)
	}
	if c.IsSet(prefixFlagName) {
		conf.StripPrefix = c.String(prefixFlagName)
	}
	if c.IsSet(pruneFlagName) {
		conf.Prune = append(conf.Prune, c.StringSlice(pruneFlagName)...)
	}
	if c.IsSet(numWorkersFlag) {
		conf.NumWorkers = c.Int(numWorkersFlag)
	}
	if c.IsSet(storeTypeFlag) {
		conf.Output.Type = c.String(storeTypeFlag)
	}
	if bucket := c.String(bucketNameFlag); bucket != "" {
		conf.Output.Bucket = bucket
	}
	if c.IsSet(regionFlag) {
		conf.Output.Region = c.String(regionFlag)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return conf, nil
}

// configure sets up the environment's queue and, when withStorage is
// set, the bucket that reports are written to.
func configure(ctx context.Context, env dagger.Environment, conf *dagger.Configuration, withStorage bool) error {
	if err := env.Configure(conf); err != nil {
		return errors.Wrap(err, "problem setting up configuration")
	}

	if !withStorage {
		return nil
	}

	bucket, err := model.CreateFromConfig(ctx, conf.Output)
	if err != nil {
		return errors.Wrap(err, "problem setting up report storage")
	}

	if err = env.SetBucket(bucket); err != nil {
		return errors.WithStack(err)
	}

	grip.Info(message.Fields{
		"message": "configured report storage",
		"type":    conf.Output.Type,
		"bucket":  conf.Output.Bucket,
		"prefix":  conf.Output.Prefix,
	})

	return nil
}
