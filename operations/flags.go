package operations

import (
	"strings"

	"github.com/evergreen-ci/dagger"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag     = "config"
	pathFlagName   = "path"
	outputFlagName = "output"

	prefixFlagName     = "prefix"
	pruneFlagName      = "prune"
	ignoreCaseFlagName = "ignore-case"
	separatorFlagName  = "sep"

	numWorkersFlag = "workers"
	bucketNameFlag = "bucket"
	storeTypeFlag  = "store"
	regionFlag     = "region"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func addPathFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
		Usage: "source path for the dependency graph (.sln, .json, .yaml, .hcl, .txt or .graph)",
	})
}

func addPathsFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringSliceFlag{
		Name:  joinFlagNames(pathFlagName, "f"),
		Usage: "source paths for dependency graphs, may be specified more than once",
	})
}

func addOutputPath(value string, flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "path to the output file",
		Value: value,
	})
}

func addSeparatorFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  separatorFlagName,
		Usage: "separator placed between the nodes of a printed cycle",
		Value: dagger.CycleSeparator,
	})
}

func graphFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  prefixFlagName,
			Usage: "specify a prefix to remove from node names in reports",
		},
		cli.StringSliceFlag{
			Name:  pruneFlagName,
			Usage: "drop nodes containing this string, may be specified more than once",
		},
		cli.BoolFlag{
			Name:  ignoreCaseFlagName,
			Usage: "compare node names without regard to case",
		})
}

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  numWorkersFlag,
			Usage: "specify the number of worker jobs this process will have",
			Value: 2,
		},
		cli.StringFlag{
			Name:  storeTypeFlag,
			Usage: "specify the kind of report storage: 'local' or 's3'",
		},
		cli.StringFlag{
			Name:   bucketNameFlag,
			Usage:  "specify a directory or s3 bucket name for storing reports",
			EnvVar: "DAGGER_BUCKET_NAME",
		},
		cli.StringFlag{
			Name:  regionFlag,
			Usage: "specify the region of the s3 bucket",
		})
}

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}
