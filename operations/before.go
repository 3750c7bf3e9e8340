package operations

import (
	"os"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// this file contains validator functions passed to commands to check
// the contents of flags before the action runs.

func requireStringFlag(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if c.String(name) == "" {
			return errors.Errorf("flag '--%s' was not specified", name)
		}
		return nil
	}
}

func requireFileExists(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		path := c.String(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return errors.Errorf("file '%s' does not exist", path)
		}

		return nil
	}
}

func requireFilesExist(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		paths := c.StringSlice(name)
		if len(paths) == 0 {
			return errors.Errorf("flag '--%s' was not specified", name)
		}

		catcher := grip.NewBasicCatcher()
		for _, path := range paths {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				catcher.Errorf("file '%s' does not exist", path)
			}
		}

		return catcher.Resolve()
	}
}

// mergeBeforeFuncs runs the validators in order and stops at the first
// failure, since later checks usually depend on earlier ones.
func mergeBeforeFuncs(ops ...cli.BeforeFunc) cli.BeforeFunc {
	return func(c *cli.Context) error {
		for _, op := range ops {
			if err := op(c); err != nil {
				return err
			}
		}

		return nil
	}
}
