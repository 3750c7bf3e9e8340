package dagger

import (
	"os"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Configuration defines the options shared by the dagger commands. It
// is read from a yaml file; command line flags take precedence.
type Configuration struct {
	CaseInsensitive bool                `yaml:"case_insensitive"`
	StripPrefix     string              `yaml:"strip_prefix"`
	Prune           []string            `yaml:"prune"`
	NumWorkers      int                 `yaml:"workers"`
	Output          OutputConfiguration `yaml:"output"`
}

// OutputConfiguration describes where batch reports are stored.
type OutputConfiguration struct {
	Type   string `yaml:"type"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

const (
	OutputLocal = "local"
	OutputS3    = "s3"
)

// Validate checks the configuration and fills in defaults.
func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.NumWorkers == 0 {
		c.NumWorkers = 2
	}
	catcher.NewWhen(c.NumWorkers < 0, "must specify a valid number of amboy workers")

	for _, p := range c.Prune {
		catcher.NewWhen(p == "", "cannot prune nodes matching the empty string")
	}

	catcher.Add(c.Output.Validate())

	return catcher.Resolve()
}

// Validate checks the output configuration and fills in defaults.
func (c *OutputConfiguration) Validate() error {
	if c.Type == "" {
		c.Type = OutputLocal
	}
	if c.Prefix == "" {
		c.Prefix = ReportPrefix
	}

	catcher := grip.NewBasicCatcher()
	switch c.Type {
	case OutputLocal:
		if c.Bucket == "" {
			c.Bucket = "."
		}
	case OutputS3:
		catcher.NewWhen(c.Bucket == "", "must specify a bucket name for s3 output")
		if c.Region == "" {
			c.Region = "us-east-1"
		}
	default:
		catcher.Errorf("'%s' is not a supported output type", c.Type)
	}

	return catcher.Resolve()
}

// LoadConfiguration reads and validates a configuration file.
func LoadConfiguration(fn string) (*Configuration, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading configuration file '%s'", fn)
	}

	conf := &Configuration{}
	if err = yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, errors.Wrapf(err, "problem parsing configuration file '%s'", fn)
	}

	if err = conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return conf, nil
}
