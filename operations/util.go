package operations

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// writeReport renders data as yaml when the file name asks for it and
// as json otherwise.
func writeReport(fn string, data interface{}) error {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		return writeYAML(fn, data)
	default:
		return writeJSON(fn, data)
	}
}

func writeJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	return errors.WithStack(writeString(fn, string(out)))
}

func writeYAML(fn string, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	return errors.WithStack(writeString(fn, strings.TrimRight(string(out), "\n")))
}

func writeString(fn string, data string) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if _, err = f.WriteString(data); err != nil {
		return errors.WithStack(err)
	}

	if _, err = f.WriteString("\n"); err != nil {
		return errors.WithStack(err)
	}

	if err = f.Sync(); err != nil {
		return err
	}

	return nil
}
