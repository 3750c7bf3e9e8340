package depgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Format names a serialization of a dependency graph.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
	FormatText Format = "text"
)

// FormatFromPath chooses a format from the extension of a file name.
func FormatFromPath(fn string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".txt", ".graph":
		return FormatText, nil
	default:
		return "", errors.Errorf("cannot determine graph format of '%s'", fn)
	}
}

// LoadFile reads a graph from disk in the format implied by its
// extension.
func LoadFile(fn string, opts ...Option[string]) (*Graph[string], error) {
	format, err := FormatFromPath(fn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading graph file '%s'", fn)
	}

	grip.Infof("loading %s graph from '%s'", format, fn)
	g, err := Parse(format, fn, data, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "problem parsing graph file '%s'", fn)
	}

	return g, nil
}

// Parse decodes data in the given format. The name is only used to
// annotate diagnostics.
func Parse(format Format, name string, data []byte, opts ...Option[string]) (*Graph[string], error) {
	switch format {
	case FormatJSON:
		return parseJSON(data, opts...)
	case FormatYAML:
		return parseYAML(data, opts...)
	case FormatHCL:
		return parseHCL(name, data, opts...)
	case FormatText:
		return ParseText(string(data), opts...)
	default:
		return nil, errors.Errorf("unsupported graph format '%s'", format)
	}
}

// parseJSON reads an object of node to dependency lists. The decoder
// is walked token by token so that the key order of the document is
// the traversal order of the graph.
func parseJSON(data []byte, opts ...Option[string]) (*Graph[string], error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "problem reading json document")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("json graph must be an object")
	}

	g := New(opts...)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "problem reading json key")
		}

		node, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected json token %v", tok)
		}

		var edges []string
		if err = dec.Decode(&edges); err != nil {
			return nil, errors.Wrapf(err, "problem reading dependencies of '%s'", node)
		}

		if err = g.Add(node, edges...); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if _, err = dec.Token(); err != nil {
		return nil, errors.Wrap(err, "problem reading end of json document")
	}

	return g, nil
}

func parseYAML(data []byte, opts ...Option[string]) (*Graph[string], error) {
	doc := yaml.MapSlice{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "problem reading yaml document")
	}

	g := New(opts...)
	for _, item := range doc {
		node := fmt.Sprint(item.Key)

		edges := []string{}
		switch val := item.Value.(type) {
		case nil:
		case []interface{}:
			for _, e := range val {
				edges = append(edges, fmt.Sprint(e))
			}
		default:
			return nil, errors.Errorf("dependencies of '%s' must be a list", node)
		}

		if err := g.Add(node, edges...); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return g, nil
}

type hclGraph struct {
	Nodes []hclNode `hcl:"node,block"`
}

type hclNode struct {
	Name      string   `hcl:"name,label"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// parseHCL reads blocks of the form:
//
//	node "a" {
//	  depends_on = ["b", "c"]
//	}
func parseHCL(name string, data []byte, opts ...Option[string]) (*Graph[string], error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, "problem parsing hcl")
	}

	var root hclGraph
	if diags = gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, errors.Wrap(diags, "problem decoding hcl")
	}

	g := New(opts...)
	for _, n := range root.Nodes {
		if err := g.Add(n.Name, n.DependsOn...); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return g, nil
}
