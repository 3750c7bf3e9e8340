/*
Package sln builds project dependency graphs from Visual Studio
solution files.

A solution lists its projects; each project names the assembly it
produces and references other assemblies, either through a hint path
to a compiled dll or through a project reference. The resulting graph
is keyed by assembly name and compares names without regard to case.
*/
package sln

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var (
	projectPattern      = regexp.MustCompile(`(?i)[a-zA-Z.\\\-0-9_]+\.csproj`)
	assemblyNamePattern = regexp.MustCompile(`(?is)<assemblyname>\s*(.+?)\s*</assemblyname>`)
	referencePattern    = regexp.MustCompile(`(?is)<hintpath>(.*?)</hintpath>|<projectreference[^>]*?include="([^"]+)"\s*/>|projectreference.+?<name>(.+?)</name>`)
	dllPathPattern      = regexp.MustCompile(`(?i)^.*[\\/]`)
	dllExtPattern       = regexp.MustCompile(`(?i)\.(dll|csproj)$`)
)

// Project is the part of a project file that matters for the
// dependency graph.
type Project struct {
	Path         string   `json:"path" yaml:"path"`
	AssemblyName string   `json:"assembly" yaml:"assembly"`
	References   []string `json:"references" yaml:"references"`
}

// ParseSolution returns the project files named in the solution, in
// the order they appear.
func ParseSolution(content string) []string {
	return projectPattern.FindAllString(singleLine(content), -1)
}

// ParseProject extracts the assembly name and the referenced
// assemblies of a project file. References are reduced to bare
// assembly names and returned once each, in order of appearance.
func ParseProject(content string) (*Project, error) {
	content = singleLine(content)

	m := assemblyNamePattern.FindStringSubmatch(content)
	if m == nil {
		return nil, errors.New("fail to parse assembly name")
	}

	proj := &Project{
		AssemblyName: m[1],
		References:   []string{},
	}

	seen := map[string]bool{}
	for _, match := range referencePattern.FindAllStringSubmatch(content, -1) {
		var ref string
		for _, group := range match[1:] {
			if group != "" {
				ref = group
				break
			}
		}

		name := bareName(ref)
		if name == "" || seen[depgraph.FoldCase(name)] {
			continue
		}
		seen[depgraph.FoldCase(name)] = true
		proj.References = append(proj.References, name)
	}

	return proj, nil
}

// bareName strips the directory and extension from a referenced dll or
// project path.
func bareName(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = dllPathPattern.ReplaceAllString(ref, "")
	return dllExtPattern.ReplaceAllString(ref, "")
}

func singleLine(text string) string { return strings.Replace(text, "\r\n", "", -1) }

// ResolveProjectPath interprets a project path from a solution file,
// which uses Windows separators, relative to the solution's directory.
func ResolveProjectPath(solutionDir, project string) string {
	project = filepath.FromSlash(strings.Replace(project, `\`, "/", -1))
	if filepath.IsAbs(project) {
		return project
	}
	return filepath.Join(solutionDir, project)
}

// Load reads a solution and all of its projects and builds the
// dependency graph between their assemblies.
func Load(fn string) (*depgraph.Graph[string], []*Project, error) {
	content, err := readFile(fn)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	projects := ParseSolution(content)
	if len(projects) == 0 {
		return nil, nil, errors.Errorf("zero projects found in '%s'", fn)
	}
	grip.Infof("sln contains %d projects", len(projects))

	dir := filepath.Dir(fn)
	graph := depgraph.New(depgraph.WithKeyFunc(depgraph.FoldCase))
	out := make([]*Project, 0, len(projects))

	for _, name := range projects {
		path := ResolveProjectPath(dir, name)
		grip.Infof("> process %s", name)

		content, err = readFile(path)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}

		var proj *Project
		proj, err = ParseProject(content)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "problem parsing project '%s'", path)
		}
		proj.Path = path

		grip.Info(message.Fields{
			"assembly": proj.AssemblyName,
			"edges":    strings.Join(proj.References, ";"),
			"count":    len(proj.References),
		})

		if err = graph.Add(proj.AssemblyName, proj.References...); err != nil {
			return nil, nil, errors.Wrapf(err, "problem adding project '%s'", path)
		}
		out = append(out, proj)
	}

	return graph, out, nil
}

func readFile(fn string) (string, error) {
	data, err := os.ReadFile(fn)
	if os.IsNotExist(err) {
		return "", errors.Errorf("file not exists. fail to read '%s'", fn)
	} else if err != nil {
		return "", errors.Wrapf(err, "problem reading '%s'", fn)
	}

	return string(data), nil
}
