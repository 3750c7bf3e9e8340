package operations

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evergreen-ci/dagger"
	"github.com/evergreen-ci/dagger/depgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	yaml "gopkg.in/yaml.v2"
)

func testApp(out *bytes.Buffer) *cli.App {
	app := cli.NewApp()
	app.Name = "dagger"
	app.Writer = out
	app.ErrWriter = out
	app.Commands = Commands()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: configFlag},
	}
	return app
}

func writeFile(t *testing.T, dir, name, content string) string {
	fn := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0755))
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func writeSolution(t *testing.T, dir string, cyclic bool) string {
	project := func(name string, refs ...string) string {
		var b strings.Builder
		b.WriteString("<Project>\r\n<PropertyGroup><AssemblyName>" + name + "</AssemblyName></PropertyGroup>\r\n<ItemGroup>\r\n")
		for _, r := range refs {
			b.WriteString(`<Reference Include="x"><HintPath>..\bin\` + r + `.dll</HintPath></Reference>` + "\r\n")
		}
		b.WriteString("</ItemGroup>\r\n</Project>\r\n")
		return b.String()
	}

	writeFile(t, dir, "Core/Core.csproj", project("Core"))
	if cyclic {
		writeFile(t, dir, "Core/Core.csproj", project("Core", "APP"))
	}
	writeFile(t, dir, "App/App.csproj", project("App", "Core"))

	return writeFile(t, dir, "Company.sln", `Project("{FAE04EC0}") = "Core", "Core\Core.csproj", "{1}"`+"\r\n"+
		"EndProject\r\n"+
		`Project("{FAE04EC0}") = "App", "App\App.csproj", "{2}"`+"\r\n"+
		"EndProject\r\n")
}

func TestSolutionCommand(t *testing.T) {
	t.Run("Cycle", func(t *testing.T) {
		out := &bytes.Buffer{}
		fn := writeSolution(t, t.TempDir(), true)

		err := testApp(out).Run([]string{"dagger", "sln", fn})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 1 dependency cycles")
		assert.Contains(t, out.String(), "Core.APP.Core\n")
		assert.Contains(t, out.String(), "cycles=1\n")
	})
	t.Run("Separator", func(t *testing.T) {
		out := &bytes.Buffer{}
		fn := writeSolution(t, t.TempDir(), true)

		require.Error(t, testApp(out).Run([]string{"dagger", "sln", "--sep", " -> ", fn}))
		assert.Contains(t, out.String(), "Core -> APP -> Core\n")
	})
	t.Run("Acyclic", func(t *testing.T) {
		out := &bytes.Buffer{}
		fn := writeSolution(t, t.TempDir(), false)

		require.NoError(t, testApp(out).Run([]string{"dagger", "sln", "--path", fn}))
		assert.Equal(t, "cycles=0\n", out.String())
	})
	t.Run("MissingArgument", func(t *testing.T) {
		assert.Error(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "sln"}))
	})
	t.Run("MissingFile", func(t *testing.T) {
		err := testApp(&bytes.Buffer{}).Run([]string{"dagger", "sln", filepath.Join(t.TempDir(), "DNE.sln")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})
}

func TestCyclesCommand(t *testing.T) {
	dir := t.TempDir()
	fn := writeFile(t, dir, "deps.graph", "build/a->build/b;build/b->build/a,build/c;build/c->")

	t.Run("JSON", func(t *testing.T) {
		out := &bytes.Buffer{}
		output := filepath.Join(dir, "report.json")

		require.NoError(t, testApp(out).Run([]string{"dagger", "cycles", "--prefix", "build/", "--output", output, fn}))
		assert.Contains(t, out.String(), "a.b.a\ncycles=1\n")

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		report := &depgraph.CycleReport{}
		require.NoError(t, json.Unmarshal(data, report))
		assert.Equal(t, [][]string{{"a", "b", "a"}}, report.Cycles)
		assert.Equal(t, fn, report.Source)
		assert.Len(t, report.Groups, 1)
	})
	t.Run("YAML", func(t *testing.T) {
		output := filepath.Join(dir, "report.yaml")

		require.NoError(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "cycles", "--prune", "build/c", "-o", output, "--path", fn}))

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		report := &depgraph.CycleReport{}
		require.NoError(t, yaml.Unmarshal(data, report))
		assert.Equal(t, [][]string{{"build/a", "build/b", "build/a"}}, report.Cycles)
		assert.NotContains(t, report.Graph, "build/c")
	})
	t.Run("Config", func(t *testing.T) {
		conf := writeFile(t, dir, "dagger.yaml", "strip_prefix: build/\n")
		out := &bytes.Buffer{}

		require.NoError(t, testApp(out).Run([]string{"dagger", "--config", conf, "cycles", "-o", filepath.Join(dir, "conf.json"), fn}))
		assert.Contains(t, out.String(), "a.b.a\n")
	})
	t.Run("InvalidConfig", func(t *testing.T) {
		conf := writeFile(t, dir, "bad.yaml", "workers: -1\n")

		err := testApp(&bytes.Buffer{}).Run([]string{"dagger", "--config", conf, "cycles", "-o", filepath.Join(dir, "bad.json"), fn})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestDotCommand(t *testing.T) {
	dir := t.TempDir()
	fn := writeFile(t, dir, "deps.json", `{"a": ["b"], "b": ["a", "c"], "c": []}`)
	output := filepath.Join(dir, "libs.dot")

	require.NoError(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "dot", "--output", output, fn}))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), "red")

	t.Run("UndeclaredSink", func(t *testing.T) {
		fn := writeFile(t, dir, "sink.json", `{"a": ["b"], "b": ["a", "c"]}`)
		output := filepath.Join(dir, "sink.dot")

		require.NoError(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "dot", "--output", output, fn}))

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "digraph libdeps"), string(data))
		assert.NotContains(t, string(data), "error")
		assert.Contains(t, string(data), `"b"->"c"`)
		assert.Equal(t, 2, strings.Count(string(data), "red"))
	})
	t.Run("IgnoreCase", func(t *testing.T) {
		fn := writeFile(t, dir, "mixed.txt", "Core->App;App->core")
		output := filepath.Join(dir, "mixed.dot")

		require.NoError(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "dot", "--ignore-case", "--output", output, fn}))

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(data), "red"))
		assert.NotContains(t, string(data), `"core"`)
	})
}

func TestLoadConfiguration(t *testing.T) {
	dir := t.TempDir()

	app := testApp(&bytes.Buffer{})
	var conf *dagger.Configuration
	app.Commands = []cli.Command{{
		Name:  "check",
		Flags: mergeFlags(baseFlags(), graphFlags()),
		Action: func(c *cli.Context) error {
			var err error
			conf, err = loadConfiguration(c)
			return err
		},
	}}

	t.Run("Defaults", func(t *testing.T) {
		require.NoError(t, app.Run([]string{"dagger", "check"}))
		assert.Equal(t, 2, conf.NumWorkers)
		assert.Equal(t, dagger.OutputLocal, conf.Output.Type)
		assert.False(t, conf.CaseInsensitive)
	})
	t.Run("FlagsOverrideFile", func(t *testing.T) {
		fn := writeFile(t, dir, "conf.yaml", "case_insensitive: false\nprune: [tests]\nworkers: 4\noutput:\n  bucket: reports\n")
		require.NoError(t, app.Run([]string{"dagger", "--config", fn, "check", "--ignore-case", "--prune", "mocks", "--workers", "8", "--bucket", "other"}))
		assert.True(t, conf.CaseInsensitive)
		assert.Equal(t, []string{"tests", "mocks"}, conf.Prune)
		assert.Equal(t, 8, conf.NumWorkers)
		assert.Equal(t, "other", conf.Output.Bucket)
	})
	t.Run("FileOnly", func(t *testing.T) {
		fn := writeFile(t, dir, "file.yaml", "strip_prefix: src/\nworkers: 4\n")
		require.NoError(t, app.Run([]string{"dagger", "--config", fn, "check"}))
		assert.Equal(t, "src/", conf.StripPrefix)
		assert.Equal(t, 4, conf.NumWorkers)
	})
	t.Run("InvalidStorage", func(t *testing.T) {
		err := app.Run([]string{"dagger", "check", "--store", "gcs"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestRunBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	cyclic := writeFile(t, dir, "cyclic.yaml", "a: [b]\nb: [a]\n")
	acyclic := writeFile(t, dir, "acyclic.hcl", "node \"a\" {\n  depends_on = [\"b\"]\n}\nnode \"b\" {}\n")
	broken := writeFile(t, dir, "broken.graph", "a=>b")

	conf := &dagger.Configuration{
		NumWorkers: 2,
		Output: dagger.OutputConfiguration{
			Type:   dagger.OutputLocal,
			Bucket: filepath.Join(dir, "reports"),
		},
	}
	env := dagger.NewEnvironment("test")

	_, err := runBatch(ctx, env, []string{cyclic})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is not set")

	require.NoError(t, configure(ctx, env, conf, true))

	summary, err := runBatch(ctx, env, []string{cyclic, acyclic, broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.graph")
	require.Len(t, summary, 3)

	byPath := map[string]BatchSummary{}
	for _, s := range summary {
		byPath[s.Source] = s
	}

	assert.Equal(t, 1, byPath[cyclic].Cycles)
	assert.NotEmpty(t, byPath[cyclic].ReportID)
	assert.Zero(t, byPath[acyclic].Cycles)
	assert.NotEmpty(t, byPath[acyclic].ReportID)
	assert.NotEmpty(t, byPath[broken].Error)

	_, err = os.Stat(filepath.Join(dir, "reports", dagger.ReportPrefix, byPath[cyclic].ReportID+".json"))
	assert.NoError(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	fn := writeFile(t, dir, "deps.graph", "a->b;b->a")
	output := filepath.Join(dir, "summary.json")
	out := &bytes.Buffer{}

	require.NoError(t, testApp(out).Run([]string{"dagger", "batch", "--bucket", filepath.Join(dir, "reports"), "--path", fn, "-o", output}))
	assert.Contains(t, out.String(), fn+": cycles=1 report=")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	summary := []BatchSummary{}
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary[0].Cycles)

	assert.Error(t, testApp(&bytes.Buffer{}).Run([]string{"dagger", "batch"}))
}
