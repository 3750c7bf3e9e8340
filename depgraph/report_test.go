package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleReport(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"Acyclic": func(t *testing.T) {
			g, err := ParseText("a->b;b->c")
			require.NoError(t, err)

			report, err := NewCycleReport(g, "")
			require.NoError(t, err)
			assert.False(t, report.HasCycles())
			assert.Empty(t, report.Cycles)
			assert.Empty(t, report.Groups)
			assert.Equal(t, []string{"c", "b", "a"}, report.Order)
			assert.Equal(t, GraphMap{"a": {"b"}, "b": {"c"}}, report.Graph)
		},
		"Cycles": func(t *testing.T) {
			g, err := ParseText("a->b,c;b->d,e,f;e->g,h,i;g->a;i->b")
			require.NoError(t, err)

			report, err := NewCycleReport(g, "")
			require.NoError(t, err)
			assert.True(t, report.HasCycles())
			assert.Equal(t, [][]string{{"a", "b", "e", "g", "a"}, {"b", "e", "i", "b"}}, report.Cycles)
			assert.Equal(t, []string{"a.b.e.g.a", "b.e.i.b"}, report.Lines("."))
			assert.Nil(t, report.Order)

			require.Len(t, report.Groups, 1)
			assert.Equal(t, []string{"a", "b", "e", "g", "i"}, report.Groups[0])
		},
		"SelfLoopIsNotAGroup": func(t *testing.T) {
			g, err := ParseText("a->a")
			require.NoError(t, err)

			report, err := NewCycleReport(g, "")
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"a", "a"}}, report.Cycles)
			assert.Empty(t, report.Groups)
		},
		"StripPrefix": func(t *testing.T) {
			g, err := ParseText("lib/a->lib/b;lib/b->lib/a")
			require.NoError(t, err)

			report, err := NewCycleReport(g, "lib/")
			require.NoError(t, err)
			assert.Equal(t, []string{"a.b.a"}, report.Lines("."))
			assert.Contains(t, report.Graph, "a")
		},
		"CaseInsensitiveGroups": func(t *testing.T) {
			g := New(WithKeyFunc(FoldCase))
			require.NoError(t, g.Add("Core", "UTIL"))
			require.NoError(t, g.Add("util", "core"))

			report, err := NewCycleReport(g, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"Core.UTIL.Core"}, report.Lines("."))
			require.Len(t, report.Groups, 1)
			assert.Equal(t, []string{"Core", "util"}, report.Groups[0])
		},
	} {
		t.Run(name, test)
	}
}
