package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

func triangle(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.New("tri", []network.Edge{{U: "A", V: "B"}, {U: "A", V: "C"}, {U: "B", V: "C"}})
	require.NoError(t, err)
	return net
}

func TestFromScores_EdgeIndexOrder(t *testing.T) {
	net := triangle(t)
	scores := map[network.Edge]float64{
		{U: "B", V: "C"}: 3,
		{U: "C", V: "A"}: 2, // reversed orientation resolves too
		{U: "A", V: "B"}: 1,
	}

	c, err := FromScores(net, scores)
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.Equal(t, EdgeScore{Edge: network.Edge{U: "A", V: "B"}, Score: 1}, c[0])
	assert.Equal(t, EdgeScore{Edge: network.Edge{U: "A", V: "C"}, Score: 2}, c[1])
	assert.Equal(t, EdgeScore{Edge: network.Edge{U: "B", V: "C"}, Score: 3}, c[2])

	v, ok := c.Lookup(network.Edge{U: "C", V: "B"})
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = c.Lookup(network.Edge{U: "A", V: "Z"})
	assert.False(t, ok)
}

func TestFromScores_MissingEdge(t *testing.T) {
	net := triangle(t)
	_, err := FromScores(net, map[network.Edge]float64{{U: "A", V: "B"}: 1})
	var le *network.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Index)
}

func TestCriticalityPath(t *testing.T) {
	got := CriticalityPath("out", "ieee14", 2)
	assert.Equal(t, filepath.Join("out", "exhaustive_ieee14_2", "edge_global_deltas.csv"), got)
}

func TestWriteReadCriticality(t *testing.T) {
	c := Criticality{
		{Edge: network.Edge{U: "A", V: "B"}, Score: 1.0 / 3.0},
		{Edge: network.Edge{U: "A", V: "C"}, Score: 0},
		{Edge: network.Edge{U: "B", V: "C"}, Score: -0.25},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCriticality(&buf, c))
	assert.True(t, strings.HasPrefix(buf.String(), "A,B,0.3333333333333333\n"))

	back, err := ReadCriticality(&buf, "mem")
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestWriteCriticalityFile(t *testing.T) {
	path := CriticalityPath(t.TempDir(), "tri", 1)
	c := Criticality{{Edge: network.Edge{U: "A", V: "B"}, Score: 2}}
	require.NoError(t, WriteCriticalityFile(path, c))

	back, err := ReadCriticalityFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestReadCriticality_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"too few fields", "A,B,1\nA,C\n", 2},
		{"too many fields", "A,B,1,2\n", 1},
		{"bad number", "A,B,1\nB,C,x\n", 2},
		{"bare quote", "A,B,1\nA,B\"x,1\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCriticality(strings.NewReader(tt.input), "mem")
			require.Error(t, err)
			assert.True(t, errors.Is(err, network.ErrMalformedInput))
			var pe *network.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "mem", pe.Source)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestReadCriticality_Empty(t *testing.T) {
	c, err := ReadCriticality(strings.NewReader(""), "mem")
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestTopEdges(t *testing.T) {
	c := Criticality{
		{Edge: network.Edge{U: "a", V: "b"}, Score: 0.5},
		{Edge: network.Edge{U: "b", V: "c"}, Score: 0.9},
		{Edge: network.Edge{U: "c", V: "d"}, Score: 0.5},
		{Edge: network.Edge{U: "d", V: "e"}, Score: 0.1},
	}

	top := TopEdges(c, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].Edge.U)
	assert.Equal(t, "a", top[1].Edge.U, "ties keep edge order")
	assert.Equal(t, "c", top[2].Edge.U)

	assert.Len(t, TopEdges(c, 10), 4)
	assert.Nil(t, TopEdges(c, 0))
	assert.Equal(t, 0.5, c[0].Score, "input untouched")
}
