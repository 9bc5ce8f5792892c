package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-contingency/pkg/config"
	"github.com/dd0wney/cluso-contingency/pkg/report"
)

// run executes the CLI inside a fresh working directory so no stray
// .contingency.yaml is picked up.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeTriangle(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tri.txt")
	require.NoError(t, os.WriteFile(path, []byte("# triangle\nA B\nA C\nB C\n"), 0644))
	return path
}

func readScores(t *testing.T, path string) map[string]float64 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fields := strings.Split(line, ",")
		require.Len(t, fields, 3)
		v, err := strconv.ParseFloat(fields[2], 64)
		require.NoError(t, err)
		out[fields[0]+"-"+fields[1]] = v
	}
	return out
}

func TestScreen_WritesCriticalityAndSummary(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)
	outDir := filepath.Join(dir, "out")

	stdout, err := run(t, dir, "screen", input, "-k", "1", "-p", "2", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "NETWORK")
	assert.Contains(t, stdout, "tri")

	scores := readScores(t, report.CriticalityPath(outDir, "tri", 1))
	require.Len(t, scores, 3)
	for edge, v := range scores {
		assert.InDelta(t, 4.0/3.0, v, 1e-9, edge)
	}

	summary, err := report.ReadSummaryFile(filepath.Join(outDir, report.SummaryFileName))
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Processors)
	require.Len(t, summary.Networks, 1)
	require.Len(t, summary.Networks[0].Orders, 1)
	o := summary.Networks[0].Orders[0]
	assert.Equal(t, 3, o.Contingencies)
	assert.Empty(t, o.Error)
	assert.Len(t, o.TopEdges, 3)
}

func TestScreen_NormalizedWithLabels(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)

	_, err := run(t, dir, "screen", input, "--normalize", "--label", "threshold", "--label-value", "0.5")
	require.NoError(t, err)

	scores := readScores(t, report.CriticalityPath(dir, "tri", 1))
	for edge, v := range scores {
		assert.InDelta(t, 4.0/9.0, v, 1e-9, edge)
	}

	labels, err := os.ReadFile(filepath.Join(dir, "exhaustive_tri_1", "edge_labels_threshold_0.5.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(labels), ",1\n"), "equal scores are all critical")
}

func TestScreen_FailedOrderIsReported(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)

	_, err := run(t, dir, "screen", input, "-k", "1,5", "--normalize")
	require.ErrorIs(t, err, errOrdersFailed)

	summary, err := report.ReadSummaryFile(filepath.Join(dir, report.SummaryFileName))
	require.NoError(t, err)
	orders := summary.Networks[0].Orders
	require.Len(t, orders, 2)
	assert.Empty(t, orders[0].Error)
	assert.NotEmpty(t, orders[1].Error)
}

func TestScreen_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)
	cfg := "input: " + input + "\norders: [2]\noutput_dir: " + filepath.Join(dir, "cfgout") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".contingency.yaml"), []byte(cfg), 0644))
	t.Setenv("CONTINGENCY_METRIC", "degree")

	_, err := run(t, dir, "screen")
	require.NoError(t, err)

	summary, err := report.ReadSummaryFile(filepath.Join(dir, "cfgout", report.SummaryFileName))
	require.NoError(t, err)
	assert.Equal(t, "degree", summary.Metric)
	assert.Equal(t, 2, summary.Networks[0].Orders[0].Order)
	assert.Equal(t, 0, summary.Networks[0].Orders[0].Contingencies, "no pair of triangle edges keeps it connected")
}

func TestScreen_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)

	_, err := run(t, dir, "screen")
	assert.ErrorIs(t, err, config.ErrNoInput)

	_, err = run(t, dir, "screen", input, "-p", "0")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = run(t, dir, "screen", input, "--metric", "pagerank")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = run(t, dir, "screen", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestEnumerate(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)

	stdout, err := run(t, dir, "enumerate", input, "-k", "1,2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"tri", "3", "3", "1", "3", "0", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"tri", "3", "3", "2", "0", "3", "3"}, strings.Fields(lines[2]))
}

func TestEnumerate_Graph6(t *testing.T) {
	dir := t.TempDir()
	// "Bw" is the triangle K3.
	path := filepath.Join(dir, "graphs.g6")
	require.NoError(t, os.WriteFile(path, []byte("Bw\nBw\n"), 0644))

	stdout, err := run(t, dir, "enumerate", path, "--format", "graph6")
	require.NoError(t, err)
	assert.Contains(t, stdout, "graphs_0")
	assert.Contains(t, stdout, "graphs_1")
}

func TestLabel(t *testing.T) {
	dir := t.TempDir()
	crit := report.CriticalityPath(dir, "net", 1)
	require.NoError(t, os.MkdirAll(filepath.Dir(crit), 0755))
	require.NoError(t, os.WriteFile(crit, []byte("a,b,0\nb,c,1\nc,d,2\nd,e,3\n"), 0644))

	stdout, err := run(t, dir, "label", "--strategy", "quantile", "--value", "0.5")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join("exhaustive_net_1", report.CriticalityFileName))

	data, err := os.ReadFile(filepath.Join(filepath.Dir(crit), "edge_labels_quantile_0.5.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b,-1\nb,c,0\nc,d,1\nd,e,1\n", string(data))
}

func TestLabel_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "label")
	assert.ErrorIs(t, err, errNoStrategy)

	_, err = run(t, dir, "label", "--strategy", "threshold", "--value", "0.3")
	assert.ErrorContains(t, err, "no criticality files")

	_, err = run(t, dir, "label", "--strategy", "quantile", "--value", "1")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestScreen_Checkpoints(t *testing.T) {
	dir := t.TempDir()
	input := writeTriangle(t, dir)
	ckpt := filepath.Join(dir, "ckpt")

	_, err := run(t, dir, "screen", input, "-k", "1", "--checkpoint-dir", ckpt)
	require.NoError(t, err)
	first := readScores(t, report.CriticalityPath(dir, "tri", 1))

	files, err := filepath.Glob(filepath.Join(ckpt, "*.ckpt"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = run(t, dir, "screen", input, "-k", "1", "--checkpoint-dir", ckpt)
	require.NoError(t, err)
	assert.Equal(t, first, readScores(t, report.CriticalityPath(dir, "tri", 1)))
}
