package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/segmenter/segmenter"
)

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "segmenter", "testdata", name))
	require.NoError(t, err)
	return path
}

// writeTestConfig points a YAML config at the shared fixture artifacts.
func writeTestConfig(t *testing.T, catalogPath string) string {
	t.Helper()
	cfg := segmenter.DefaultConfig()
	cfg.Artifacts = segmenter.ArtifactConfig{
		ScalerPath:  testdataPath(t, "scaler.json"),
		ModelPath:   testdataPath(t, "kmeans_model.json"),
		SummaryPath: testdataPath(t, "cluster_summary.csv"),
	}
	cfg.CatalogPath = catalogPath
	cfg.Log.Level = "warn"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, segmenter.SaveConfig(path, cfg))
	return path
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredictJSON(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	out, err := execute(t, "--config", cfgPath, "predict", "--json")
	require.NoError(t, err)
	var rm segmenter.RenderModel
	require.NoError(t, json.Unmarshal([]byte(out), &rm))
	assert.Equal(t, segmenter.ClusterID(3), rm.ClusterID)
	assert.Equal(t, "Digital Enthusiasts", rm.Profile.Name)

	out, err = execute(t, "--config", cfgPath, "predict", "--json",
		"--age", "55", "--income", "90000", "--total-spending", "1600",
		"--web-purchases", "6", "--store-purchases", "10", "--web-visits", "3", "--recency", "49")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rm))
	assert.Equal(t, segmenter.ClusterID(1), rm.ClusterID)
}

func TestPredictCard(t *testing.T) {
	out, err := execute(t, "--config", writeTestConfig(t, ""), "predict")
	require.NoError(t, err)
	assert.Contains(t, out, "Digital Enthusiasts")
	assert.Contains(t, out, "Average Segment Characteristics")
	assert.Contains(t, out, "~58,235")
	assert.Contains(t, out, "Your customer belongs to segment: 3")
}

func TestPredictOutOfRange(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	_, err := execute(t, "--config", cfgPath, "predict", "--age", "12")
	assert.ErrorIs(t, err, segmenter.ErrInputRange)

	out, err := execute(t, "--config", cfgPath, "predict", "--age", "12", "--clamp", "--json")
	require.NoError(t, err)
	var rm segmenter.RenderModel
	require.NoError(t, json.Unmarshal([]byte(out), &rm))
	assert.Equal(t, 18.0, rm.Input.Age)
}

func TestBatchWritesResultCSV(t *testing.T) {
	output := filepath.Join(t.TempDir(), "nested", "out.csv")
	out, err := execute(t, "--config", writeTestConfig(t, ""), "batch",
		"--input", testdataPath(t, "customers.csv"), "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 of 3 customers")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(segmenter.BatchHeader(), ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "c-002,"))
	assert.True(t, strings.HasSuffix(lines[2], ",1,VIP Customers"))
}

func TestBatchRequiresInput(t *testing.T) {
	_, err := execute(t, "--config", writeTestConfig(t, ""), "batch")
	assert.Error(t, err)
}

func TestResolveOutputPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	path, err := resolveOutputPath("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^result_\d{14}\.csv$`, filepath.Base(path))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSegmentsAndSummary(t *testing.T) {
	cfgPath := writeTestConfig(t, testdataPath(t, "segments.yaml"))

	out, err := execute(t, "--config", cfgPath, "segments")
	require.NoError(t, err)
	assert.Contains(t, out, "Segment 0: Casual Shoppers")
	assert.Contains(t, out, "Segment 3: Digital Enthusiasts")

	out, err = execute(t, "--config", cfgPath, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total_Spending")
	assert.Contains(t, out, "76,512")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "--config", writeTestConfig(t, ""), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "clusters: 4")
	assert.Contains(t, out, "backend:  centroids")

	catalog := filepath.Join(t.TempDir(), "segments.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
- id: 0
  name: Casual Shoppers
  color: "#FF6B6B"
- id: 1
  name: VIP Customers
  color: "#FFD700"
- id: 3
  name: Digital Enthusiasts
  color: "#4ECDC4"
`), 0o644))
	_, err = execute(t, "--config", writeTestConfig(t, catalog), "validate")
	assert.ErrorIs(t, err, segmenter.ErrConfigMismatch)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := execute(t, "init-config", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := segmenter.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, segmenter.DefaultConfig(), cfg)

	_, err = execute(t, "init-config", "--path", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "init-config", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestRenderTableHighlight(t *testing.T) {
	out := renderTable([]string{"Cluster", "Age"}, [][]string{{"0", "38"}, {"1", "52"}}, 1)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "<")
	assert.NotContains(t, lines[1], "<")
}
