package segmenter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Artifact names used in load errors.
const (
	ArtifactScaler  = "scaler"
	ArtifactModel   = "model"
	ArtifactSummary = "cluster summary"
	ArtifactCatalog = "segment catalog"
)

// LoadScaler reads a StandardScaler export: {"feature_names": [...], "mean": [...], "scale": [...]}.
func LoadScaler(path string) (ScalerParams, error) {
	var sc ScalerParams
	if err := readJSONFile(path, &sc); err != nil {
		return ScalerParams{}, artifactError(ArtifactScaler, path, err)
	}
	if err := checkScaler(sc); err != nil {
		return ScalerParams{}, artifactError(ArtifactScaler, path, err)
	}
	return sc, nil
}

func checkScaler(sc ScalerParams) error {
	if sc.Dims() != FeatureCount {
		return fmt.Errorf("expected %d features, got %d", FeatureCount, sc.Dims())
	}
	if len(sc.FeatureNames) > 0 && !slices.Equal(sc.FeatureNames, FeatureNames) {
		return fmt.Errorf("feature order %v does not match %v", sc.FeatureNames, FeatureNames)
	}
	return sc.Check()
}

type modelFile struct {
	ClusterCenters [][]float64 `json:"cluster_centers"`
	NFeaturesIn    int         `json:"n_features_in,omitempty"`
}

// LoadModel reads a KMeans export: {"cluster_centers": [[...], ...], "n_features_in": 7}.
func LoadModel(path string) (ClusterModel, error) {
	var mf modelFile
	if err := readJSONFile(path, &mf); err != nil {
		return ClusterModel{}, artifactError(ArtifactModel, path, err)
	}
	m := ClusterModel{Centroids: mf.ClusterCenters}
	if err := m.Check(); err != nil {
		return ClusterModel{}, artifactError(ArtifactModel, path, err)
	}
	if mf.NFeaturesIn != 0 && mf.NFeaturesIn != m.Dims() {
		return ClusterModel{}, artifactError(ArtifactModel, path,
			fmt.Errorf("n_features_in is %d but centroids have %d dimensions", mf.NFeaturesIn, m.Dims()))
	}
	if m.Dims() != FeatureCount {
		return ClusterModel{}, artifactError(ArtifactModel, path,
			fmt.Errorf("expected %d dimensions, got %d", FeatureCount, m.Dims()))
	}
	return m, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ClusterSummaryRow holds the mean of each feature over one cluster's training members.
type ClusterSummaryRow struct {
	Cluster ClusterID     `json:"cluster"`
	Means   FeatureVector `json:"means"`
}

// SummaryTable is the per-cluster statistics table, kept in file order.
type SummaryTable struct {
	rows  []ClusterSummaryRow
	index map[ClusterID]int
}

// NewSummaryTable indexes rows by cluster id. Duplicate ids are an error.
func NewSummaryTable(rows []ClusterSummaryRow) (*SummaryTable, error) {
	t := &SummaryTable{
		rows:  make([]ClusterSummaryRow, len(rows)),
		index: make(map[ClusterID]int, len(rows)),
	}
	copy(t.rows, rows)
	for i, row := range t.rows {
		if _, dup := t.index[row.Cluster]; dup {
			return nil, fmt.Errorf("duplicate cluster %d", row.Cluster)
		}
		t.index[row.Cluster] = i
	}
	return t, nil
}

// Row returns the statistics for id.
func (t *SummaryTable) Row(id ClusterID) (ClusterSummaryRow, bool) {
	if t == nil {
		return ClusterSummaryRow{}, false
	}
	i, ok := t.index[id]
	if !ok {
		return ClusterSummaryRow{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of all rows in file order.
func (t *SummaryTable) Rows() []ClusterSummaryRow {
	if t == nil {
		return nil
	}
	return slices.Clone(t.rows)
}

// IDs returns the cluster ids present, sorted.
func (t *SummaryTable) IDs() []ClusterID {
	if t == nil {
		return nil
	}
	ids := make([]ClusterID, 0, len(t.rows))
	for _, row := range t.rows {
		ids = append(ids, row.Cluster)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of rows.
func (t *SummaryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// LoadSummary reads the cluster summary CSV.
func LoadSummary(path string) (*SummaryTable, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, artifactError(ArtifactSummary, path, err)
	}
	defer f.Close()
	table, err := ParseSummary(f)
	if err != nil {
		return nil, artifactError(ArtifactSummary, path, err)
	}
	return table, nil
}

// ParseSummary reads a summary table with a Cluster column and one column per feature.
func ParseSummary(r io.Reader) (*SummaryTable, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	clusterCol := findColumn(header, clusterColumnCandidates)
	if clusterCol < 0 {
		return nil, fmt.Errorf("missing columns: Cluster")
	}
	cols, err := featureColumns(header)
	if err != nil {
		return nil, err
	}
	rows := make([]ClusterSummaryRow, 0, len(records))
	for _, raw := range records {
		line, rec := raw.Line, raw.Fields
		if isBlankRow(rec) {
			continue
		}
		if clusterCol >= len(rec) {
			return nil, fmt.Errorf("line %d: missing Cluster", line)
		}
		id, err := parseClusterID(rec[clusterCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values, err := rowValues(rec, cols, line)
		if err != nil {
			return nil, err
		}
		means, _ := FeatureVectorFromValues(values)
		rows = append(rows, ClusterSummaryRow{Cluster: id, Means: means})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no cluster rows")
	}
	return NewSummaryTable(rows)
}

// parseClusterID accepts "2" and integral floats such as "2.0" (pandas writes both).
func parseClusterID(cell string) (ClusterID, error) {
	cell = cleanCell(cell)
	if n, err := strconv.Atoi(cell); err == nil {
		return ClusterID(n), nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid cluster id %q", strings.TrimSpace(cell))
	}
	return ClusterID(int(f)), nil
}
