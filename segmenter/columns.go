package segmenter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// featureColumnCandidates lists accepted header spellings per feature, canonical name first.
func featureColumnCandidates() map[string][]string {
	out := make(map[string][]string, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		out[spec.Name] = []string{spec.Name, spec.Label}
	}
	out[FeatureNumWebVisitsMonth] = append(out[FeatureNumWebVisitsMonth], "NumWebVisits", "Web Visits")
	out[FeatureRecency] = append(out[FeatureRecency], "Days Since Last Purchase")
	return out
}

var (
	clusterColumnCandidates = []string{"Cluster", "cluster_id", "segment"}
	idColumnCandidates      = []string{"id", "ID", "customer_id", "CustomerID", "index"}
)

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		key := headerKey(cand)
		for i, col := range header {
			if headerKey(col) == key {
				return i
			}
		}
	}
	return -1
}

// featureColumns resolves the column index of every feature, in FeatureNames order.
func featureColumns(header []string) ([]int, error) {
	candidates := featureColumnCandidates()
	cols := make([]int, len(FeatureNames))
	var missing []string
	for i, name := range FeatureNames {
		cols[i] = findColumn(header, candidates[name])
		if cols[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// csvRow is a record with the file line it started on.
type csvRow struct {
	Line   int
	Fields []string
}

func readCSV(r io.Reader) ([]string, []csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var header []string
	var rows []csvRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if header == nil {
			header = make([]string, len(rec))
			for i, cell := range rec {
				header[i] = cleanCell(cell)
			}
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, csvRow{Line: line, Fields: rec})
	}
	if header == nil {
		return nil, nil, errors.New("empty file")
	}
	return header, rows, nil
}

func rowValues(row []string, cols []int, line int) ([]float64, error) {
	values := make([]float64, len(cols))
	for i, col := range cols {
		if col >= len(row) {
			return nil, fmt.Errorf("line %d: missing %s", line, FeatureNames[i])
		}
		v, err := strconv.ParseFloat(cleanCell(row[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, FeatureNames[i], err)
		}
		values[i] = v
	}
	return values, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}
