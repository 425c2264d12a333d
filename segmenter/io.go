package segmenter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// CustomerRecord is one row of a batch input file.
type CustomerRecord struct {
	ID       string        `json:"id"`
	Line     int           `json:"line"`
	Features FeatureVector `json:"features"`
}

// ParseCustomerFile reads a CSV of customers for batch prediction.
func ParseCustomerFile(path string) ([]CustomerRecord, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	records, err := ParseCustomers(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// ParseCustomers reads CSV rows with one column per feature and an optional id column.
// Rows without an id are numbered by their position.
func ParseCustomers(r io.Reader) ([]CustomerRecord, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	cols, err := featureColumns(header)
	if err != nil {
		return nil, err
	}
	idCol := findColumn(header, idColumnCandidates)
	out := make([]CustomerRecord, 0, len(rows))
	for _, raw := range rows {
		line, row := raw.Line, raw.Fields
		if isBlankRow(row) {
			continue
		}
		values, err := rowValues(row, cols, line)
		if err != nil {
			return nil, err
		}
		fv, _ := FeatureVectorFromValues(values)
		id := ""
		if idCol >= 0 && idCol < len(row) {
			id = cleanCell(row[idCol])
		}
		if id == "" {
			id = strconv.Itoa(len(out) + 1)
		}
		out = append(out, CustomerRecord{ID: id, Line: line, Features: fv})
	}
	return out, nil
}
