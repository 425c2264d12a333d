package segmenter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"
)

// BatchResult is the outcome of one customer row. Err is set for rows rejected by FieldSpecs.
type BatchResult struct {
	Record  CustomerRecord
	Cluster ClusterID
	Segment string
	Err     error
}

// PredictBatch assigns every record in order. Out of range rows are clamped when clamp is set,
// otherwise they are reported through Err and left unassigned. progress may be nil.
func (s *Service) PredictBatch(ctx context.Context, records []CustomerRecord, clamp bool, progress func(done, total int)) ([]BatchResult, error) {
	out := make([]BatchResult, 0, len(records))
	rejected := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := BatchResult{Record: rec}
		if clamp {
			res.Record.Features = FieldSpecs.Clamp(rec.Features)
		} else if err := FieldSpecs.Validate(rec.Features); err != nil {
			res.Err = fmt.Errorf("line %d: %w", rec.Line, err)
			rejected++
		}
		if res.Err == nil {
			id, err := s.Predict(res.Record.Features)
			if err != nil {
				return out, fmt.Errorf("line %d: %w", rec.Line, err)
			}
			profile, _, err := s.Lookup(id)
			if err != nil {
				return out, fmt.Errorf("line %d: %w", rec.Line, err)
			}
			res.Cluster, res.Segment = id, profile.Name
		}
		out = append(out, res)
		if progress != nil {
			progress(i+1, len(records))
		}
	}
	s.logger.Info("batch prediction finished", zap.Int("rows", len(records)), zap.Int("rejected", rejected))
	return out, nil
}

// BatchHeader is the column layout written by WriteBatchCSV.
func BatchHeader() []string {
	header := make([]string, 0, FeatureCount+3)
	header = append(header, "id")
	header = append(header, FeatureNames...)
	return append(header, "Cluster", "Segment")
}

// WriteBatchCSV writes the assigned rows and returns how many were written.
func WriteBatchCSV(w io.Writer, results []BatchResult) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(BatchHeader()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	n := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		row := make([]string, 0, FeatureCount+3)
		row = append(row, res.Record.ID)
		for _, v := range res.Record.Features.Values() {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		row = append(row, strconv.Itoa(int(res.Cluster)), res.Segment)
		if err := writer.Write(row); err != nil {
			return n, fmt.Errorf("write row %s: %w", res.Record.ID, err)
		}
		n++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return n, fmt.Errorf("flush result: %w", err)
	}
	return n, nil
}
