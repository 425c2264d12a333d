package app

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"yashubustudio/segmenter/segmenter"
)

// parseFeatureEntries reads the form entries, in FieldSpecs order, into a checked vector.
func parseFeatureEntries(texts []string) (segmenter.FeatureVector, error) {
	if len(texts) != len(segmenter.FieldSpecs) {
		return segmenter.FeatureVector{}, fmt.Errorf("expected %d inputs, got %d", len(segmenter.FieldSpecs), len(texts))
	}
	values := make([]float64, len(texts))
	for i, spec := range segmenter.FieldSpecs {
		v, err := parseFieldValue(spec, texts[i])
		if err != nil {
			return segmenter.FeatureVector{}, err
		}
		values[i] = v
	}
	return segmenter.FeatureVectorFromValues(values)
}

// parseFieldValue accepts full-width digits and thousands separators.
func parseFieldValue(spec segmenter.FieldSpec, text string) (float64, error) {
	cleaned := strings.ReplaceAll(segmenter.NormalizeText(text), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("%s is required", spec.Label)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", spec.Label, text)
	}
	if err := spec.Check(v); err != nil {
		var rangeErr *segmenter.InputRangeError
		if errors.As(err, &rangeErr) {
			return 0, fmt.Errorf("%s must be between %s and %s", spec.Label, formatValue(spec.Min), formatValue(spec.Max))
		}
		return 0, err
	}
	return v, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseHexColor converts "#RRGGBB" to an opaque color.
func parseHexColor(s string) (color.NRGBA, error) {
	r, g, b, err := segmenter.ParseHexColor(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// textColorFor picks black or white banner text for a segment color.
func textColorFor(hex string) color.Color {
	if segmenter.IsLightColor(hex) {
		return color.Black
	}
	return color.White
}

func legendTitle(e segmenter.LegendEntry) string {
	return fmt.Sprintf("Segment %d: %s", e.ID, e.Profile.Name)
}

func characteristicsMarkdown(lines []segmenter.StatLine) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "- **%s:** %s\n", line.Label, line.Value)
	}
	return b.String()
}

// comparisonCells puts the header row first, the way the result table renders it.
func comparisonCells(table segmenter.ComparisonTable) [][]string {
	data := make([][]string, 0, len(table.Rows)+1)
	data = append(data, table.Headers)
	return append(data, table.Rows...)
}

func batchTableData(results []segmenter.BatchResult) [][]string {
	data := make([][]string, 1, len(results)+1)
	data[0] = []string{"id", "Cluster", "Segment", "Status"}
	for _, res := range results {
		if res.Err != nil {
			data = append(data, []string{res.Record.ID, "", "", res.Err.Error()})
			continue
		}
		data = append(data, []string{res.Record.ID, strconv.Itoa(int(res.Cluster)), res.Segment, "ok"})
	}
	return data
}
