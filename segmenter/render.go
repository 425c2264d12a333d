package segmenter

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StatLine is one formatted entry of the segment characteristics list.
type StatLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ComparisonTable lists every cluster's averages; Highlight is the row of the predicted cluster.
type ComparisonTable struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	Highlight int        `json:"highlight"`
}

// RenderModel is everything a presentation layer needs to show a prediction.
type RenderModel struct {
	Input           FeatureVector     `json:"input"`
	ClusterID       ClusterID         `json:"clusterId"`
	Profile         SegmentProfile    `json:"profile"`
	Stats           ClusterSummaryRow `json:"stats"`
	Characteristics []StatLine        `json:"characteristics"`
	Comparison      ComparisonTable   `json:"comparison"`
	Legend          []LegendEntry     `json:"legend"`
}

// FormatIncome renders an amount with English thousands separators and no decimals.
func FormatIncome(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", v)
}

// Characteristics formats a summary row the way the segment card shows it.
func Characteristics(row ClusterSummaryRow) []StatLine {
	m := row.Means
	return []StatLine{
		{Label: "Age", Value: fmt.Sprintf("%.0f years", m.Age)},
		{Label: "Income", Value: "~" + FormatIncome(m.Income)},
		{Label: "Spending", Value: fmt.Sprintf("~%.0f", m.TotalSpending)},
		{Label: "Web purchases", Value: fmt.Sprintf("%.1f", m.NumWebPurchases)},
		{Label: "Store purchases", Value: fmt.Sprintf("%.1f", m.NumStorePurchases)},
		{Label: "Web visits", Value: fmt.Sprintf("%.1f/month", m.NumWebVisitsMonth)},
		{Label: "Days since last purchase", Value: fmt.Sprintf("%.0f", m.Recency)},
	}
}

// BuildComparison formats every summary row; highlight is the predicted cluster, or -1.
func BuildComparison(summary *SummaryTable, highlight ClusterID) ComparisonTable {
	headers := append([]string{"Cluster"}, FeatureNames...)
	table := ComparisonTable{Headers: headers, Highlight: -1}
	for i, row := range summary.Rows() {
		m := row.Means
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", row.Cluster),
			fmt.Sprintf("%.0f", m.Age),
			FormatIncome(m.Income),
			fmt.Sprintf("%.0f", m.TotalSpending),
			fmt.Sprintf("%.1f", m.NumWebPurchases),
			fmt.Sprintf("%.1f", m.NumStorePurchases),
			fmt.Sprintf("%.1f", m.NumWebVisitsMonth),
			fmt.Sprintf("%.1f", m.Recency),
		})
		if row.Cluster == highlight {
			table.Highlight = i
		}
	}
	return table
}

// BuildRenderModel assembles the view of one prediction.
func BuildRenderModel(input FeatureVector, id ClusterID, catalog Catalog, summary *SummaryTable) (RenderModel, error) {
	profile, row, err := Lookup(id, catalog, summary)
	if err != nil {
		return RenderModel{}, err
	}
	return RenderModel{
		Input:           input,
		ClusterID:       id,
		Profile:         profile,
		Stats:           row,
		Characteristics: Characteristics(row),
		Comparison:      BuildComparison(summary, id),
		Legend:          catalog.Legend(),
	}, nil
}

// Headline is the "Your customer belongs to segment" line under the comparison table.
func (r RenderModel) Headline() string {
	return fmt.Sprintf("Your customer belongs to segment: %d", r.ClusterID)
}
