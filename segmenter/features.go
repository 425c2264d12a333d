package segmenter

import (
	"fmt"
	"math"
)

// Canonical feature column names, in the order the scaler and model were fitted with.
const (
	FeatureAge               = "Age"
	FeatureIncome            = "Income"
	FeatureTotalSpending     = "Total_Spending"
	FeatureNumWebPurchases   = "NumWebPurchases"
	FeatureNumStorePurchases = "NumStorePurchases"
	FeatureNumWebVisitsMonth = "NumWebVisitsMonth"
	FeatureRecency           = "Recency"
)

// FeatureNames is the fixed column order. Reordering it silently corrupts predictions.
var FeatureNames = []string{
	FeatureAge,
	FeatureIncome,
	FeatureTotalSpending,
	FeatureNumWebPurchases,
	FeatureNumStorePurchases,
	FeatureNumWebVisitsMonth,
	FeatureRecency,
}

// FeatureCount is the dimensionality of every feature vector, scaler and centroid.
const FeatureCount = 7

// FeatureVector holds one customer's raw attributes.
type FeatureVector struct {
	Age               float64 `json:"age" yaml:"age"`
	Income            float64 `json:"income" yaml:"income"`
	TotalSpending     float64 `json:"totalSpending" yaml:"totalSpending"`
	NumWebPurchases   float64 `json:"numWebPurchases" yaml:"numWebPurchases"`
	NumStorePurchases float64 `json:"numStorePurchases" yaml:"numStorePurchases"`
	NumWebVisitsMonth float64 `json:"numWebVisitsMonth" yaml:"numWebVisitsMonth"`
	Recency           float64 `json:"recency" yaml:"recency"`
}

// AssembleFeatures builds a vector from the seven inputs without checking ranges.
func AssembleFeatures(age, income, totalSpending, webPurchases, storePurchases, webVisits, recency float64) FeatureVector {
	return FeatureVector{
		Age:               age,
		Income:            income,
		TotalSpending:     totalSpending,
		NumWebPurchases:   webPurchases,
		NumStorePurchases: storePurchases,
		NumWebVisitsMonth: webVisits,
		Recency:           recency,
	}
}

// FeatureVectorFromValues is the inverse of Values.
func FeatureVectorFromValues(values []float64) (FeatureVector, error) {
	if len(values) != FeatureCount {
		return FeatureVector{}, fmt.Errorf("expected %d feature values, got %d", FeatureCount, len(values))
	}
	return AssembleFeatures(values[0], values[1], values[2], values[3], values[4], values[5], values[6]), nil
}

// Values returns the fields in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Age,
		f.Income,
		f.TotalSpending,
		f.NumWebPurchases,
		f.NumStorePurchases,
		f.NumWebVisitsMonth,
		f.Recency,
	}
}

// FieldSpec describes how one feature is presented and which values are accepted.
type FieldSpec struct {
	Name    string
	Label   string
	Group   string
	Min     float64
	Max     float64
	Default float64
}

// Form groups used by the original input layout.
const (
	GroupDemographic = "Demographic Data"
	GroupBehavior    = "Purchase Behavior"
)

// FieldSpecList is an ordered set of field specs aligned with FeatureNames.
type FieldSpecList []FieldSpec

// FieldSpecs are the application ranges and defaults for the input form.
var FieldSpecs = FieldSpecList{
	{Name: FeatureAge, Label: "Age", Group: GroupDemographic, Min: 18, Max: 100, Default: 35},
	{Name: FeatureIncome, Label: "Income", Group: GroupDemographic, Min: 0, Max: 200000, Default: 50000},
	{Name: FeatureTotalSpending, Label: "Total Spending", Group: GroupDemographic, Min: 0, Max: 10000, Default: 1000},
	{Name: FeatureNumWebPurchases, Label: "Number of Web Purchases", Group: GroupBehavior, Min: 0, Max: 100, Default: 10},
	{Name: FeatureNumStorePurchases, Label: "Number of Store Purchases", Group: GroupBehavior, Min: 0, Max: 100, Default: 10},
	{Name: FeatureNumWebVisitsMonth, Label: "Web Visits per Month", Group: GroupBehavior, Min: 0, Max: 100, Default: 5},
	{Name: FeatureRecency, Label: "Days Since Last Purchase", Group: GroupBehavior, Min: 0, Max: 365, Default: 30},
}

// DefaultFeatureVector returns the form defaults.
func DefaultFeatureVector() FeatureVector {
	values := make([]float64, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		values[i] = spec.Default
	}
	fv, _ := FeatureVectorFromValues(values)
	return fv
}

// Check reports whether v is inside the field's closed range.
func (s FieldSpec) Check(v float64) error {
	if math.IsNaN(v) || v < s.Min || v > s.Max {
		return &InputRangeError{Field: s.Name, Value: v, Min: s.Min, Max: s.Max}
	}
	return nil
}

// Clamp pins v into the field's range. NaN becomes the default.
func (s FieldSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	return math.Min(math.Max(v, s.Min), s.Max)
}

// Validate returns an *InputRangeError for the first field outside its range.
func (l FieldSpecList) Validate(fv FeatureVector) error {
	values := fv.Values()
	for i, spec := range l {
		if err := spec.Check(values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clamp pins every field into range.
func (l FieldSpecList) Clamp(fv FeatureVector) FeatureVector {
	values := fv.Values()
	for i, spec := range l {
		values[i] = spec.Clamp(values[i])
	}
	out, _ := FeatureVectorFromValues(values)
	return out
}

// Lookup finds a field by canonical feature name.
func (l FieldSpecList) Lookup(name string) (FieldSpec, bool) {
	for _, spec := range l {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
