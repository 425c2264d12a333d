package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"yashubustudio/segmenter/segmenter"
)

// predictFlagNames are the flag spellings of FieldSpecs, in the same order.
var predictFlagNames = []string{"age", "income", "total-spending", "web-purchases", "store-purchases", "web-visits", "recency"}

var (
	predictValues = make([]float64, len(predictFlagNames))
	predictClamp  bool
	predictJSON   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the segment of one customer",
	Long: `Predicts the segment of one customer. Omitted attributes take the form defaults.

Example:
  segmenter-cli predict --age 52 --income 76000 --total-spending 1400 --recency 20`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	for i, spec := range segmenter.FieldSpecs {
		usage := fmt.Sprintf("%s (%s to %s)", spec.Label, formatNumber(spec.Min), formatNumber(spec.Max))
		predictCmd.Flags().Float64Var(&predictValues[i], predictFlagNames[i], spec.Default, usage)
	}
	predictCmd.Flags().BoolVar(&predictClamp, "clamp", false, "Clamp out of range values instead of failing")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print the full result as JSON")
}

func runPredict(cmd *cobra.Command, args []string) error {
	fv, err := segmenter.FeatureVectorFromValues(predictValues)
	if err != nil {
		return err
	}
	if predictClamp {
		fv = segmenter.FieldSpecs.Clamp(fv)
	} else if err := segmenter.FieldSpecs.Validate(fv); err != nil {
		return err
	}

	svc, err := loadService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	rm, err := svc.HandlePredictionRequest(fv)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if predictJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rm)
	}
	_, err = fmt.Fprint(out, renderCard(rm))
	return err
}
