package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"yashubustudio/segmenter/segmenter"
)

var (
	batchInput     string
	batchOutput    string
	batchOutputDir string
	batchClamp     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict segments for every customer in a CSV file",
	Long: `Reads a CSV with one column per attribute (and an optional id column),
predicts every row and writes id, the attributes, Cluster and Segment to a result CSV.

Rows with out of range values are reported and skipped unless --clamp is set.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV file of customers")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	batchCmd.Flags().BoolVar(&batchClamp, "clamp", false, "Clamp out of range values instead of skipping the row")
	_ = batchCmd.MarkFlagRequired("input")
}

func runBatch(cmd *cobra.Command, args []string) error {
	records, err := segmenter.ParseCustomerFile(strings.TrimSpace(batchInput))
	if err != nil {
		return fmt.Errorf("read input records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("input file does not contain any customers")
	}

	svc, err := loadService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("predicting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	results, err := svc.PredictBatch(cmd.Context(), records, batchClamp, func(done, total int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	outputPath, err := resolveOutputPath(strings.TrimSpace(batchOutput), strings.TrimSpace(batchOutputDir))
	if err != nil {
		return err
	}
	n, err := writeResultCSV(outputPath, results)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintln(out, errorStyle.Render("skipped "+res.Record.ID+": "+res.Err.Error()))
		}
	}
	fmt.Fprintf(out, "wrote %d of %d customers to %s\n", n, len(results), outputPath)
	return nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, results []segmenter.BatchResult) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create result file: %w", err)
	}
	n, werr := segmenter.WriteBatchCSV(f, results)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("close result file: %w", cerr)
	}
	return n, werr
}
