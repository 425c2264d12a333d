package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List the segment legend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		for _, entry := range svc.Legend() {
			title := fmt.Sprintf("Segment %d: %s", entry.ID, entry.Profile.Name)
			fmt.Fprintln(out, bannerStyle(entry.Profile.Color).Render(title))
			fmt.Fprintf(out, "  %s\n", entry.Profile.Description)
			fmt.Fprintf(out, "  %s %s\n\n", labelStyle.Render("Strategy:"), entry.Profile.Strategy)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the per-cluster averages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		table := svc.Comparison()
		_, err = fmt.Fprint(cmd.OutOrStdout(), renderTable(table.Headers, table.Rows, table.Highlight))
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every artifact and check they agree",
	Long: `Loads the scaler, model, cluster summary and segment catalog and checks that
they describe the same clusters. Exits non-zero on the first problem.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headingStyle.Render("artifacts OK"))
		fmt.Fprintf(out, "  backend:  %s\n", cfg.Model.Backend)
		fmt.Fprintf(out, "  clusters: %d\n", svc.Clusters())
		fmt.Fprintf(out, "  segments: %d\n", len(svc.Legend()))
		return nil
	},
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
