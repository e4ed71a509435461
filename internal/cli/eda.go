package cli

import (
	"encoding/json"

	"RegimeShift/internal/report"
	"RegimeShift/internal/services/series"

	"github.com/spf13/cobra"
)

func newEDACmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "eda",
		Short: "Describe the price and return series and draw exploratory charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = e.cfg.Report.OutputDir
			}
			pipe := series.NewPipeline()
			pipe.SetLogger(e.l)
			ds, err := pipe.Load(cmd.Context(), e.cfg.Data.PricesPath, e.cfg.Data.EventsPath)
			if err != nil {
				return err
			}
			sum, _, err := report.New(out, e.l).EDA(ds)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output directory (defaults to report.output_dir)")
	return cmd
}
