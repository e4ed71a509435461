package cli

import (
	"fmt"

	"RegimeShift/internal/report"

	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the analysis and export the preprocessed data, posterior summary and charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = e.cfg.Report.OutputDir
			}
			res, err := runOnce(cmd.Context(), e)
			if err != nil {
				return err
			}
			files, err := report.New(out, e.l).Export(res)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output directory (defaults to report.output_dir)")
	return cmd
}
