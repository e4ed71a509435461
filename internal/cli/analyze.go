package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"RegimeShift/internal/di"
	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/usecase"

	"github.com/spf13/cobra"
)

var errNotReady = errors.New("analysis not ready")

func newAnalyzeCmd(e *env) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis once and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runOnce(cmd.Context(), e)
			if err != nil {
				return err
			}
			var out interface{}
			if full {
				out = usecase.ToAllData(res)
			} else {
				out = struct {
					ModelResults   models.ModelResultsDTO `json:"model_results"`
					RelevantEvents []models.EventDTO      `json:"relevant_events"`
				}{usecase.ToModelResults(res.Estimate), usecase.ToEventDTOs(res.RelevantEvents)}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the full all_data payload")
	return cmd
}

// runOnce computes a snapshot and turns a failed run into an error.
func runOnce(ctx context.Context, e *env) (*models.AnalysisResult, error) {
	svc, cleanup, err := di.InitializeAnalysis(e.cfg, e.l)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	snap, err := svc.Rerun(ctx, usecase.TriggerRequest)
	if err != nil {
		return nil, err
	}
	if !snap.Ready() {
		if snap.Failure != nil {
			return nil, fmt.Errorf("%s: %s", snap.Failure.Kind, snap.Failure.Message)
		}
		return nil, errNotReady
	}
	return snap.Result, nil
}
