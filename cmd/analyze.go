package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline",
	Long:  "Runs keyword extraction, sentiment analysis, analytic memos, thematic clustering, and the audit trail over the configured input, recording the run in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyInputFlags(cmd)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.CreateRun(ctx, cfg.Input.Path)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			return eris.Wrap(err, "mark run running")
		}

		env := newAnalysisEnv()
		started := time.Now()

		arts, err := env.Runner.Run(ctx)
		if err != nil {
			if stErr := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); stErr != nil {
				zap.L().Error("mark run failed", zap.Error(stErr))
			}
			return eris.Wrap(err, "analysis run")
		}

		result := buildRunResult(arts, started)
		if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
			return eris.Wrap(err, "store run result")
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", run.ID),
			zap.String("session_id", env.Trail.SessionID()),
			zap.Int("items", result.Items),
			zap.Strings("themes", result.Themes),
			zap.Int("oracle_calls", result.OracleCalls),
			zap.Float64("estimated_cost_usd", result.EstimatedCost),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	registerInputFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
