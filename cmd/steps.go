package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/pipeline"
)

// stepCommand builds a command that runs one analysis pass plus the audit
// finalize, without run-store bookkeeping.
func stepCommand(use, short string, step int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			applyInputFlags(cmd)

			env := newAnalysisEnv()
			arts, err := env.Runner.RunSteps(ctx, []int{step, pipeline.StepAudit})
			if err != nil {
				return eris.Wrapf(err, "%s run", use)
			}

			zap.L().Info("step complete",
				zap.String("step", use),
				zap.String("session_id", env.Trail.SessionID()),
				zap.Int("items", len(arts.Reflections)),
				zap.String("results_dir", arts.ResultsDir),
				zap.Int("oracle_calls", arts.OracleCalls),
				zap.Float64("estimated_cost_usd", arts.EstimatedCost),
			)
			return nil
		},
	}
	registerInputFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(
		stepCommand("keywords", "Extract keywords from each reflection", pipeline.StepKeywords),
		stepCommand("sentiment", "Analyze sentiment of each reflection", pipeline.StepSentiment),
		stepCommand("memos", "Generate an analytic memo for each reflection", pipeline.StepMemos),
		stepCommand("cluster", "Cluster reflections into themes (two-pass)", pipeline.StepClustering),
	)
}
