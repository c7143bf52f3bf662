package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/reflect-cli/internal/audit"
	"github.com/sells-group/reflect-cli/internal/model"
	"github.com/sells-group/reflect-cli/internal/pipeline"
	"github.com/sells-group/reflect-cli/internal/store"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// analysisEnv holds the audit trail and runner shared by the analyze and
// per-step commands.
type analysisEnv struct {
	Trail  *audit.Trail
	Runner *pipeline.Runner
}

// newAnalysisEnv builds the oracle client, wraps it with the audited
// decorator, and wires the pipeline runner.
func newAnalysisEnv() *analysisEnv {
	trail := audit.NewTrail(cfg)
	client := oracle.Audited(
		oracle.NewAnthropic(cfg.LLM.Anthropic.Key, cfg.LLM.Anthropic.Model),
		trail,
	)
	return &analysisEnv{
		Trail:  trail,
		Runner: pipeline.NewRunner(cfg, client, trail),
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// registerInputFlags adds the input/output override flags shared by analyze
// and the per-step commands.
func registerInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "input file path (overrides config)")
	cmd.Flags().String("format", "", "input format: txt, csv, or json (overrides config)")
	cmd.Flags().String("output", "", "output base directory (overrides config)")
	cmd.Flags().Duration("call-timeout", 0, "per-oracle-call timeout (0 = none)")
	cmd.Flags().Bool("use-context", false, "thread prior exchanges into each per-item call")
}

// applyInputFlags folds flag overrides into the loaded config.
func applyInputFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("input"); v != "" {
		cfg.Input.Path = v
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Input.Format = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output.BasePath = v
	}
	if v, _ := cmd.Flags().GetDuration("call-timeout"); v > 0 {
		cfg.Analysis.CallTimeoutSecs = int(v.Seconds())
	}
	if cmd.Flags().Changed("use-context") {
		cfg.Analysis.UseContext, _ = cmd.Flags().GetBool("use-context")
	}
}

// buildRunResult summarizes pipeline artifacts for run persistence.
func buildRunResult(arts *pipeline.Artifacts, started time.Time) *model.RunResult {
	result := &model.RunResult{
		Items:         len(arts.Reflections),
		ArtifactDir:   arts.ResultsDir,
		OracleCalls:   arts.OracleCalls,
		InputTokens:   int(arts.Usage.InputTokens),
		OutputTokens:  int(arts.Usage.OutputTokens),
		EstimatedCost: arts.EstimatedCost,
		DurationMS:    time.Since(started).Milliseconds(),
	}
	if arts.Clustering != nil {
		result.Assignments = len(arts.Clustering.Assignments)
		for _, th := range arts.Clustering.Themes {
			result.Themes = append(result.Themes, th.Name)
		}
		for _, a := range arts.Clustering.Assignments {
			if a.Error != "" {
				result.ErrorRows++
			}
		}
	}
	return result
}
