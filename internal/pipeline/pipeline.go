// Package pipeline implements the analysis passes over student reflections:
// keyword extraction, two-dimensional sentiment, analytic memos, and two-pass
// thematic clustering, plus the orchestration that runs them in sequence and
// writes their artifacts.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/audit"
	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/cost"
	"github.com/sells-group/reflect-cli/internal/ingest"
	"github.com/sells-group/reflect-cli/internal/model"
	"github.com/sells-group/reflect-cli/internal/report"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// Step numbers, in analysis order.
const (
	StepKeywords   = 1
	StepSentiment  = 2
	StepMemos      = 3
	StepClustering = 4
	StepAudit      = 5
)

// AllSteps lists every analysis step in order.
var AllSteps = []int{StepKeywords, StepSentiment, StepMemos, StepClustering, StepAudit}

// Artifacts collects everything a run produced.
type Artifacts struct {
	Reflections []model.Reflection
	Keywords    []model.KeywordRow
	Sentiment   []model.SentimentRow
	Memos       []model.MemoRow
	Clustering  *model.ClusterResult

	ResultsDir string
	AuditDir   string

	OracleCalls   int
	Usage         oracle.TokenUsage
	EstimatedCost float64
}

// Runner wires the analysis passes together: one shared oracle caller, one
// audit trail, one results directory.
type Runner struct {
	cfg    *config.Config
	caller *Caller
	trail  *audit.Trail
	calc   *cost.Calculator
}

// NewRunner creates a Runner. The client should already be wrapped with the
// audited decorator pointing at trail so every call lands in the trail.
func NewRunner(cfg *config.Config, client oracle.Client, trail *audit.Trail) *Runner {
	return &Runner{
		cfg:    cfg,
		caller: NewCaller(client, cfg.Analysis),
		trail:  trail,
		calc:   cost.NewCalculator(cost.DefaultRates()),
	}
}

// Run executes the complete pipeline: all analysis steps plus the audit
// finalize.
func (r *Runner) Run(ctx context.Context) (*Artifacts, error) {
	return r.RunSteps(ctx, AllSteps)
}

// RunSteps executes the selected steps in analysis order. Per-item oracle
// failures become ERROR rows inside each pass; only ingest failures, a failed
// theme generation call, or artifact write failures abort the run.
func (r *Runner) RunSteps(ctx context.Context, steps []int) (*Artifacts, error) {
	selected := make(map[int]bool, len(steps))
	for _, s := range steps {
		selected[s] = true
	}

	reflections, err := ingest.Load(r.cfg.Input)
	if err != nil {
		return nil, err
	}
	if err := ingest.Validate(reflections); err != nil {
		return nil, err
	}

	resultsDir := filepath.Join(r.cfg.Output.BasePath, r.cfg.Output.ResultsDir)
	auditDir := filepath.Join(r.cfg.Output.BasePath, r.cfg.Output.AuditDir)
	writer, err := report.NewWriter(resultsDir)
	if err != nil {
		return nil, err
	}

	arts := &Artifacts{
		Reflections: reflections,
		ResultsDir:  resultsDir,
		AuditDir:    auditDir,
	}

	if selected[StepKeywords] {
		if err := r.runKeywords(ctx, reflections, writer, arts); err != nil {
			return arts, err
		}
	}
	if selected[StepSentiment] {
		if err := r.runSentiment(ctx, reflections, writer, arts); err != nil {
			return arts, err
		}
	}
	if selected[StepMemos] {
		if err := r.runMemos(ctx, reflections, writer, arts); err != nil {
			return arts, err
		}
	}
	if selected[StepClustering] {
		if err := r.runClustering(ctx, reflections, writer, arts); err != nil {
			return arts, err
		}
	}
	if selected[StepAudit] {
		if err := r.trail.Finalize(auditDir); err != nil {
			return arts, err
		}
	}

	r.tallyCost(arts)
	return arts, nil
}

func (r *Runner) runKeywords(ctx context.Context, reflections []model.Reflection, writer *report.Writer, arts *Artifacts) error {
	r.trail.StepStart(StepKeywords, "Keyword Extraction", "Extracting keywords from reflections")

	rows := NewKeywordExtractor(r.caller, r.cfg.Analysis).Extract(ctx, reflections)
	arts.Keywords = rows

	path, err := writer.WriteKeywords(rows)
	if err != nil {
		r.trail.StepError(StepKeywords, err, "writing keyword rows")
		return err
	}
	if _, err := writer.WriteKeywordFrequency(KeywordFrequency(rows)); err != nil {
		r.trail.StepError(StepKeywords, err, "writing keyword frequency")
		return err
	}

	r.trail.StepComplete(StepKeywords, path, len(rows))
	return nil
}

func (r *Runner) runSentiment(ctx context.Context, reflections []model.Reflection, writer *report.Writer, arts *Artifacts) error {
	r.trail.StepStart(StepSentiment, "Sentiment Analysis", "Analyzing sentiment of reflections")

	rows := NewSentimentAnalyzer(r.caller, r.cfg.Analysis).Analyze(ctx, reflections)
	arts.Sentiment = rows

	path, err := writer.WriteSentiment(rows)
	if err != nil {
		r.trail.StepError(StepSentiment, err, "writing sentiment rows")
		return err
	}
	if _, err := writer.WriteSentimentDistribution(SentimentDistribution(rows)); err != nil {
		r.trail.StepError(StepSentiment, err, "writing sentiment distribution")
		return err
	}

	r.trail.StepComplete(StepSentiment, path, len(rows))
	return nil
}

func (r *Runner) runMemos(ctx context.Context, reflections []model.Reflection, writer *report.Writer, arts *Artifacts) error {
	r.trail.StepStart(StepMemos, "Analytic Memos", "Generating analytic memos")

	rows := NewMemoGenerator(r.caller, r.cfg.Analysis).Generate(ctx, reflections)
	arts.Memos = rows

	path, err := writer.WriteMemos(rows)
	if err != nil {
		r.trail.StepError(StepMemos, err, "writing memo rows")
		return err
	}
	if _, err := writer.WriteLearningPatterns(CommonLearningPatterns(rows, 10)); err != nil {
		r.trail.StepError(StepMemos, err, "writing learning patterns")
		return err
	}

	r.trail.StepComplete(StepMemos, path, len(rows))
	return nil
}

func (r *Runner) runClustering(ctx context.Context, reflections []model.Reflection, writer *report.Writer, arts *Artifacts) error {
	r.trail.StepStart(StepClustering, "Thematic Clustering", "Clustering reflections into themes")

	clusterer := NewClusterer(r.caller, r.cfg.Analysis, oracle.Temp(r.cfg.LLM.Anthropic.Temperature))
	result, err := clusterer.Cluster(ctx, reflections)
	if err != nil {
		r.trail.StepError(StepClustering, err, "two-pass clustering")
		return eris.Wrap(err, "pipeline: clustering")
	}
	arts.Clustering = result

	dir, err := writer.WriteClustering(result)
	if err != nil {
		r.trail.StepError(StepClustering, err, "writing clustering artifacts")
		return err
	}
	if _, err := writer.WriteWorkbook(result, arts.Keywords, arts.Sentiment, arts.Memos); err != nil {
		r.trail.StepError(StepClustering, err, "writing workbook")
		return err
	}

	r.trail.StepComplete(StepClustering, dir, len(reflections))
	return nil
}

// tallyCost sums token usage across all recorded oracle calls and prices it.
func (r *Runner) tallyCost(arts *Artifacts) {
	calls := r.trail.Calls()
	arts.OracleCalls = len(calls)

	var usage oracle.TokenUsage
	for _, c := range calls {
		usage.Add(oracle.TokenUsage{InputTokens: c.InputTokens, OutputTokens: c.OutputTokens})
	}
	arts.Usage = usage
	arts.EstimatedCost = r.calc.Estimate(r.cfg.LLM.Anthropic.Model, usage)

	zap.L().Info("oracle usage",
		zap.Int("calls", arts.OracleCalls),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
		zap.Float64("estimated_cost_usd", arts.EstimatedCost),
	)
}
