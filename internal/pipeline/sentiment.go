package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/model"
	"github.com/sells-group/reflect-cli/internal/parse"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// sentimentTemp keeps the classification near-deterministic.
const sentimentTemp = 0.3

const sentimentSystem = `You are an expert in sentiment analysis. Analyze student reflections about generative AI from TWO different perspectives.

IMPORTANT: Use this exact format without extra text or markdown:

AI_SENTIMENT: [positive/negative/neutral]
AI_EXPLANATION: [one clear sentence explaining the student's attitude toward AI technology]

ASSIGNMENT_SENTIMENT: [positive/negative/neutral]
ASSIGNMENT_EXPLANATION: [one clear sentence explaining the student's attitude toward the assignment/task]

Category definitions:

1. ATTITUDE TOWARD AI TECHNOLOGY (AI_SENTIMENT):
   - positive: sees AI as valuable, helpful, promising; emphasizes benefits and opportunities
   - negative: concerned about AI, critical, emphasizes risks, drawbacks, fears, or limitations
   - neutral: balanced view with both benefits and concerns equally weighted, or purely descriptive

2. ATTITUDE TOWARD THE ASSIGNMENT (ASSIGNMENT_SENTIMENT):
   - positive: found assignment valuable, educational, worthwhile, insightful
   - negative: frustrated with assignment, critical of the task itself, questions its value
   - neutral: descriptive about assignment without clear positive or negative evaluation

IMPORTANT: These are TWO SEPARATE dimensions. A student can be positive about AI but neutral about the assignment, or vice versa.`

const sentimentPromptTemplate = `Analyze this student reflection about generative AI and determine TWO separate attitudes:

1. The student's attitude toward AI TECHNOLOGY itself (helpful vs problematic)
2. The student's attitude toward THIS ASSIGNMENT/TASK (valuable learning experience vs not)

REFLECTION:
%s

Provide your analysis:`

// sentimentLabels are the structured-response labels of the sentiment pass.
var sentimentLabels = []string{
	"AI_SENTIMENT", "AI_EXPLANATION",
	"ASSIGNMENT_SENTIMENT", "ASSIGNMENT_EXPLANATION",
}

// sentimentAliases normalizes category replies, including the Dutch variants
// the source material sometimes produces.
var sentimentAliases = map[string]string{
	"positive": model.SentimentPositive,
	"positief": model.SentimentPositive,
	"negative": model.SentimentNegative,
	"negatief": model.SentimentNegative,
	"neutral":  model.SentimentNeutral,
	"neutraal": model.SentimentNeutral,
}

// SentimentAnalyzer runs the two-dimensional sentiment pass: attitude toward
// AI technology and attitude toward the assignment itself.
type SentimentAnalyzer struct {
	caller *Caller
	cfg    config.AnalysisConfig
}

// NewSentimentAnalyzer creates a SentimentAnalyzer.
func NewSentimentAnalyzer(caller *Caller, cfg config.AnalysisConfig) *SentimentAnalyzer {
	return &SentimentAnalyzer{caller: caller, cfg: cfg}
}

// Analyze produces one SentimentRow per reflection, in input order. Failed
// calls yield ERROR rows for both dimensions.
func (s *SentimentAnalyzer) Analyze(ctx context.Context, reflections []model.Reflection) []model.SentimentRow {
	var conv *oracle.Conversation
	if s.cfg.UseContext {
		conv = &oracle.Conversation{}
	}

	rows := make([]model.SentimentRow, 0, len(reflections))
	for _, r := range reflections {
		prompt := fmt.Sprintf(sentimentPromptTemplate, r.Text)

		req := oracle.Request{
			Prompt:      prompt,
			System:      sentimentSystem,
			Temperature: oracle.Temp(sentimentTemp),
		}
		if conv != nil {
			req.Turns = conv.Turns()
		}

		resp, err := s.caller.Generate(ctx, req)
		if err != nil {
			zap.L().Warn("sentiment analysis failed",
				zap.String("id", r.ID),
				zap.Error(err),
			)
			rows = append(rows, model.SentimentRow{
				ReflectionID:  r.ID,
				TextPreview:   r.Preview(extractPreviewLen),
				AISentiment:   model.ErrorSentinel,
				TaskSentiment: model.ErrorSentinel,
				Error:         err.Error(),
			})
			continue
		}
		if conv != nil {
			conv.Observe(prompt, resp.Text)
		}

		row := parseSentiment(resp.Text)
		row.ReflectionID = r.ID
		row.TextPreview = r.Preview(extractPreviewLen)
		rows = append(rows, row)
	}

	zap.L().Info("sentiment analyzed", zap.Int("items", len(rows)))
	return rows
}

// parseSentiment maps a structured reply onto a SentimentRow. Unrecognized or
// missing categories default to neutral rather than failing the item.
func parseSentiment(text string) model.SentimentRow {
	fields := parse.Fields(text, sentimentLabels)

	row := model.SentimentRow{
		AISentiment:     model.SentimentNeutral,
		TaskSentiment:   model.SentimentNeutral,
		AIExplanation:   fields["ai_explanation"],
		TaskExplanation: fields["assignment_explanation"],
	}
	if v, ok := normalizeSentiment(fields["ai_sentiment"]); ok {
		row.AISentiment = v
	}
	if v, ok := normalizeSentiment(fields["assignment_sentiment"]); ok {
		row.TaskSentiment = v
	}
	return row
}

func normalizeSentiment(raw string) (string, bool) {
	v, ok := sentimentAliases[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}
