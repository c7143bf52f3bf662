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

// extractPreviewLen is the preview length stored on per-item extraction rows.
const extractPreviewLen = 200

// keywordTemp keeps keyword extraction near-deterministic.
const keywordTemp = 0.3

const keywordSystemTemplate = `You are an expert in qualitative analysis. Extract the %d most important keywords from student reflections about GenAI.

RULES:
- Exactly %d keywords (no more, no less)
- Use 1-3 words per keyword
- Focus on concrete concepts and experiences
- Prefer English terms
- Avoid generic words like "AI" or "student"

FORMAT (use exactly this format):
%s

No extra text, only the numbered list.`

const keywordPromptTemplate = `Analyze the following student reflection and identify the %d most important keywords or concepts:

REFLECTION:
%s

Provide a numbered list of exactly %d keywords:`

// KeywordExtractor runs the per-reflection keyword pass.
type KeywordExtractor struct {
	caller *Caller
	cfg    config.AnalysisConfig
}

// NewKeywordExtractor creates a KeywordExtractor.
func NewKeywordExtractor(caller *Caller, cfg config.AnalysisConfig) *KeywordExtractor {
	return &KeywordExtractor{caller: caller, cfg: cfg}
}

// Extract produces one KeywordRow per reflection, in input order. Failed
// calls yield ERROR rows. With use_context enabled, items are processed
// sequentially and each call carries the prior exchanges.
func (e *KeywordExtractor) Extract(ctx context.Context, reflections []model.Reflection) []model.KeywordRow {
	n := e.cfg.KeywordsPerItem
	system := fmt.Sprintf(keywordSystemTemplate, n, n, exampleList(n))

	var conv *oracle.Conversation
	if e.cfg.UseContext {
		conv = &oracle.Conversation{}
	}

	rows := make([]model.KeywordRow, 0, len(reflections))
	for _, r := range reflections {
		prompt := fmt.Sprintf(keywordPromptTemplate, n, r.Text, n)

		req := oracle.Request{
			Prompt:      prompt,
			System:      system,
			Temperature: oracle.Temp(keywordTemp),
		}
		if conv != nil {
			req.Turns = conv.Turns()
		}

		resp, err := e.caller.Generate(ctx, req)
		if err != nil {
			zap.L().Warn("keyword extraction failed",
				zap.String("id", r.ID),
				zap.Error(err),
			)
			rows = append(rows, model.KeywordRow{
				ReflectionID: r.ID,
				TextPreview:  r.Preview(extractPreviewLen),
				Error:        err.Error(),
			})
			continue
		}
		if conv != nil {
			conv.Observe(prompt, resp.Text)
		}

		rows = append(rows, model.KeywordRow{
			ReflectionID: r.ID,
			TextPreview:  r.Preview(extractPreviewLen),
			Keywords:     parse.NumberedList(resp.Text, n),
		})
	}

	zap.L().Info("keywords extracted", zap.Int("items", len(rows)))
	return rows
}

// exampleList renders the numbered format example embedded in the system
// prompt.
func exampleList(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. keyword %d", i, i)
	}
	return b.String()
}
