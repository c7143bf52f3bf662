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

// memoTemp allows some variation in phrasing; memos are prose, not labels.
const memoTemp = 0.5

// memoMinLineLen filters out headers and stray fragments in memo replies.
const memoMinLineLen = 10

const memoSystemTemplate = `You are an expert in qualitative analysis of educational research. Your task is to write compact analytic memos for student reflections about generative AI.

An analytic memo consists of %d short, informative sentences that describe:
1. What the student learned or discovered
2. How their attitude or understanding changed
3. What new insights or awareness emerged

Examples of good memo sentences:
- "Became aware of hallucination risk in AI outputs"
- "Now checks AI sources before using them in academic work"
- "Developed more critical stance toward AI reliability"
- "Learned importance of prompt engineering"

Write concretely and action-oriented. Avoid vague statements.

Output format:
MEMO:
[Sentence 1]
[Sentence 2]
[Sentence 3]`

const memoPromptTemplate = `Write an analytic memo for this student reflection about generative AI.

REFLECTION:
%s

Generate %d short sentences that describe what the student learned or how their attitude changed:`

// learningMarkers flag memo sentences that state an explicit learning point.
var learningMarkers = []string{"learned", "aware", "discovered", "realized", "understood"}

// MemoGenerator runs the analytic memo pass.
type MemoGenerator struct {
	caller *Caller
	cfg    config.AnalysisConfig
}

// NewMemoGenerator creates a MemoGenerator.
func NewMemoGenerator(caller *Caller, cfg config.AnalysisConfig) *MemoGenerator {
	return &MemoGenerator{caller: caller, cfg: cfg}
}

// Generate produces one MemoRow per reflection, in input order. Failed calls
// yield ERROR rows.
func (m *MemoGenerator) Generate(ctx context.Context, reflections []model.Reflection) []model.MemoRow {
	system := fmt.Sprintf(memoSystemTemplate, m.cfg.MemoSentences)

	var conv *oracle.Conversation
	if m.cfg.UseContext {
		conv = &oracle.Conversation{}
	}

	rows := make([]model.MemoRow, 0, len(reflections))
	for _, r := range reflections {
		prompt := fmt.Sprintf(memoPromptTemplate, r.Text, m.cfg.MemoSentences)

		req := oracle.Request{
			Prompt:      prompt,
			System:      system,
			Temperature: oracle.Temp(memoTemp),
		}
		if conv != nil {
			req.Turns = conv.Turns()
		}

		resp, err := m.caller.Generate(ctx, req)
		if err != nil {
			zap.L().Warn("memo generation failed",
				zap.String("id", r.ID),
				zap.Error(err),
			)
			rows = append(rows, model.MemoRow{
				ReflectionID: r.ID,
				TextPreview:  r.Preview(extractPreviewLen),
				Memo:         model.ErrorSentinel,
				Error:        err.Error(),
			})
			continue
		}
		if conv != nil {
			conv.Observe(prompt, resp.Text)
		}

		row := m.parseMemo(resp.Text)
		row.ReflectionID = r.ID
		row.TextPreview = r.Preview(extractPreviewLen)
		rows = append(rows, row)
	}

	zap.L().Info("memos generated", zap.Int("items", len(rows)))
	return rows
}

// parseMemo extracts memo sentences from a reply: the MEMO header is skipped,
// list prefixes stripped, and lines at or below the minimum length dropped.
func (m *MemoGenerator) parseMemo(text string) model.MemoRow {
	var memoLines []string
	var learningPoints []string

	for _, line := range parse.NumberedList(text, 0) {
		if strings.HasPrefix(strings.ToUpper(line), "MEMO:") {
			continue
		}
		if len(line) <= memoMinLineLen {
			continue
		}
		memoLines = append(memoLines, line)

		lower := strings.ToLower(line)
		for _, marker := range learningMarkers {
			if strings.Contains(lower, marker) {
				learningPoints = append(learningPoints, line)
				break
			}
		}
	}

	if len(memoLines) > m.cfg.MemoSentences {
		memoLines = memoLines[:m.cfg.MemoSentences]
	}
	if len(learningPoints) > 3 {
		learningPoints = learningPoints[:3]
	}

	row := model.MemoRow{
		Memo:           strings.Join(memoLines, " "),
		LearningPoints: learningPoints,
	}
	if len(memoLines) > 0 {
		row.KeyInsight = memoLines[0]
	}
	return row
}
