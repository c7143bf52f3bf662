package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/model"
	"github.com/sells-group/reflect-cli/internal/parse"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// assignPreviewLen is the preview length stored on assignment rows.
const assignPreviewLen = 100

const themeGenSystem = "You are an expert qualitative researcher specializing in thematic analysis of student reflections."

const themeGenPromptTemplate = `You are analyzing student reflections about their experiences with generative AI.

Please read through ALL the reflections below and identify %d main themes or topics that emerge across these reflections.

REFLECTIONS:
%s

Based on these reflections, identify %d themes. For each theme, provide:
1. A clear, concise theme name (2-5 words)
2. A definition explaining what the theme is about (2-3 sentences)
3. Key concepts or keywords associated with this theme (5-10 words)

Format your response EXACTLY like this (no extra text, no markdown):

THEME 1: [name]
DEFINITION: [explanation]
KEYWORDS: [keyword1, keyword2, keyword3, ...]

THEME 2: [name]
DEFINITION: [explanation]
KEYWORDS: [keyword1, keyword2, keyword3, ...]

Continue for all %d themes.

IMPORTANT:
- Choose themes that are actually present in the reflections above
- Make theme names descriptive and distinct from each other
- Write in English
- No markdown formatting (no ** or *)`

const assignSystem = "You are an expert at categorizing student reflections into themes. Be concise and only respond with the theme number and name."

const assignPromptTemplate = `You have identified the following themes from student reflections about generative AI:

%s

Now, read this specific reflection and assign it to the MOST APPROPRIATE theme from the list above:

REFLECTION:
%s

Which theme does this reflection belong to? Respond with ONLY the theme number (1-%d) and the theme name.

Format: [number]. [Theme Name]

For example: "1. Critical Thinking & Verification" or "3. Efficiency & Productivity"

Your answer:`

// Clusterer runs the two-pass thematic clustering: one oracle call reads a
// sample of reflections and proposes themes, then every reflection is
// assigned to exactly one theme with a dedicated call per item.
type Clusterer struct {
	caller *Caller
	cfg    config.AnalysisConfig
	temp   *float64
}

// NewClusterer creates a Clusterer. temp overrides the provider's default
// sampling temperature for both passes when non-nil.
func NewClusterer(caller *Caller, cfg config.AnalysisConfig, temp *float64) *Clusterer {
	return &Clusterer{caller: caller, cfg: cfg, temp: temp}
}

// Cluster runs both passes and derives the frequency table and summary.
// Per-item assignment failures become ERROR rows instead of aborting; only a
// failed theme generation call aborts the run.
func (c *Clusterer) Cluster(ctx context.Context, reflections []model.Reflection) (*model.ClusterResult, error) {
	themes, err := c.GenerateThemes(ctx, reflections)
	if err != nil {
		return nil, err
	}

	assignments := c.AssignThemes(ctx, reflections, themes)
	frequency := BuildFrequencyTable(assignments, themes)

	return &model.ClusterResult{
		Themes:      themes,
		Assignments: assignments,
		Frequency:   frequency,
		Summary:     ClusterSummary(themes, frequency, reflections, assignments),
	}, nil
}

// GenerateThemes is the first pass: a sample of reflections (each truncated
// to the configured text limit) goes to the oracle in one call, and the
// structured reply is parsed into themes. When fewer themes parse than the
// configured minimum, the fixed fallback set is used so the assignment pass
// always has labels to work with.
func (c *Clusterer) GenerateThemes(ctx context.Context, reflections []model.Reflection) ([]model.Theme, error) {
	sample := reflections
	if c.cfg.ThemeSampleSize > 0 && len(sample) > c.cfg.ThemeSampleSize {
		sample = sample[:c.cfg.ThemeSampleSize]
	}

	var b strings.Builder
	for i, r := range sample {
		if i > 0 {
			b.WriteString("\n\n")
		}
		text := r.Text
		if c.cfg.ThemeTextLimit > 0 && len(text) > c.cfg.ThemeTextLimit {
			text = text[:c.cfg.ThemeTextLimit]
		}
		fmt.Fprintf(&b, "Reflection %d: %s", i+1, text)
	}

	target := c.cfg.TargetThemes
	prompt := fmt.Sprintf(themeGenPromptTemplate, target, b.String(), target, target)

	resp, err := c.caller.Generate(ctx, oracle.Request{
		Prompt:      prompt,
		System:      themeGenSystem,
		Temperature: c.temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "cluster: theme generation call")
	}

	themes := parse.Themes(resp.Text)
	if len(themes) < c.cfg.MinParsedThemes {
		zap.L().Warn("theme generation produced too few themes, using fallback set",
			zap.Int("parsed", len(themes)),
			zap.Int("min", c.cfg.MinParsedThemes),
		)
		themes = fallbackThemes()
	}

	zap.L().Info("themes identified",
		zap.Int("count", len(themes)),
		zap.Int("sample_size", len(sample)),
	)
	return themes, nil
}

// AssignThemes is the second pass: every reflection gets one oracle call
// asking for the best-fitting theme. Workers run with bounded concurrency and
// results land at the reflection's input position, so output order always
// matches input order. A failed call yields an ERROR row; the pass never
// aborts part-way.
func (c *Clusterer) AssignThemes(ctx context.Context, reflections []model.Reflection, themes []model.Theme) []model.ThemeAssignment {
	var list strings.Builder
	for i, th := range themes {
		if i > 0 {
			list.WriteString("\n")
		}
		fmt.Fprintf(&list, "%d. %s: %s", i+1, th.Name, th.Definition)
	}
	themeList := list.String()

	concurrency := c.cfg.AssignConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	assignments := make([]model.ThemeAssignment, len(reflections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, r := range reflections {
		g.Go(func() error {
			assignments[i] = c.assignOne(gctx, r, themes, themeList)
			return nil
		})
	}
	_ = g.Wait()

	errRows := 0
	lowConf := 0
	for _, a := range assignments {
		if a.Error != "" {
			errRows++
		}
		if a.LowConfidence {
			lowConf++
		}
	}
	zap.L().Info("theme assignment completed",
		zap.Int("items", len(reflections)),
		zap.Int("errors", errRows),
		zap.Int("low_confidence", lowConf),
	)
	return assignments
}

func (c *Clusterer) assignOne(ctx context.Context, r model.Reflection, themes []model.Theme, themeList string) model.ThemeAssignment {
	prompt := fmt.Sprintf(assignPromptTemplate, themeList, r.Text, len(themes))

	resp, err := c.caller.Generate(ctx, oracle.Request{
		Prompt:      prompt,
		System:      assignSystem,
		Temperature: c.temp,
	})
	if err != nil {
		zap.L().Warn("assignment call failed",
			zap.String("id", r.ID),
			zap.Error(err),
		)
		return model.ThemeAssignment{
			ReflectionID: r.ID,
			TextPreview:  r.Preview(assignPreviewLen),
			ThemeName:    model.ErrorSentinel,
			Error:        err.Error(),
		}
	}

	name, low := parse.Assignment(resp.Text, themes)
	if low {
		zap.L().Warn("could not parse theme assignment, defaulting to first theme",
			zap.String("id", r.ID),
			zap.String("reply", strings.TrimSpace(resp.Text)),
		)
	}
	return model.ThemeAssignment{
		ReflectionID:  r.ID,
		TextPreview:   r.Preview(assignPreviewLen),
		ThemeName:     name,
		RawResponse:   strings.TrimSpace(resp.Text),
		LowConfidence: low,
	}
}

// fallbackThemes is the fixed theme set used when theme generation cannot be
// parsed. Names and definitions are stable across runs so downstream
// comparisons of fallback results stay meaningful.
func fallbackThemes() []model.Theme {
	return []model.Theme{
		{
			Name:       "Learning and Education",
			Definition: "Reflections about learning, understanding, and educational experiences with AI.",
			Keywords:   []string{"learning", "education", "understanding", "knowledge", "study"},
		},
		{
			Name:       "Ethics and Responsibility",
			Definition: "Ethical considerations and responsible use of AI technology.",
			Keywords:   []string{"ethics", "responsibility", "moral", "integrity", "trust"},
		},
		{
			Name:       "Efficiency and Productivity",
			Definition: "Impact on work efficiency, time management, and productivity.",
			Keywords:   []string{"efficiency", "productivity", "time", "faster", "speed"},
		},
		{
			Name:       "Critical Thinking",
			Definition: "Critical evaluation, verification, and questioning of AI outputs.",
			Keywords:   []string{"critical", "thinking", "verification", "check", "evaluate"},
		},
		{
			Name:       "Creativity and Innovation",
			Definition: "Creative applications and innovative uses of AI.",
			Keywords:   []string{"creativity", "creative", "innovation", "ideas", "brainstorm"},
		},
	}
}
