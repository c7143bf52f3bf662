package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reflect-cli/internal/model"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

const threeThemesReply = `THEME 1: Critical Thinking
DEFINITION: Students question and verify AI output before trusting it.
KEYWORDS: verification, skepticism, checking

THEME 2: Efficiency Gains
DEFINITION: Reflections on saving time with AI assistance.
KEYWORDS: speed, productivity, time

THEME 3: Ethics and Trust
DEFINITION: Concerns about responsible and honest use of AI.
KEYWORDS: ethics, honesty, trust`

func reflections(n int) []model.Reflection {
	items := make([]model.Reflection, n)
	for i := range items {
		items[i] = model.Reflection{
			ID:    fmt.Sprintf("R%03d", i+1),
			Text:  fmt.Sprintf("item-%d reflection text about generative AI", i+1),
			Index: i + 1,
		}
	}
	return items
}

func TestGenerateThemes_ParsesReply(t *testing.T) {
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		return textResponse(threeThemesReply), nil
	}}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	themes, err := c.GenerateThemes(context.Background(), reflections(5))
	require.NoError(t, err)
	require.Len(t, themes, 3)
	assert.Equal(t, "Critical Thinking", themes[0].Name)
	assert.Equal(t, "Ethics and Trust", themes[2].Name)
	assert.Equal(t, []string{"speed", "productivity", "time"}, themes[1].Keywords)

	// One call, carrying every sampled reflection.
	require.Equal(t, 1, client.callCount())
	prompt := client.calls[0].Prompt
	assert.Contains(t, prompt, "Reflection 1: item-1")
	assert.Contains(t, prompt, "Reflection 5: item-5")
	assert.Equal(t, themeGenSystem, client.calls[0].System)
}

func TestGenerateThemes_SampleCapAndTruncation(t *testing.T) {
	cfg := testAnalysisConfig()
	cfg.ThemeSampleSize = 2
	cfg.ThemeTextLimit = 10

	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		return textResponse(threeThemesReply), nil
	}}
	c := NewClusterer(NewCaller(client, cfg), cfg, nil)

	_, err := c.GenerateThemes(context.Background(), reflections(5))
	require.NoError(t, err)

	prompt := client.calls[0].Prompt
	assert.Contains(t, prompt, "Reflection 1: item-1 ref")
	assert.Contains(t, prompt, "Reflection 2: item-2 ref")
	assert.NotContains(t, prompt, "Reflection 3")
	// Each sampled text is cut at the limit.
	assert.NotContains(t, prompt, "item-1 reflection")
}

func TestGenerateThemes_FallbackWhenTooFewParsed(t *testing.T) {
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		return textResponse("I could not find clear themes, sorry."), nil
	}}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	themes, err := c.GenerateThemes(context.Background(), reflections(5))
	require.NoError(t, err)
	require.Len(t, themes, 5)

	names := make([]string, len(themes))
	for i, th := range themes {
		names[i] = th.Name
	}
	assert.Equal(t, []string{
		"Learning and Education",
		"Ethics and Responsibility",
		"Efficiency and Productivity",
		"Critical Thinking",
		"Creativity and Innovation",
	}, names)
	assert.NotEmpty(t, themes[0].Definition)
	assert.NotEmpty(t, themes[0].Keywords)
}

func TestGenerateThemes_CallErrorAborts(t *testing.T) {
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		return nil, &oracle.RequestError{Err: eris.New("bad request")}
	}}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	_, err := c.GenerateThemes(context.Background(), reflections(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme generation call")
}

// assignReply extracts the item number from the reflection text inside an
// assignment prompt and cycles it across the theme list.
func assignReply(themes []model.Theme) func(req oracle.Request) (*oracle.Response, error) {
	re := regexp.MustCompile(`item-(\d+) `)
	return func(req oracle.Request) (*oracle.Response, error) {
		m := re.FindStringSubmatch(req.Prompt)
		if m == nil {
			return textResponse(threeThemesReply), nil
		}
		n, _ := strconv.Atoi(m[1])
		k := (n - 1) % len(themes)
		return textResponse(fmt.Sprintf("%d. %s", k+1, themes[k].Name)), nil
	}
}

func TestAssignThemes_PreservesInputOrderUnderConcurrency(t *testing.T) {
	themes := []model.Theme{
		{Name: "Critical Thinking", Definition: "d1"},
		{Name: "Efficiency Gains", Definition: "d2"},
		{Name: "Ethics and Trust", Definition: "d3"},
	}
	client := &scriptedOracle{reply: assignReply(themes)}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	items := reflections(12)
	assignments := c.AssignThemes(context.Background(), items, themes)
	require.Len(t, assignments, 12)

	for i, a := range assignments {
		assert.Equal(t, items[i].ID, a.ReflectionID, "row %d", i)
		assert.Equal(t, themes[i%3].Name, a.ThemeName, "row %d", i)
		assert.False(t, a.LowConfidence, "row %d", i)
		assert.Empty(t, a.Error, "row %d", i)
	}
}

func TestAssignThemes_FailedCallYieldsErrorRow(t *testing.T) {
	themes := []model.Theme{{Name: "Only Theme", Definition: "d"}}
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		if strings.Contains(req.Prompt, "item-2 ") {
			return nil, &oracle.RequestError{Err: eris.New("rejected")}
		}
		return textResponse("1. Only Theme"), nil
	}}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	assignments := c.AssignThemes(context.Background(), reflections(3), themes)
	require.Len(t, assignments, 3)

	assert.Equal(t, "Only Theme", assignments[0].ThemeName)
	assert.Equal(t, model.ErrorSentinel, assignments[1].ThemeName)
	assert.Contains(t, assignments[1].Error, "rejected")
	// The failure does not abort the rest of the pass.
	assert.Equal(t, "Only Theme", assignments[2].ThemeName)
}

func TestAssignThemes_UnparseableReplyFlaggedLowConfidence(t *testing.T) {
	themes := []model.Theme{
		{Name: "Alpha", Definition: "d"},
		{Name: "Beta", Definition: "d"},
	}
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		return textResponse("I cannot decide."), nil
	}}
	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), nil)

	assignments := c.AssignThemes(context.Background(), reflections(1), themes)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Alpha", assignments[0].ThemeName)
	assert.True(t, assignments[0].LowConfidence)
}

func TestCluster_EndToEnd(t *testing.T) {
	themeNames := []string{"Critical Thinking", "Efficiency Gains", "Ethics and Trust"}
	re := regexp.MustCompile(`item-(\d+) `)
	client := &scriptedOracle{reply: func(req oracle.Request) (*oracle.Response, error) {
		if strings.Contains(req.Prompt, "identify 3 main themes") {
			return textResponse(threeThemesReply), nil
		}
		m := re.FindStringSubmatch(req.Prompt)
		n, _ := strconv.Atoi(m[1])
		k := (n - 1) % 3
		return textResponse(fmt.Sprintf("%d. %s", k+1, themeNames[k])), nil
	}}

	c := NewClusterer(newTestCaller(client), testAnalysisConfig(), oracle.Temp(0.7))
	result, err := c.Cluster(context.Background(), reflections(12))
	require.NoError(t, err)

	require.Len(t, result.Themes, 3)
	require.Len(t, result.Assignments, 12)
	require.Len(t, result.Frequency, 3)

	total := 0
	for _, f := range result.Frequency {
		assert.Equal(t, 4, f.Count, f.Theme)
		assert.InDelta(t, 33.3, f.Percentage, 0.01, f.Theme)
		total += f.Count
	}
	assert.Equal(t, len(result.Assignments), total)

	assert.Contains(t, result.Summary, "Total reflections analyzed: 12")
	assert.Contains(t, result.Summary, "THEME 1: Critical Thinking")
	assert.Contains(t, result.Summary, "Reflections assigned: 4 (33.3%)")

	// 1 theme generation call + 12 assignment calls.
	assert.Equal(t, 13, client.callCount())
}
