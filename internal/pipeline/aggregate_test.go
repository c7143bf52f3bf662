package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reflect-cli/internal/model"
)

func assigned(theme string, n int) []model.ThemeAssignment {
	rows := make([]model.ThemeAssignment, n)
	for i := range rows {
		rows[i] = model.ThemeAssignment{ReflectionID: "R", ThemeName: theme}
	}
	return rows
}

func TestBuildFrequencyTable_CountsAndSort(t *testing.T) {
	themes := []model.Theme{
		{Name: "Alpha"},
		{Name: "Beta"},
		{Name: "Gamma"},
	}
	var assignments []model.ThemeAssignment
	assignments = append(assignments, assigned("Beta", 3)...)
	assignments = append(assignments, assigned("Alpha", 1)...)

	entries := BuildFrequencyTable(assignments, themes)
	require.Len(t, entries, 3)

	assert.Equal(t, model.FrequencyEntry{Theme: "Beta", Count: 3, Percentage: 75.0}, entries[0])
	assert.Equal(t, model.FrequencyEntry{Theme: "Alpha", Count: 1, Percentage: 25.0}, entries[1])
	// Zero-count themes still appear.
	assert.Equal(t, model.FrequencyEntry{Theme: "Gamma", Count: 0, Percentage: 0}, entries[2])
}

func TestBuildFrequencyTable_TiesKeepThemeOrder(t *testing.T) {
	themes := []model.Theme{{Name: "First"}, {Name: "Second"}}
	var assignments []model.ThemeAssignment
	assignments = append(assignments, assigned("Second", 2)...)
	assignments = append(assignments, assigned("First", 2)...)

	entries := BuildFrequencyTable(assignments, themes)
	assert.Equal(t, "First", entries[0].Theme)
	assert.Equal(t, "Second", entries[1].Theme)
}

func TestBuildFrequencyTable_ErrorRowsGetOwnEntry(t *testing.T) {
	themes := []model.Theme{{Name: "Alpha"}}
	assignments := assigned("Alpha", 2)
	assignments = append(assignments, model.ThemeAssignment{
		ReflectionID: "R003",
		ThemeName:    model.ErrorSentinel,
		Error:        "oracle unavailable",
	})

	entries := BuildFrequencyTable(assignments, themes)
	require.Len(t, entries, 2)

	total := 0
	for _, e := range entries {
		total += e.Count
	}
	// Counts always sum to the number of assignments.
	assert.Equal(t, len(assignments), total)

	assert.Equal(t, model.ErrorSentinel, entries[1].Theme)
	assert.Equal(t, 1, entries[1].Count)
	assert.InDelta(t, 33.3, entries[1].Percentage, 0.01)
}

func TestBuildFrequencyTable_Empty(t *testing.T) {
	entries := BuildFrequencyTable(nil, []model.Theme{{Name: "Alpha"}})
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Count)
	assert.Equal(t, 0.0, entries[0].Percentage)
}

func TestClusterSummary_Layout(t *testing.T) {
	themes := []model.Theme{
		{Name: "Alpha", Definition: "About alpha.", Keywords: []string{"a", "b"}},
	}
	assignments := []model.ThemeAssignment{
		{ReflectionID: "R001", TextPreview: "an alpha example...", ThemeName: "Alpha"},
	}
	frequency := BuildFrequencyTable(assignments, themes)

	summary := ClusterSummary(themes, frequency, reflections(1), assignments)
	assert.Contains(t, summary, "Thematic Clustering Results")
	assert.Contains(t, summary, "Total reflections analyzed: 1")
	assert.Contains(t, summary, "Number of themes identified: 1")
	assert.Contains(t, summary, "Method: Two-pass LLM clustering")
	assert.Contains(t, summary, "THEME 1: Alpha")
	assert.Contains(t, summary, "Definition: About alpha.")
	assert.Contains(t, summary, "Reflections assigned: 1 (100.0%)")
	assert.Contains(t, summary, "Keywords: a, b")
	assert.Contains(t, summary, `Example: "an alpha example..."`)
}

func TestKeywordFrequency(t *testing.T) {
	rows := []model.KeywordRow{
		{ReflectionID: "R001", Keywords: []string{"prompting", "verification"}},
		{ReflectionID: "R002", Keywords: []string{"prompting"}},
		{ReflectionID: "R003", Error: "oracle unavailable"},
	}

	entries := KeywordFrequency(rows)
	require.Len(t, entries, 2)
	assert.Equal(t, model.FrequencyEntry{Theme: "prompting", Count: 2, Percentage: 66.7}, entries[0])
	assert.Equal(t, "verification", entries[1].Theme)
}

func TestSentimentDistribution(t *testing.T) {
	rows := []model.SentimentRow{
		{ReflectionID: "R001", AISentiment: "positive", TaskSentiment: "neutral"},
		{ReflectionID: "R002", AISentiment: "positive", TaskSentiment: "negative"},
		{ReflectionID: "R003", AISentiment: "ERROR", TaskSentiment: "ERROR", Error: "down"},
	}

	dist := SentimentDistribution(rows)
	ai := dist["ai_technology"]
	require.Len(t, ai, 2)
	assert.Equal(t, model.FrequencyEntry{Theme: "positive", Count: 2, Percentage: 66.7}, ai[0])
	assert.Equal(t, model.ErrorSentinel, ai[1].Theme)

	task := dist["assignment"]
	require.Len(t, task, 3)
	for _, e := range task {
		assert.Equal(t, 1, e.Count)
	}
}

func TestCommonLearningPatterns(t *testing.T) {
	rows := []model.MemoRow{
		{ReflectionID: "R001", Memo: "Learned about verification. Verification matters!"},
		{ReflectionID: "R002", Memo: "Now does verification of all answers."},
		{ReflectionID: "R003", Memo: model.ErrorSentinel, Error: "down"},
	}

	entries := CommonLearningPatterns(rows, 10)
	require.NotEmpty(t, entries)
	// Punctuation is trimmed, short words dropped, top word first.
	assert.Equal(t, "verification", entries[0].Theme)
	assert.Equal(t, 3, entries[0].Count)
	for _, e := range entries {
		assert.Greater(t, len(e.Theme), 4)
	}
}

func TestCommonLearningPatterns_TopN(t *testing.T) {
	rows := []model.MemoRow{
		{Memo: "alpha1 bravo2 charlie delta3 echo45"},
	}
	entries := CommonLearningPatterns(rows, 2)
	assert.Len(t, entries, 2)
}
