package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/reflect-cli/internal/model"
)

func sampleRuns() []model.Run {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []model.Run{
		{
			ID:        "11111111-2222-3333-4444-555555555555",
			InputPath: "data/reflections.txt",
			Status:    model.RunStatusCompleted,
			Result: &model.RunResult{
				Items:         42,
				Themes:        []string{"Critical Thinking", "Efficiency Gains"},
				EstimatedCost: 0.02,
			},
			CreatedAt: base,
			UpdatedAt: base.Add(90 * time.Second),
		},
		{
			ID:        "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
			InputPath: "data/very/long/nested/path/to/reflections_spring_2026.csv",
			Status:    model.RunStatusFailed,
			CreatedAt: base.Add(time.Hour),
			UpdatedAt: base.Add(time.Hour),
		},
		{
			ID:        "99999999-8888-7777-6666-555555555555",
			InputPath: "data/other.json",
			Status:    model.RunStatusQueued,
			CreatedAt: base.Add(2 * time.Hour),
			UpdatedAt: base.Add(2 * time.Hour),
		},
	}
}

func TestComputeRunStats(t *testing.T) {
	s := computeRunStats(sampleRuns())

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 42, s.Items)
	assert.InDelta(t, 0.02, s.TotalCost, 0.0001)
	assert.InDelta(t, 90.0, s.AvgDurSecs, 0.01)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.AvgDurSecs)
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, sampleRuns())
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "11111111")
	assert.Contains(t, out, "data/reflections.txt")
	assert.Contains(t, out, "completed")
	// Long input paths are truncated for the table.
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "reflections_spring_2026.csv")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total:      5,
		Completed:  4,
		Failed:     1,
		Items:      120,
		TotalCost:  0.31,
		AvgDurSecs: 63.2,
	})
	out := buf.String()

	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "Reflections analyzed:")
	assert.Contains(t, out, "$0.3100")
	assert.Contains(t, out, "63.2s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "11111111", truncateID("11111111-2222-3333"))
	assert.Equal(t, "short", truncateID("short"))
}
