package model

// UnassignedTheme is the sentinel theme name recorded when an assignment is
// made against an empty theme list. The theme generation pass guarantees a
// non-empty list, so this only appears if a caller bypasses that pass.
const UnassignedTheme = "Unknown"

// Theme is a named cluster label produced by the theme generation pass.
// Immutable after creation within a clustering run. Theme order is generation
// order and doubles as the 1-based index used in assignment prompts.
type Theme struct {
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Keywords   []string `json:"keywords"`
}

// ThemeAssignment binds one reflection to exactly one theme. Created once per
// reflection by the assignment pass; append-only afterward.
type ThemeAssignment struct {
	ReflectionID string `json:"id"`
	TextPreview  string `json:"text_preview"`
	ThemeName    string `json:"assigned_theme"`
	RawResponse  string `json:"llm_response"`

	// LowConfidence marks assignments that fell back to the first theme
	// because the oracle reply could not be parsed.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// Error preserves the failure message for rows whose oracle call failed
	// after retries. ThemeName holds ErrorSentinel for such rows.
	Error string `json:"error,omitempty"`
}

// FrequencyEntry is one row of the theme frequency table, derived from the
// assignment collection.
type FrequencyEntry struct {
	Theme      string  `json:"theme"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ClusterResult holds the full output of a two-pass clustering run.
type ClusterResult struct {
	Themes      []Theme           `json:"themes"`
	Assignments []ThemeAssignment `json:"assignments"`
	Frequency   []FrequencyEntry  `json:"frequency_table"`
	Summary     string            `json:"summary"`
}
