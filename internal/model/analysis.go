package model

// ErrorSentinel replaces the primary value field of a row whose per-item
// processing failed. Downstream consumers must never parse it as real data;
// the row's Error field carries the original message.
const ErrorSentinel = "ERROR"

// Sentiment categories. The parser normalizes oracle replies (including the
// Dutch variants the source material sometimes produces) into these three.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// KeywordRow is the per-reflection output of the keyword extraction pass.
type KeywordRow struct {
	ReflectionID string   `json:"id"`
	TextPreview  string   `json:"text_preview"`
	Keywords     []string `json:"keywords"`
	Error        string   `json:"error,omitempty"`
}

// SentimentRow is the per-reflection output of the two-dimensional sentiment
// pass: attitude toward AI technology and attitude toward the assignment.
type SentimentRow struct {
	ReflectionID    string `json:"id"`
	TextPreview     string `json:"text_preview"`
	AISentiment     string `json:"ai_sentiment"`
	AIExplanation   string `json:"ai_explanation"`
	TaskSentiment   string `json:"assignment_sentiment"`
	TaskExplanation string `json:"assignment_explanation"`
	Error           string `json:"error,omitempty"`
}

// MemoRow is the per-reflection output of the analytic memo pass.
type MemoRow struct {
	ReflectionID   string   `json:"id"`
	TextPreview    string   `json:"text_preview"`
	Memo           string   `json:"memo"`
	KeyInsight     string   `json:"key_insight"`
	LearningPoints []string `json:"learning_points,omitempty"`
	Error          string   `json:"error,omitempty"`
}
