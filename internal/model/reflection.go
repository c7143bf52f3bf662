package model

// Reflection is a single student reflection as loaded from the input source.
// Immutable once ingested; the analysis passes treat it as read-only.
type Reflection struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Source   string            `json:"source,omitempty"`
	Index    int               `json:"index,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Preview returns the first n characters of the reflection text, appending an
// ellipsis when the text was truncated.
func (r Reflection) Preview(n int) string {
	if len(r.Text) <= n {
		return r.Text
	}
	return r.Text[:n] + "..."
}
