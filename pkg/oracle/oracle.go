// Package oracle provides a provider-independent contract for the LLM
// text-completion backend used by the analysis passes.
package oracle

import "context"

// Turn is a single prior conversational turn threaded into a request.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request describes one text-completion call.
type Request struct {
	Prompt      string
	System      string
	Temperature *float64 // nil = backend default
	MaxTokens   int64    // 0 = adapter default
	Turns       []Turn   // prior turns for stateful conversations
}

// Response is the backend's reply to a Request.
type Response struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Client is the oracle call contract. Implementations do not retry; retry
// policy belongs to the caller.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Temp returns a pointer to t, for Request.Temperature literals.
func Temp(t float64) *float64 {
	return &t
}
