package oracle

import (
	"context"
	"time"
)

// CallRecord captures one oracle call, success or failure, for the audit
// trail. Either ResponseText or Error is set, never both.
type CallRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model,omitempty"`
	Prompt       string    `json:"prompt"`
	System       string    `json:"system_prompt,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	MaxTokens    int64     `json:"max_tokens,omitempty"`
	ResponseText string    `json:"response,omitempty"`
	Error        string    `json:"error,omitempty"`
	InputTokens  int64     `json:"input_tokens,omitempty"`
	OutputTokens int64     `json:"output_tokens,omitempty"`
}

// CallLog receives a record for every oracle call. Implementations must be
// safe for concurrent use; the assignment pass appends from multiple workers.
type CallLog interface {
	Append(rec CallRecord)
}

// audited wraps a Client and records every call to a CallLog.
type audited struct {
	inner Client
	log   CallLog
}

// Audited returns a Client that forwards to inner and appends a CallRecord
// for every call. A nil log returns inner unchanged.
func Audited(inner Client, log CallLog) Client {
	if log == nil {
		return inner
	}
	return &audited{inner: inner, log: log}
}

func (a *audited) Generate(ctx context.Context, req Request) (*Response, error) {
	rec := CallRecord{
		Timestamp:   time.Now().UTC(),
		Prompt:      req.Prompt,
		System:      req.System,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := a.inner.Generate(ctx, req)
	if err != nil {
		rec.Error = err.Error()
		a.log.Append(rec)
		return nil, err
	}

	rec.Model = resp.Model
	rec.ResponseText = resp.Text
	rec.InputTokens = resp.Usage.InputTokens
	rec.OutputTokens = resp.Usage.OutputTokens
	a.log.Append(rec)
	return resp, nil
}
