// Package audit records a transparency trail for an analysis session: which
// steps ran, every oracle call made, the exact configuration used, and any
// errors along the way. Researchers reviewing AI-assisted coding need the
// full trail, so failures are recorded with the same fidelity as successes.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// Step statuses.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// promptLogLimit truncates prompts and responses in the human-readable
// prompts log. The JSON audit log keeps the full text.
const promptLogLimit = 1000

// Step is one analysis step in the session trail.
type Step struct {
	Number       int        `json:"step_number"`
	Name         string     `json:"step_name"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationSecs float64    `json:"duration_seconds,omitempty"`
	ResultsPath  string     `json:"results_path,omitempty"`
	ItemsDone    int        `json:"num_items_processed,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// ErrorEntry records a processing error with its step and context.
type ErrorEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	StepNumber int       `json:"step_number"`
	Error      string    `json:"error"`
	Context    string    `json:"context,omitempty"`
}

// Trail accumulates the session audit data. All methods are safe for
// concurrent use; assignment workers append call records in parallel.
type Trail struct {
	mu        sync.Mutex
	sessionID string
	startTime time.Time
	cfg       *config.Config
	steps     []*Step
	errors    []ErrorEntry
	calls     []oracle.CallRecord
}

var _ oracle.CallLog = (*Trail)(nil)

// NewTrail starts a session trail. The config is snapshotted at finalize time
// so the exact settings behind a result set are preserved.
func NewTrail(cfg *config.Config) *Trail {
	now := time.Now()
	return &Trail{
		sessionID: now.Format("20060102_150405") + "_" + uuid.NewString()[:8],
		startTime: now,
		cfg:       cfg,
	}
}

// SessionID returns the session identifier used in artifact file names.
func (t *Trail) SessionID() string {
	return t.sessionID
}

// StepStart records the start of an analysis step.
func (t *Trail) StepStart(number int, name, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.steps = append(t.steps, &Step{
		Number:      number,
		Name:        name,
		Description: description,
		Status:      StatusStarted,
		StartTime:   time.Now(),
	})

	zap.L().Info("audit: step started",
		zap.Int("step", number),
		zap.String("name", name),
	)
}

// StepComplete marks a step completed with its result location and item count.
func (t *Trail) StepComplete(number int, resultsPath string, items int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	step := t.step(number)
	if step == nil {
		return
	}
	now := time.Now()
	step.EndTime = &now
	step.Status = StatusCompleted
	step.ResultsPath = resultsPath
	step.ItemsDone = items
	step.DurationSecs = now.Sub(step.StartTime).Seconds()

	zap.L().Info("audit: step completed",
		zap.Int("step", number),
		zap.Int("items", items),
		zap.Float64("duration_seconds", step.DurationSecs),
	)
}

// StepError records a processing error and marks the step failed.
func (t *Trail) StepError(number int, err error, context string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.errors = append(t.errors, ErrorEntry{
		Timestamp:  time.Now(),
		StepNumber: number,
		Error:      err.Error(),
		Context:    context,
	})
	if step := t.step(number); step != nil {
		step.Status = StatusError
		step.Error = err.Error()
	}

	zap.L().Error("audit: step error",
		zap.Int("step", number),
		zap.String("context", context),
		zap.Error(err),
	)
}

// Append records an oracle call. Implements oracle.CallLog.
func (t *Trail) Append(rec oracle.CallRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, rec)
}

// Calls returns a copy of the recorded oracle calls.
func (t *Trail) Calls() []oracle.CallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]oracle.CallRecord, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns the number of oracle calls recorded so far.
func (t *Trail) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// sessionLog is the serialized shape of the full audit log.
type sessionLog struct {
	SessionID         string              `json:"session_id"`
	StartTime         time.Time           `json:"start_time"`
	EndTime           time.Time           `json:"end_time"`
	TotalDurationSecs float64             `json:"total_duration_seconds"`
	Steps             []*Step             `json:"steps"`
	Errors            []ErrorEntry        `json:"errors"`
	TotalOracleCalls  int                 `json:"total_oracle_calls"`
	OracleCalls       []oracle.CallRecord `json:"oracle_calls"`
}

// Finalize writes the audit artifacts into dir: the full JSON log, a
// human-readable prompts log, the YAML config snapshot, and a summary report.
func (t *Trail) Finalize(dir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "audit: create dir")
	}

	end := time.Now()
	log := sessionLog{
		SessionID:         t.sessionID,
		StartTime:         t.startTime,
		EndTime:           end,
		TotalDurationSecs: end.Sub(t.startTime).Seconds(),
		Steps:             t.steps,
		Errors:            t.errors,
		TotalOracleCalls:  len(t.calls),
		OracleCalls:       t.calls,
	}

	if err := t.writeJSON(dir, "audit_log", log); err != nil {
		return err
	}
	if err := t.writePromptsLog(dir); err != nil {
		return err
	}
	if err := t.writeConfigSnapshot(dir); err != nil {
		return err
	}
	if err := t.writeSummaryReport(dir, log); err != nil {
		return err
	}

	zap.L().Info("audit: trail finalized",
		zap.String("session_id", t.sessionID),
		zap.String("dir", dir),
		zap.Int("oracle_calls", len(t.calls)),
		zap.Float64("duration_seconds", log.TotalDurationSecs),
	)
	return nil
}

func (t *Trail) step(number int) *Step {
	for _, s := range t.steps {
		if s.Number == number {
			return s
		}
	}
	return nil
}

func (t *Trail) path(dir, stem, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", stem, t.sessionID, ext))
}

func (t *Trail) writeJSON(dir, stem string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "audit: marshal %s", stem)
	}
	if err := os.WriteFile(t.path(dir, stem, "json"), data, 0o644); err != nil {
		return eris.Wrapf(err, "audit: write %s", stem)
	}
	return nil
}

func (t *Trail) writeConfigSnapshot(dir string) error {
	if t.cfg == nil {
		return nil
	}
	snapshot := *t.cfg
	snapshot.LLM.Anthropic.Key = "" // never persist credentials

	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return eris.Wrap(err, "audit: marshal config snapshot")
	}
	if err := os.WriteFile(t.path(dir, "config_snapshot", "yaml"), data, 0o644); err != nil {
		return eris.Wrap(err, "audit: write config snapshot")
	}
	return nil
}

func (t *Trail) writePromptsLog(dir string) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	b.WriteString(rule + "\n")
	b.WriteString("PROMPTS LOG\n")
	fmt.Fprintf(&b, "Session: %s\n", t.sessionID)
	b.WriteString(rule + "\n")

	for i, call := range t.calls {
		fmt.Fprintf(&b, "\n%s\nCALL #%d\n", rule, i+1)
		fmt.Fprintf(&b, "Timestamp: %s\n", call.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "Model: %s\n", call.Model)
		if call.Temperature != nil {
			fmt.Fprintf(&b, "Temperature: %.2f\n", *call.Temperature)
		}
		b.WriteString(rule + "\n\n")

		if call.System != "" {
			b.WriteString("SYSTEM PROMPT:\n" + thin + "\n")
			b.WriteString(call.System + "\n\n")
		}

		b.WriteString("USER PROMPT:\n" + thin + "\n")
		b.WriteString(truncate(call.Prompt, promptLogLimit) + "\n\n")

		if call.Error != "" {
			fmt.Fprintf(&b, "ERROR: %s\n\n", call.Error)
		} else {
			b.WriteString("RESPONSE:\n" + thin + "\n")
			b.WriteString(truncate(call.ResponseText, promptLogLimit) + "\n\n")
		}
	}

	if err := os.WriteFile(t.path(dir, "prompts", "txt"), []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "audit: write prompts log")
	}
	return nil
}

func (t *Trail) writeSummaryReport(dir string, log sessionLog) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	b.WriteString(rule + "\nQUALITATIVE ANALYSIS - AUDIT REPORT\n" + rule + "\n\n")
	fmt.Fprintf(&b, "Session ID: %s\n", log.SessionID)
	fmt.Fprintf(&b, "Start: %s\n", log.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "End: %s\n", log.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total duration: %.1f seconds\n\n", log.TotalDurationSecs)

	if t.cfg != nil {
		b.WriteString(thin + "\nCONFIGURATION\n" + thin + "\n")
		fmt.Fprintf(&b, "Provider: %s\n", t.cfg.LLM.Provider)
		fmt.Fprintf(&b, "Model: %s\n", t.cfg.LLM.Anthropic.Model)
		fmt.Fprintf(&b, "Input format: %s\n", t.cfg.Input.Format)
		fmt.Fprintf(&b, "Input path: %s\n\n", t.cfg.Input.Path)
	}

	b.WriteString(thin + "\nANALYSIS STEPS\n" + thin + "\n\n")
	for _, step := range log.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", step.Number, step.Name)
		fmt.Fprintf(&b, "  Status: %s\n", step.Status)
		if step.EndTime != nil {
			fmt.Fprintf(&b, "  Duration: %.1fs\n", step.DurationSecs)
		}
		if step.ItemsDone > 0 {
			fmt.Fprintf(&b, "  Items processed: %d\n", step.ItemsDone)
		}
		if step.ResultsPath != "" {
			fmt.Fprintf(&b, "  Results: %s\n", step.ResultsPath)
		}
		if step.Status == StatusError {
			fmt.Fprintf(&b, "  ERROR: %s\n", step.Error)
		}
		b.WriteString("\n")
	}

	if len(log.Errors) > 0 {
		b.WriteString(thin + "\nERRORS\n" + thin + "\n\n")
		for _, e := range log.Errors {
			fmt.Fprintf(&b, "[%s] Step %d\n  %s\n", e.Timestamp.Format(time.RFC3339), e.StepNumber, e.Error)
			if e.Context != "" {
				fmt.Fprintf(&b, "  Context: %s\n", e.Context)
			}
			b.WriteString("\n")
		}
	}

	completed := 0
	for _, step := range log.Steps {
		if step.Status == StatusCompleted {
			completed++
		}
	}
	b.WriteString(thin + "\nSTATISTICS\n" + thin + "\n")
	fmt.Fprintf(&b, "Total oracle calls: %d\n", log.TotalOracleCalls)
	fmt.Fprintf(&b, "Successful steps: %d\n", completed)
	fmt.Fprintf(&b, "Errors: %d\n\n", len(log.Errors))
	b.WriteString(rule + "\nEnd of report\n" + rule + "\n")

	if err := os.WriteFile(t.path(dir, "summary_report", "txt"), []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "audit: write summary report")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
