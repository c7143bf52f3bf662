package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// MockOracle is a testify mock for expectation-driven tests.
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Generate(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*oracle.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

// scriptedOracle answers from a reply function; used where the reply depends
// on prompt content (assignment cycling, per-item failures).
type scriptedOracle struct {
	mu    sync.Mutex
	reply func(req oracle.Request) (*oracle.Response, error)
	calls []oracle.Request
}

func (s *scriptedOracle) Generate(_ context.Context, req oracle.Request) (*oracle.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.reply(req)
}

func (s *scriptedOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func textResponse(text string) *oracle.Response {
	return &oracle.Response{
		Text:  text,
		Model: "test-model",
		Usage: oracle.TokenUsage{InputTokens: 10, OutputTokens: 5},
	}
}

// testAnalysisConfig returns analysis settings tuned for tests: a rate limit
// high enough to never block and no retry sleeps worth noticing.
func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		TargetThemes:      3,
		MinParsedThemes:   3,
		ThemeSampleSize:   100,
		ThemeTextLimit:    500,
		KeywordsPerItem:   5,
		MemoSentences:     3,
		AssignConcurrency: 4,
		OracleRatePerSec:  10000,
		RetryMaxAttempts:  1,
	}
}

func newTestCaller(client oracle.Client) *Caller {
	return NewCaller(client, testAnalysisConfig())
}
