package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/resilience"
	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// Caller funnels all pipeline oracle traffic through one rate limiter, one
// retry policy, and one circuit breaker. The analysis passes share a single
// Caller so a provider outage trips one breaker for the whole run.
type Caller struct {
	client  oracle.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewCaller wraps client with the run's rate limit and retry settings.
func NewCaller(client oracle.Client, cfg config.AnalysisConfig) *Caller {
	perSec := cfg.OracleRatePerSec
	if perSec <= 0 {
		perSec = 5
	}

	retryCfg := resilience.WithAttempts(cfg.RetryMaxAttempts)
	retryCfg.OnRetry = resilience.RetryLogger("generate")

	return &Caller{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}),
		retry:   retryCfg,
		timeout: time.Duration(cfg.CallTimeoutSecs) * time.Second,
	}
}

// Generate issues one oracle request. The rate limiter gates each attempt,
// including retries; an open breaker fails fast without consuming attempts.
// The per-call timeout bounds each attempt, not the retry loop as a whole.
func (c *Caller) Generate(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*oracle.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*oracle.Response, error) {
			if c.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}
			return c.client.Generate(ctx, req)
		})
	})
}
