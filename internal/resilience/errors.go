package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/reflect-cli/pkg/oracle"
)

// IsTransient reports whether an error is safe to retry. Oracle availability
// errors (rate limits, 5xx, missing credentials resolved out of band) are
// transient; oracle request errors (bad prompt, auth rejection) are not.
// Network-level failures below the SDK are also treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if oracle.IsRequestError(err) {
		return false
	}
	if oracle.IsUnavailable(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors the HTTP client wraps without types.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
