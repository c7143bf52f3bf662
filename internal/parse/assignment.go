package parse

import (
	"strings"

	"github.com/sells-group/reflect-cli/internal/model"
)

// Assignment resolves an assignment-pass reply to a theme name. Resolution
// order: leading integer mapped to the 1-based theme index (out-of-range
// integers fall through), then case-insensitive substring match of each
// theme name in list order, then the first theme as a last resort. The
// returned flag is true when the reply could not be resolved and the
// first-theme fallback was used.
//
// Defaulting to the first theme on an unparseable reply is a lossy policy
// kept for compatibility with earlier analyses; callers surface the flag in
// the assignment row so reviewers can re-code those items.
func Assignment(text string, themes []model.Theme) (string, bool) {
	if len(themes) == 0 {
		return model.UnassignedTheme, true
	}

	reply := strings.TrimSpace(text)

	if n, ok := LeadingInt(reply); ok && n >= 1 && n <= len(themes) {
		return themes[n-1].Name, false
	}

	lower := strings.ToLower(reply)
	for _, th := range themes {
		if th.Name != "" && strings.Contains(lower, strings.ToLower(th.Name)) {
			return th.Name, false
		}
	}

	return themes[0].Name, true
}
