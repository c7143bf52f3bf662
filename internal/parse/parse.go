// Package parse extracts structured records from loosely-formatted oracle
// output. The oracle is instructed to answer in a labeled-line format but
// frequently deviates (markdown emphasis, preamble text, mixed casing), so
// every matcher here is deliberately permissive.
package parse

import (
	"regexp"
	"strings"
)

// leadingIntRe matches a leading integer optionally followed by '.', ':' or ')'.
var leadingIntRe = regexp.MustCompile(`^(\d+)[.:)]?\s*`)

// listPrefixes are the numbering/bullet markers stripped from list replies.
var listPrefixes = []string{
	"10.", "1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9.",
	"10)", "1)", "2)", "3)", "4)", "5)", "6)", "7)", "8)", "9)",
	"-", "*", "•",
}

// StripEmphasis removes markdown bold/italic markers from a line.
func StripEmphasis(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	return strings.ReplaceAll(line, "*", "")
}

// LabelValue matches "LABEL:" case-insensitively anywhere in the line, not
// just as a prefix, and returns the trimmed text after the colon.
func LabelValue(line, label string) (string, bool) {
	upper := strings.ToUpper(line)
	idx := strings.Index(upper, strings.ToUpper(label)+":")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(line[idx+len(label)+1:]), true
}

// HasLabel reports whether the line contains "LABEL:" case-insensitively.
func HasLabel(line, label string) bool {
	_, ok := LabelValue(line, label)
	return ok
}

// SplitList splits a comma-separated list, trimming, lower-casing, and
// discarding empty entries.
func SplitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// LeadingInt extracts a leading integer from s ("3. Critical Thinking" → 3).
func LeadingInt(s string) (int, bool) {
	m := leadingIntRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Fields extracts a single block of labeled values from oracle text. Keys of
// the returned map are the lower-cased labels; later occurrences of a label
// overwrite earlier ones.
func Fields(text string, labels []string) map[string]string {
	result := make(map[string]string, len(labels))
	for _, line := range strings.Split(text, "\n") {
		line = StripEmphasis(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		for _, label := range labels {
			if val, ok := LabelValue(line, label); ok {
				result[strings.ToLower(label)] = val
				break
			}
		}
	}
	return result
}

// NumberedList parses a numbered or bulleted list reply into at most max
// items, stripping numbering markers.
func NumberedList(text string, max int) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range listPrefixes {
			if strings.HasPrefix(line, prefix) {
				line = strings.TrimSpace(line[len(prefix):])
				break
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return items
}
