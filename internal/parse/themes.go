package parse

import (
	"strings"

	"github.com/sells-group/reflect-cli/internal/model"
)

// Label alternates accepted by the theme block parser. The oracle is prompted
// in English but the source corpora are bilingual and models occasionally
// answer with the Dutch labels.
var (
	themeLabels      = []string{"THEME", "THEMA"}
	definitionLabels = []string{"DEFINITION", "DEFINITIE"}
	keywordLabels    = []string{"KEYWORDS", "KERNWOORDEN"}
)

// Themes parses a theme-generation reply into structured themes. Block
// boundaries are blank lines or a new theme label mid-stream; non-label lines
// longer than 20 characters continue the definition of the block in progress.
// Returns however many well-formed blocks it finds; the caller decides
// whether that is enough (see the generation pass fallback).
func Themes(text string) []model.Theme {
	var themes []model.Theme
	var current *model.Theme

	flush := func() {
		if current != nil && current.Name != "" {
			themes = append(themes, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = StripEmphasis(strings.TrimSpace(line))

		if line == "" {
			flush()
			continue
		}

		if name, ok := matchThemeStart(line); ok {
			flush()
			current = &model.Theme{Name: cleanThemeName(name)}
			continue
		}

		if current == nil {
			continue
		}

		if def, ok := matchAny(line, definitionLabels); ok {
			current.Definition = def
			continue
		}

		if kw, ok := matchAny(line, keywordLabels); ok {
			current.Keywords = SplitList(kw)
			continue
		}

		// Continuation line for a multi-line definition. Short fragments are
		// usually formatting noise, not definition text.
		if len(line) > 20 {
			if current.Definition != "" {
				current.Definition += " " + line
			} else {
				current.Definition = line
			}
		}
	}
	flush()

	return themes
}

// matchThemeStart detects a block-start line. Unlike plain field labels, the
// prompt layout puts the block number between the label and the colon
// ("THEME 3: name"), so this matches the label and the colon independently.
func matchThemeStart(line string) (string, bool) {
	upper := strings.ToUpper(line)
	for _, label := range themeLabels {
		if !strings.Contains(upper, label) {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return "", false
		}
		return strings.TrimSpace(line[idx+1:]), true
	}
	return "", false
}

// matchAny tries each label against the line and returns the first value.
func matchAny(line string, labels []string) (string, bool) {
	for _, label := range labels {
		if val, ok := LabelValue(line, label); ok {
			return val, true
		}
	}
	return "", false
}

// cleanThemeName strips the leading block number the prompt layout requires
// ("THEME 1: name" parses the value as "name", but some models echo
// "1. name").
func cleanThemeName(name string) string {
	return strings.TrimLeft(name, "0123456789. ")
}
