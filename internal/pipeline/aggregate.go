package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/reflect-cli/internal/model"
)

// BuildFrequencyTable derives the theme frequency table from the assignment
// collection. Every generated theme appears even at count zero. When ERROR
// rows exist they get their own entry, so the counts always sum to the number
// of assignments. Entries sort by count descending; ties keep theme
// generation order, with the ERROR entry last.
func BuildFrequencyTable(assignments []model.ThemeAssignment, themes []model.Theme) []model.FrequencyEntry {
	counts := make(map[string]int, len(themes))
	errRows := 0
	for _, a := range assignments {
		if a.ThemeName == model.ErrorSentinel {
			errRows++
			continue
		}
		counts[a.ThemeName]++
	}

	total := len(assignments)
	entries := make([]model.FrequencyEntry, 0, len(themes)+1)
	for _, th := range themes {
		entries = append(entries, model.FrequencyEntry{
			Theme:      th.Name,
			Count:      counts[th.Name],
			Percentage: percent(counts[th.Name], total),
		})
	}
	if errRows > 0 {
		entries = append(entries, model.FrequencyEntry{
			Theme:      model.ErrorSentinel,
			Count:      errRows,
			Percentage: percent(errRows, total),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// ClusterSummary renders the human-readable clustering report: totals, then
// one block per theme with its definition, frequency, keywords, and an
// example reflection.
func ClusterSummary(themes []model.Theme, frequency []model.FrequencyEntry, reflections []model.Reflection, assignments []model.ThemeAssignment) string {
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)

	var b strings.Builder
	b.WriteString("Thematic Clustering Results\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Total reflections analyzed: %d\n", len(reflections))
	fmt.Fprintf(&b, "Number of themes identified: %d\n", len(themes))
	b.WriteString("Method: Two-pass LLM clustering\n\n")
	b.WriteString(rule + "\n\n")

	freqByTheme := make(map[string]model.FrequencyEntry, len(frequency))
	for _, f := range frequency {
		freqByTheme[f.Theme] = f
	}

	for i, th := range themes {
		f := freqByTheme[th.Name]

		fmt.Fprintf(&b, "THEME %d: %s\n", i+1, th.Name)
		fmt.Fprintf(&b, "Definition: %s\n", th.Definition)
		fmt.Fprintf(&b, "Reflections assigned: %d (%.1f%%)\n", f.Count, f.Percentage)

		keywords := th.Keywords
		if len(keywords) > 10 {
			keywords = keywords[:10]
		}
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(keywords, ", "))

		for _, a := range assignments {
			if a.ThemeName == th.Name {
				fmt.Fprintf(&b, "Example: %q\n", a.TextPreview)
				break
			}
		}
		b.WriteString(thin + "\n\n")
	}
	return b.String()
}

// KeywordFrequency counts keyword occurrences across all extraction rows.
// ERROR rows contribute nothing. Ordering is count descending, then keyword
// ascending so output is deterministic.
func KeywordFrequency(rows []model.KeywordRow) []model.FrequencyEntry {
	counts := make(map[string]int)
	total := 0
	for _, row := range rows {
		if row.Error != "" {
			continue
		}
		for _, kw := range row.Keywords {
			counts[kw]++
			total++
		}
	}
	return sortedEntries(counts, total)
}

// SentimentDistribution tallies sentiment categories per dimension. Keys are
// "ai_technology" and "assignment"; ERROR rows count under the ERROR label.
func SentimentDistribution(rows []model.SentimentRow) map[string][]model.FrequencyEntry {
	ai := make(map[string]int)
	task := make(map[string]int)
	for _, row := range rows {
		if row.Error != "" {
			ai[model.ErrorSentinel]++
			task[model.ErrorSentinel]++
			continue
		}
		ai[row.AISentiment]++
		task[row.TaskSentiment]++
	}
	return map[string][]model.FrequencyEntry{
		"ai_technology": sortedEntries(ai, len(rows)),
		"assignment":    sortedEntries(task, len(rows)),
	}
}

// CommonLearningPatterns surfaces the most frequent substantive words across
// memos, a cheap proxy for recurring learning patterns. Words of four
// characters or fewer are skipped.
func CommonLearningPatterns(rows []model.MemoRow, topN int) []model.FrequencyEntry {
	counts := make(map[string]int)
	total := 0
	for _, row := range rows {
		if row.Error != "" || row.Memo == "" {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(row.Memo)) {
			word = strings.Trim(word, ".,!?;:\"'()")
			if len(word) <= 4 {
				continue
			}
			counts[word]++
			total++
		}
	}

	entries := sortedEntries(counts, total)
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

func sortedEntries(counts map[string]int, total int) []model.FrequencyEntry {
	entries := make([]model.FrequencyEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, model.FrequencyEntry{
			Theme:      label,
			Count:      count,
			Percentage: percent(count, total),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Theme < entries[j].Theme
	})
	return entries
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
