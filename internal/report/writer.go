// Package report writes analysis artifacts: per-step CSVs, the clustering
// summary and JSON, and a combined XLSX workbook for researchers who review
// results in a spreadsheet.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/model"
)

// Artifact file names. Step numbering follows the analysis order so a
// directory listing reads like the run.
const (
	KeywordsFile         = "step1_keywords.csv"
	KeywordFrequencyFile = "step1_keyword_frequency.csv"
	SentimentFile        = "step2_sentiment.csv"
	SentimentDistFile    = "step2_sentiment_distribution.csv"
	MemosFile            = "step3_memos.csv"
	LearningPatternsFile = "step3_learning_patterns.csv"
	ClusteringDir        = "step4_clustering"
	ThemesFile           = "themes.csv"
	AssignmentsFile      = "theme_assignments.csv"
	FrequencyFile        = "theme_frequency.csv"
	SummaryFile          = "clustering_summary.txt"
	ClusteringJSONFile   = "clustering_full.json"
	WorkbookFile         = "analysis_workbook.xlsx"
)

// Writer writes artifacts under a single results directory.
type Writer struct {
	dir string
}

// NewWriter creates the results directory and returns a Writer rooted there.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "report: create results dir")
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the results directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteKeywords writes the per-reflection keyword rows.
func (w *Writer) WriteKeywords(rows []model.KeywordRow) (string, error) {
	records := [][]string{{"id", "text", "keywords", "num_keywords", "error"}}
	for _, r := range rows {
		kw := strings.Join(r.Keywords, ", ")
		if r.Error != "" {
			kw = model.ErrorSentinel
		}
		records = append(records, []string{
			r.ReflectionID, r.TextPreview, kw, strconv.Itoa(len(r.Keywords)), r.Error,
		})
	}
	return w.writeCSV(KeywordsFile, records)
}

// WriteKeywordFrequency writes the corpus-wide keyword counts.
func (w *Writer) WriteKeywordFrequency(entries []model.FrequencyEntry) (string, error) {
	records := [][]string{{"keyword", "frequency", "percentage"}}
	for _, e := range entries {
		records = append(records, []string{e.Theme, strconv.Itoa(e.Count), formatPct(e.Percentage)})
	}
	return w.writeCSV(KeywordFrequencyFile, records)
}

// WriteSentiment writes the two-dimensional sentiment rows.
func (w *Writer) WriteSentiment(rows []model.SentimentRow) (string, error) {
	records := [][]string{{
		"id", "text",
		"ai_sentiment", "ai_explanation",
		"assignment_sentiment", "assignment_explanation",
		"error",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.ReflectionID, r.TextPreview,
			r.AISentiment, r.AIExplanation,
			r.TaskSentiment, r.TaskExplanation,
			r.Error,
		})
	}
	return w.writeCSV(SentimentFile, records)
}

// WriteSentimentDistribution writes per-dimension category counts.
func (w *Writer) WriteSentimentDistribution(dist map[string][]model.FrequencyEntry) (string, error) {
	records := [][]string{{"dimension", "sentiment", "count", "percentage"}}
	// Fixed dimension order keeps the file deterministic.
	for _, dim := range []string{"ai_technology", "assignment"} {
		for _, e := range dist[dim] {
			records = append(records, []string{dim, e.Theme, strconv.Itoa(e.Count), formatPct(e.Percentage)})
		}
	}
	return w.writeCSV(SentimentDistFile, records)
}

// WriteMemos writes the analytic memo rows.
func (w *Writer) WriteMemos(rows []model.MemoRow) (string, error) {
	records := [][]string{{"id", "text", "memo", "key_insights", "learning_points", "error"}}
	for _, r := range rows {
		records = append(records, []string{
			r.ReflectionID, r.TextPreview, r.Memo, r.KeyInsight,
			strings.Join(r.LearningPoints, ", "), r.Error,
		})
	}
	return w.writeCSV(MemosFile, records)
}

// WriteLearningPatterns writes the recurring memo word counts.
func (w *Writer) WriteLearningPatterns(entries []model.FrequencyEntry) (string, error) {
	records := [][]string{{"pattern", "frequency"}}
	for _, e := range entries {
		records = append(records, []string{e.Theme, strconv.Itoa(e.Count)})
	}
	return w.writeCSV(LearningPatternsFile, records)
}

// WriteClustering writes the clustering artifact set into its own
// subdirectory: themes, assignments, frequency table, summary, and full JSON.
func (w *Writer) WriteClustering(result *model.ClusterResult) (string, error) {
	dir := filepath.Join(w.dir, ClusteringDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "report: create clustering dir")
	}

	themes := [][]string{{"theme_name", "definition", "keywords"}}
	for _, th := range result.Themes {
		themes = append(themes, []string{th.Name, th.Definition, strings.Join(th.Keywords, ", ")})
	}
	if err := writeCSVFile(filepath.Join(dir, ThemesFile), themes); err != nil {
		return "", err
	}

	assignments := [][]string{{"id", "text_preview", "assigned_theme", "llm_response", "low_confidence", "error"}}
	for _, a := range result.Assignments {
		assignments = append(assignments, []string{
			a.ReflectionID, a.TextPreview, a.ThemeName, a.RawResponse,
			strconv.FormatBool(a.LowConfidence), a.Error,
		})
	}
	if err := writeCSVFile(filepath.Join(dir, AssignmentsFile), assignments); err != nil {
		return "", err
	}

	frequency := [][]string{{"theme", "count", "percentage"}}
	for _, e := range result.Frequency {
		frequency = append(frequency, []string{e.Theme, strconv.Itoa(e.Count), formatPct(e.Percentage)})
	}
	if err := writeCSVFile(filepath.Join(dir, FrequencyFile), frequency); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(result.Summary), 0o644); err != nil {
		return "", eris.Wrap(err, "report: write clustering summary")
	}

	full := struct {
		Themes         []model.Theme           `json:"themes"`
		Assignments    []model.ThemeAssignment `json:"assignments"`
		FrequencyTable []model.FrequencyEntry  `json:"frequency_table"`
	}{result.Themes, result.Assignments, result.Frequency}

	data, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "report: marshal clustering json")
	}
	if err := os.WriteFile(filepath.Join(dir, ClusteringJSONFile), data, 0o644); err != nil {
		return "", eris.Wrap(err, "report: write clustering json")
	}

	zap.L().Info("clustering results saved", zap.String("dir", dir))
	return dir, nil
}

// WriteWorkbook writes a multi-sheet XLSX combining all analysis outputs.
// Absent passes (nil slices) are skipped.
func (w *Writer) WriteWorkbook(result *model.ClusterResult, keywords []model.KeywordRow, sentiment []model.SentimentRow, memos []model.MemoRow) (string, error) {
	f := xlsx.NewFile()

	if result != nil {
		if err := addSheet(f, "Themes", themeSheetRows(result.Themes)); err != nil {
			return "", err
		}
		assignRows := [][]string{{"id", "assigned_theme", "low_confidence", "error"}}
		for _, a := range result.Assignments {
			assignRows = append(assignRows, []string{
				a.ReflectionID, a.ThemeName, strconv.FormatBool(a.LowConfidence), a.Error,
			})
		}
		if err := addSheet(f, "Assignments", assignRows); err != nil {
			return "", err
		}
		freqRows := [][]string{{"theme", "count", "percentage"}}
		for _, e := range result.Frequency {
			freqRows = append(freqRows, []string{e.Theme, strconv.Itoa(e.Count), formatPct(e.Percentage)})
		}
		if err := addSheet(f, "Frequency", freqRows); err != nil {
			return "", err
		}
	}

	if keywords != nil {
		rows := [][]string{{"id", "keywords", "error"}}
		for _, r := range keywords {
			rows = append(rows, []string{r.ReflectionID, strings.Join(r.Keywords, ", "), r.Error})
		}
		if err := addSheet(f, "Keywords", rows); err != nil {
			return "", err
		}
	}

	if sentiment != nil {
		rows := [][]string{{"id", "ai_sentiment", "assignment_sentiment", "error"}}
		for _, r := range sentiment {
			rows = append(rows, []string{r.ReflectionID, r.AISentiment, r.TaskSentiment, r.Error})
		}
		if err := addSheet(f, "Sentiment", rows); err != nil {
			return "", err
		}
	}

	if memos != nil {
		rows := [][]string{{"id", "memo", "key_insights", "error"}}
		for _, r := range memos {
			rows = append(rows, []string{r.ReflectionID, r.Memo, r.KeyInsight, r.Error})
		}
		if err := addSheet(f, "Memos", rows); err != nil {
			return "", err
		}
	}

	path := filepath.Join(w.dir, WorkbookFile)
	if err := f.Save(path); err != nil {
		return "", eris.Wrap(err, "report: save workbook")
	}
	return path, nil
}

func themeSheetRows(themes []model.Theme) [][]string {
	rows := [][]string{{"theme_name", "definition", "keywords"}}
	for _, th := range themes {
		rows = append(rows, []string{th.Name, th.Definition, strings.Join(th.Keywords, ", ")})
	}
	return rows
}

func addSheet(f *xlsx.File, name string, rows [][]string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", name)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	return nil
}

func (w *Writer) writeCSV(name string, records [][]string) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := writeCSVFile(path, records); err != nil {
		return "", err
	}
	return path, nil
}

func writeCSVFile(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", filepath.Base(path))
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return eris.Wrapf(err, "report: write %s", filepath.Base(path))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", filepath.Base(path))
	}
	return nil
}

func formatPct(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
