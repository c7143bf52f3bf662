// Package ingest loads student reflections from txt, csv, and json sources
// into the model.Reflection shape the analysis passes consume.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/config"
	"github.com/sells-group/reflect-cli/internal/model"
)

// Load reads reflections according to cfg. Generated IDs are zero-padded
// (R001, R002, ...) so artifact rows sort the way the source reads.
func Load(cfg config.InputConfig) ([]model.Reflection, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, eris.Wrapf(err, "ingest: input file %q", cfg.Path)
	}

	var (
		items []model.Reflection
		err   error
	)
	switch cfg.Format {
	case "txt":
		items, err = loadTxt(cfg)
	case "csv":
		items, err = loadCSV(cfg)
	case "json":
		items, err = loadJSON(cfg)
	default:
		return nil, eris.Errorf("ingest: unknown input format %q", cfg.Format)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("loaded reflections",
		zap.String("format", cfg.Format),
		zap.String("path", cfg.Path),
		zap.Int("count", len(items)),
	)
	return items, nil
}

// Validate checks that every reflection has an ID and non-blank text.
func Validate(items []model.Reflection) error {
	if len(items) == 0 {
		return eris.New("ingest: no reflections found")
	}
	for _, r := range items {
		if r.ID == "" {
			return eris.Errorf("ingest: reflection at index %d has no id", r.Index)
		}
		if strings.TrimSpace(r.Text) == "" {
			return eris.Errorf("ingest: empty reflection %s", r.ID)
		}
	}
	return nil
}

func generatedID(idx int) string {
	return fmt.Sprintf("R%03d", idx)
}

func loadTxt(cfg config.InputConfig) ([]model.Reflection, error) {
	content, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read txt")
	}

	separator := cfg.TxtSeparator
	if separator == "" {
		separator = "\n\n---\n\n"
	}

	var items []model.Reflection
	for _, chunk := range strings.Split(string(content), separator) {
		text := strings.TrimSpace(chunk)
		if text == "" {
			continue
		}
		idx := len(items) + 1
		items = append(items, model.Reflection{
			ID:     generatedID(idx),
			Text:   text,
			Source: "txt",
			Index:  idx,
		})
	}
	return items, nil
}

func loadCSV(cfg config.InputConfig) ([]model.Reflection, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("ingest: csv has no header row")
	}

	header := records[0]
	textCol := -1
	idCol := -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case cfg.CSVColumn:
			textCol = i
		case cfg.CSVIDColumn:
			if cfg.CSVIDColumn != "" {
				idCol = i
			}
		}
	}
	if textCol < 0 {
		return nil, eris.Errorf("ingest: column %q not found in csv, available: %s",
			cfg.CSVColumn, strings.Join(header, ", "))
	}

	var items []model.Reflection
	for rowNum, row := range records[1:] {
		idx := rowNum + 1
		if textCol >= len(row) {
			continue
		}

		id := generatedID(idx)
		if idCol >= 0 && idCol < len(row) && strings.TrimSpace(row[idCol]) != "" {
			id = strings.TrimSpace(row[idCol])
		}

		metadata := make(map[string]string)
		for i, val := range row {
			if i == textCol || i >= len(header) {
				continue
			}
			metadata[header[i]] = val
		}

		items = append(items, model.Reflection{
			ID:       id,
			Text:     row[textCol],
			Source:   "csv",
			Index:    idx,
			Metadata: metadata,
		})
	}
	return items, nil
}

func loadJSON(cfg config.InputConfig) ([]model.Reflection, error) {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read json")
	}

	// Accept either a single object or an array of objects.
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, eris.Wrap(err, "ingest: parse json")
		}
		raw = []map[string]any{single}
	}

	textField := cfg.JSONTextField
	if textField == "" {
		textField = "text"
	}
	idField := cfg.JSONIDField
	if idField == "" {
		idField = "id"
	}

	var items []model.Reflection
	for i, item := range raw {
		idx := i + 1

		textVal, ok := item[textField]
		if !ok {
			return nil, eris.Errorf("ingest: field %q not found in json item %d", textField, idx)
		}

		id := generatedID(idx)
		if v, ok := item[idField]; ok {
			id = fmt.Sprint(v)
		}

		metadata := make(map[string]string)
		for k, v := range item {
			if k == textField || k == idField {
				continue
			}
			metadata[k] = fmt.Sprint(v)
		}

		items = append(items, model.Reflection{
			ID:       id,
			Text:     fmt.Sprint(textVal),
			Source:   "json",
			Index:    idx,
			Metadata: metadata,
		})
	}
	return items, nil
}
