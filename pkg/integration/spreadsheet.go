package integration

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Spreadsheet implements the tabular-file node over CSV. READ parses the
// file into one object per row keyed by the header line; WRITE does the
// reverse with the union of row keys as the header.
type Spreadsheet struct{}

func NewSpreadsheet() *Spreadsheet { return &Spreadsheet{} }

func (s *Spreadsheet) Execute(_ context.Context, config map[string]any, _ map[string]string) (map[string]any, error) {
	operation := configString(config, "operation")
	filePath := configString(config, "filePath")

	switch operation {
	case "READ":
		return s.read(filePath)
	case "WRITE":
		return s.write(filePath, config["data"])
	default:
		return nil, fmt.Errorf("unsupported spreadsheet operation: %s", operation)
	}
}

func (s *Spreadsheet) read(filePath string) (map[string]any, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if len(records) == 0 {
		return map[string]any{"status": "success", "data": []any{}}, nil
	}

	header := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return map[string]any{"status": "success", "data": rows}, nil
}

func (s *Spreadsheet) write(filePath string, data any) (map[string]any, error) {
	rows, err := normalizeRows(data)
	if err != nil {
		return nil, err
	}

	header := unionKeys(rows)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			if val, ok := row[col]; ok && val != nil {
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "message": fmt.Sprintf("File written to %s", filePath)}, nil
}

func normalizeRows(data any) ([]map[string]any, error) {
	switch val := data.(type) {
	case nil:
		return nil, fmt.Errorf("spreadsheet WRITE requires data")
	case map[string]any:
		return []map[string]any{val}, nil
	case []map[string]any:
		return val, nil
	case []any:
		rows := make([]map[string]any, 0, len(val))
		for _, item := range val {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("spreadsheet rows must be objects, got %T", item)
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("spreadsheet data must be an object or array of objects, got %T", data)
	}
}

func unionKeys(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
