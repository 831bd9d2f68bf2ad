package fixture

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSheet is returned when a workbook has no sheet of that name.
var ErrUnknownSheet = errors.New("unknown sheet")

// SheetError names the workbook, the missing sheet, and the sheets present.
type SheetError struct {
	Path      string
	Sheet     string
	Available []string
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("%s: unknown sheet %q (available: %s)",
		e.Path, e.Sheet, strings.Join(e.Available, ", "))
}

func (e *SheetError) Unwrap() error { return ErrUnknownSheet }

/*─────────────────────────────── tabular ──────────────────────────────────*/

func parseCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return tabularRows(records), nil
}

func parseExcel(path, sheet string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	found := false
	for _, s := range sheets {
		if s == sheet {
			found = true
			break
		}
	}
	if !found {
		return nil, &SheetError{Path: path, Sheet: sheet, Available: sheets}
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return tabularRows(records), nil
}

// tabularRows turns header + records into rows.  Short records are padded
// with empty strings and blank records are skipped.
func tabularRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

/*────────────────────────────── documents ─────────────────────────────────*/

func decodeJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse json %s: %w", path, err)
	}
	return nil
}

func parseJSONRows(path string) ([]Row, error) {
	var docs []map[string]any
	if err := decodeJSONFile(path, &docs); err != nil {
		return nil, err
	}
	return documentRows(docs), nil
}

func parseYAMLRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	var docs []map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	return documentRows(docs), nil
}

func documentRows(docs []map[string]any) []Row {
	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		row := make(Row, len(doc))
		for k, v := range doc {
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// stringify renders scalars as text and nested values as compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, int, int64, float64, uint64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
