// internal/fixture/reader.go
//
// Data-driven test fixtures.
//
// Context
// -------
// Test specs iterate over rows kept in CSV files, Excel workbooks, or JSON
// and YAML documents under the fixtures directory.  A Reader parses each
// file once, keeps the rows in an LRU keyed by format, path, and sheet, and
// hands every caller its own copy so a test that edits a row cannot poison
// the next one.
//
// Parallel workers that ask for the same file at the same time share a
// single parse through singleflight.
//
// Usage
// -----
//
//	fx := fixture.NewReader(cfg.Fixtures.Dir, cfg.Fixtures.CacheSize, log)
//	rows, err := fx.Excel("logins.xlsx", "Clients")
//	for _, row := range fixture.ForEnvironment(rows, resolver.ActiveEnvironment()) {
//	        cred, err := resolver.Credentials(row["credential"], "")
//	        …
//	}
//
// Notes
// -----
//   - Rows are map[header]value; every value is a string.
//   - JSON decodes into caller-supplied types and is not cached.
package fixture

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/uiauto/internal/cache"
	"github.com/yanizio/uiauto/internal/metrics"
)

// DefaultCacheSize is used when NewReader receives a capacity below one.
const DefaultCacheSize = 64

// Row is one fixture record keyed by column header.
type Row map[string]string

// Reader loads and caches fixture files rooted at one directory.
type Reader struct {
	dir   string
	cache *cache.LRU[string, []Row]
	sfg   singleflight.Group
	log   *zap.SugaredLogger
}

// NewReader returns a Reader rooted at dir.
func NewReader(dir string, capacity int, log *zap.SugaredLogger) *Reader {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{
		dir:   dir,
		cache: cache.New[string, []Row](capacity),
		log:   log,
	}
}

// CSV returns the rows of a CSV file whose first record is the header.
func (r *Reader) CSV(name string) ([]Row, error) {
	return r.load("csv", name, "", parseCSV)
}

// Excel returns the rows of one worksheet whose first row is the header.
func (r *Reader) Excel(name, sheet string) ([]Row, error) {
	return r.load("xlsx", name, sheet, func(path string) ([]Row, error) {
		return parseExcel(path, sheet)
	})
}

// JSONRows returns the objects of a JSON array as rows.
func (r *Reader) JSONRows(name string) ([]Row, error) {
	return r.load("json", name, "", parseJSONRows)
}

// YAMLRows returns the mappings of a YAML sequence as rows.
func (r *Reader) YAMLRows(name string) ([]Row, error) {
	return r.load("yaml", name, "", parseYAMLRows)
}

// JSON decodes a JSON file into out.  Not cached.
func (r *Reader) JSON(name string, out any) error {
	path := r.path(name)
	if err := decodeJSONFile(path, out); err != nil {
		metrics.FixtureLoadErrors.WithLabelValues("json").Inc()
		r.log.Errorw("fixture load failed", "format", "json", "path", path, "err", err)
		return err
	}
	metrics.FixtureLoads.WithLabelValues("json").Inc()
	return nil
}

// Load picks the parser from the file extension.  sheet applies to
// workbooks only; "" means the first sheet.
func (r *Reader) Load(name, sheet string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return r.CSV(name)
	case ".xlsx", ".xlsm":
		return r.Excel(name, sheet)
	case ".json":
		return r.JSONRows(name)
	case ".yaml", ".yml":
		return r.YAMLRows(name)
	}
	return nil, fmt.Errorf("fixture %s: unsupported extension", name)
}

// Purge drops every cached file.
func (r *Reader) Purge() { r.cache.Purge() }

func (r *Reader) load(format, name, sheet string, parse func(string) ([]Row, error)) ([]Row, error) {
	path := r.path(name)
	key := format + ":" + path
	if sheet != "" {
		key += "#" + sheet
	}

	if rows, ok := r.cache.Get(key); ok {
		return cloneRows(rows), nil
	}

	v, err, _ := r.sfg.Do(key, func() (any, error) {
		// Double-check after singleflight barrier.
		if rows, ok := r.cache.Get(key); ok {
			return rows, nil
		}
		rows, err := parse(path)
		if err != nil {
			metrics.FixtureLoadErrors.WithLabelValues(format).Inc()
			r.log.Errorw("fixture load failed", "format", format, "path", path, "sheet", sheet, "err", err)
			return nil, err
		}
		metrics.FixtureLoads.WithLabelValues(format).Inc()
		r.cache.Add(key, rows)
		r.log.Debugw("fixture loaded", "format", format, "path", path, "sheet", sheet, "rows", len(rows))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneRows(v.([]Row)), nil
}

func (r *Reader) path(name string) string {
	if filepath.IsAbs(name) || r.dir == "" {
		return name
	}
	return filepath.Join(r.dir, name)
}

// ForEnvironment keeps rows whose "environment" (or "env") column is empty
// or equals env, ignoring case.  Rows without such a column are kept.
func ForEnvironment(rows []Row, env string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		v, ok := columnFold(row, "environment")
		if !ok {
			v, ok = columnFold(row, "env")
		}
		if !ok || v == "" || strings.EqualFold(v, env) {
			out = append(out, row)
		}
	}
	return out
}

func columnFold(row Row, name string) (string, bool) {
	for k, v := range row {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
