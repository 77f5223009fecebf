// Package output writes enrichment results: an append-only CSV over the
// fixed column superset, an error log, and a legacy scalar progress file
// kept for operators (the SQLite store is the resume authority).
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/silversky/crm-enrich/internal/model"
)

// CSVWriter appends one row per enriched record. Safe for concurrent use.
type CSVWriter struct {
	mu      sync.Mutex
	file    *os.File
	w       *csv.Writer
	columns []model.FieldKey
}

// NewCSVWriter opens path for appending. The header row is written only
// when the file is newly created, so resumed runs keep appending below
// their earlier rows.
func NewCSVWriter(path string) (*CSVWriter, error) {
	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "output: open csv")
	}

	cw := &CSVWriter{file: f, w: csv.NewWriter(f), columns: model.OutputColumns()}
	if fresh {
		header := make([]string, len(cw.columns))
		for i, c := range cw.columns {
			header[i] = string(c)
		}
		if err := cw.w.Write(header); err != nil {
			f.Close()
			return nil, eris.Wrap(err, "output: write header")
		}
		cw.w.Flush()
		if err := cw.w.Error(); err != nil {
			f.Close()
			return nil, eris.Wrap(err, "output: flush header")
		}
	}
	return cw, nil
}

// WriteRecord appends one row and flushes it to disk.
func (cw *CSVWriter) WriteRecord(rec model.Record, issues []string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	row := make([]string, len(cw.columns))
	for i, col := range cw.columns {
		if col == model.ValidationIssues {
			row[i] = strings.Join(issues, "; ")
			continue
		}
		row[i] = cellValue(rec[col])
	}
	if err := cw.w.Write(row); err != nil {
		return eris.Wrap(err, "output: write row")
	}
	cw.w.Flush()
	return eris.Wrap(cw.w.Error(), "output: flush row")
}

// Close flushes and closes the file.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		cw.file.Close()
		return eris.Wrap(err, "output: flush")
	}
	return eris.Wrap(cw.file.Close(), "output: close csv")
}

// WriteSourceCSV writes records over the source schema only, replacing
// path. Used by the export and locations commands, which never carry
// enrichment columns.
func WriteSourceCSV(path string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "output: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	fields := model.SourceFields()

	header := make([]string, len(fields))
	for i, c := range fields {
		header[i] = string(c)
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "output: write header")
	}

	for _, rec := range records {
		row := make([]string, len(fields))
		for i, c := range fields {
			row[i] = cellValue(rec[c])
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "output: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "output: flush")
}

// cellValue flattens a record value to CSV text. Lists join with "; ";
// portfolio companies render as "Name (website)" entries.
func cellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, itemValue(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

func itemValue(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	name, _ := obj["name"].(string)
	website, _ := obj["website"].(string)
	if name == "" {
		return fmt.Sprintf("%v", v)
	}
	if website == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, website)
}
