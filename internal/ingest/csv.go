package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/silversky/crm-enrich/internal/model"
)

// ReadCSV loads a dot-namespaced CSV (the format this tool itself
// writes). Unknown columns are preserved under their header name.
func ReadCSV(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("ingest: csv is empty")
	}

	header := rows[0]
	var records []model.Record
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := make(model.Record, len(header))
		for i, col := range header {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				rec[model.FieldKey(col)] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Read dispatches on file extension: .xlsx goes through the workbook
// reader, everything else is treated as CSV.
func Read(path string) ([]model.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadWorkbook(path)
	}
	return ReadCSV(path)
}
