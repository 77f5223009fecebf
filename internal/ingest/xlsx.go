// Package ingest reads source data into Records: raw CRM workbook
// exports (XLSX, positional columns under a detected header row) and
// already-converted dot-namespaced CSV files.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/silversky/crm-enrich/internal/model"
)

// headerScanLimit bounds the search for the header row; CRM exports
// carry a few banner rows above it.
const headerScanLimit = 20

// workbookColumns is the positional layout of the raw CRM export. The
// ninth data column carries city values despite its header.
var workbookColumns = []model.FieldKey{
	model.FundTitle, model.FundType,
	model.PocFirstName, model.PocLastName, model.PocRole, model.PocEmail,
	model.FundEmail, model.FundWebsite, model.FundCountry, model.FundCity,
	model.FundSectors, model.FundPreferredStage,
	model.PocLinkedIn, model.FundCrunchbase, model.FundLinkedIn,
	model.PocPhone, model.FundPhone,
}

// ReadWorkbook loads the first sheet of an XLSX export, locates the
// header row and maps the data rows positionally onto Records.
func ReadWorkbook(path string) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}

	rows := make([][]string, 0, len(f.Sheets[0].Rows))
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}

	headerIdx, ok := findHeaderRow(rows)
	if !ok {
		return nil, eris.New("ingest: header row not found")
	}
	return mapRows(rows[headerIdx+1:]), nil
}

// findHeaderRow scans the leading rows for the CRM export header.
func findHeaderRow(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		if strings.Contains(text, "company name") && strings.Contains(text, "first name") {
			return i, true
		}
	}
	return 0, false
}

func mapRows(rows [][]string) []model.Record {
	var records []model.Record
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rec := make(model.Record, len(workbookColumns))
		for i, key := range workbookColumns {
			if i < len(row) && row[i] != "" {
				rec[key] = collapseSpace(row[i])
			}
		}
		records = append(records, rec)
	}
	return records
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
