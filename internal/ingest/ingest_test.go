package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/silversky/crm-enrich/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().Value = cell
		}
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"CRM Export", ""},
		{"", ""},
		{"Company Name", "Investor Type", "First Name", "Last Name", "Role/Title",
			"Email contact person", "Email company", "Website", "Country/Region", "Column 10",
			"Sectors", "Stage", "LinkedIn URL CP", "Crunchbase profile Company",
			"Company Linkedin", "Phone Number CP", "Office phone #"},
		{"Acme Partners", "Venture Capital", "Jane", "Doe", "Partner",
			"jane@acme.com", "info@acme.com", "https://acme.com", "United States", "San Francisco"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"Beta  Capital", "Private Equity", "John", "Smith"},
	})

	records, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Acme Partners", records[0].Get(model.FundTitle))
	assert.Equal(t, "jane@acme.com", records[0].Get(model.PocEmail))
	assert.Equal(t, "San Francisco", records[0].Get(model.FundCity))
	// Inner whitespace collapsed.
	assert.Equal(t, "Beta Capital", records[1].Get(model.FundTitle))
	assert.True(t, records[1].IsBlank(model.PocEmail))
}

func TestReadWorkbookNoHeader(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"just", "data"},
		{"no", "header"},
	})

	_, err := ReadWorkbook(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row not found")
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	content := "fund.title,poc.first_name,poc.email\n" +
		"Acme Partners,Jane,jane@acme.com\n" +
		",,\n" +
		"Beta Capital,John,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Acme Partners", records[0].Get(model.FundTitle))
	assert.Equal(t, "jane@acme.com", records[0].Get(model.PocEmail))
	assert.True(t, records[1].IsBlank(model.PocEmail))
}

func TestReadDispatch(t *testing.T) {
	t.Parallel()

	csvPath := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("fund.title\nAcme\n"), 0o644))

	records, err := Read(csvPath)
	require.NoError(t, err)
	require.Len(t, records, 1)

	xlsxPath := writeWorkbook(t, [][]string{
		{"Company Name", "Investor Type", "First Name", "Last Name"},
		{"Acme Partners", "VC", "Jane", "Doe"},
	})
	records, err = Read(xlsxPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0].Get(model.PocFirstName))
}
