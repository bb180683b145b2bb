package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "transcripts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadTranscriptsXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Transcript", "Agent"},
			{"Client wants a 3 bed house in Springfield.", "Harry"},
			{"", "Harry"},
			{"Budget is 500k, needs a big yard.", "Harry"},
		},
	})

	transcripts, err := ReadTranscriptsXLSX(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, transcripts, 2)
	assert.Equal(t, "Client wants a 3 bed house in Springfield.", transcripts[0])
	assert.Equal(t, "Budget is 500k, needs a big yard.", transcripts[1])
}

func TestReadTranscriptsXLSXColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"2026-08-01", "First call notes"},
			{"2026-08-02", "Second call notes"},
		},
	})

	transcripts, err := ReadTranscriptsXLSX(path, XLSXOptions{Column: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"First call notes", "Second call notes"}, transcripts)
}

func TestReadTranscriptsXLSXSheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignore": {{"wrong sheet"}},
		"Calls":  {{"right sheet"}},
	})

	transcripts, err := ReadTranscriptsXLSX(path, XLSXOptions{SheetName: "Calls"})
	require.NoError(t, err)
	assert.Equal(t, []string{"right sheet"}, transcripts)
}

func TestReadTranscriptsXLSXSheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadTranscriptsXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadTranscriptsXLSXSheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadTranscriptsXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
