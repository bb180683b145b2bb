// Package ingest reads transcripts in bulk from spreadsheet exports, the
// format call-recording tools typically hand over.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the transcript spreadsheet reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Column     int    // column holding the transcript text, default 0
	SkipRows   int    // number of header rows to skip
}

// ReadTranscriptsXLSX reads one transcript per row from a spreadsheet. Rows
// whose transcript cell is blank are skipped.
func ReadTranscriptsXLSX(path string, opts XLSXOptions) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var transcripts []string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		if opts.Column >= len(row.Cells) {
			continue
		}
		text := strings.TrimSpace(row.Cells[opts.Column].String())
		if text == "" {
			continue
		}
		transcripts = append(transcripts, text)
	}
	return transcripts, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
