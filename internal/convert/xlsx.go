package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxReader streams the first worksheet of a workbook through excelize's
// row iterator. The iterator reads the sheet in windows rather than
// materializing it, which is what keeps multi-hundred-MB workbooks within
// memory bounds.
type xlsxReader struct {
	path   string
	file   *excelize.File
	rows   *excelize.Rows
	header []string
}

func openXLSX(path string) (*xlsxReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FormatError{Path: path, Msg: "opening workbook", Err: err}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()

		return nil, &FormatError{Path: path, Msg: "workbook has no sheets"}
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()

		return nil, &FormatError{Path: path, Msg: "opening row iterator", Err: err}
	}

	if !rows.Next() {
		rows.Close()
		f.Close()

		return nil, &FormatError{Path: path, Msg: "no header row"}
	}

	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()

		return nil, &FormatError{Path: path, Msg: "reading header row", Err: err}
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	if err := validateHeader(path, header); err != nil {
		rows.Close()
		f.Close()

		return nil, err
	}

	return &xlsxReader{path: path, file: f, rows: rows, header: header}, nil
}

// Next returns the next data row, or io.EOF after the last one. Cell values
// arrive from excelize already formatted as text.
func (x *xlsxReader) Next() (SourceRow, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, fmt.Errorf("iterating worksheet rows: %w", err)
		}

		return nil, io.EOF
	}

	cells, err := x.rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading worksheet row: %w", err)
	}

	row := make(SourceRow, len(x.header))

	for i, name := range x.header {
		if name == "" || i >= len(cells) {
			continue
		}

		if v := strings.TrimSpace(cells[i]); v != "" {
			row[name] = v
		}
	}

	return row, nil
}

func (x *xlsxReader) Close() error {
	x.rows.Close() //nolint:errcheck // iterator close failure is subsumed by file close.

	return x.file.Close()
}
