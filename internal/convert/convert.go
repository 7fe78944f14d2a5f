// Package convert turns a source dataset file (XLSX workbook, CSV, or JSON
// array) into a stream of row maps without materializing the whole file.
//
// Readers are lazy, finite, and non-restartable: restarting requires
// reopening the source. The header row is consumed at open time and is not
// part of the row sequence.
package convert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceRow is one data row: raw column name to raw cell value. Numeric and
// date cells are already coerced to their textual representation; semantic
// interpretation belongs to the parser.
type SourceRow map[string]string

// RowReader is a lazy sequence of source rows. Next returns io.EOF after
// the last data row. Close releases the underlying file.
type RowReader interface {
	Next() (SourceRow, error)
	Close() error
}

// Format identifies a supported source file format.
type Format string

// Supported source formats. FormatAuto detects from the file extension and
// falls back to content sniffing.
const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatError reports a structurally unreadable source file. Fatal to the
// whole run; no partial progress is possible.
type FormatError struct {
	Path string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error in %s: %s: %v", e.Path, e.Msg, e.Err)
	}

	return fmt.Sprintf("format error in %s: %s", e.Path, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a source whose format cannot be determined
// or is not one of the supported kinds.
type UnsupportedFormatError struct {
	Path   string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("cannot determine format of %s", e.Path)
	}

	return fmt.Sprintf("unsupported format %q for %s", e.Format, e.Path)
}

// Open opens a source file and returns a streaming row reader for it.
func Open(path string, format Format) (RowReader, error) {
	if format == FormatAuto || format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	switch format {
	case FormatCSV:
		return openCSV(path)
	case FormatJSON:
		return openJSON(path)
	case FormatXLSX:
		return openXLSX(path)
	default:
		return nil, &UnsupportedFormatError{Path: path, Format: string(format)}
	}
}

// xlsxMagic is the ZIP local file header; XLSX workbooks are ZIP archives.
var xlsxMagic = []byte("PK\x03\x04")

// DetectFormat determines the source format from the file extension,
// falling back to sniffing the leading bytes.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &FormatError{Path: path, Msg: "opening file for detection", Err: err}
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head) //nolint:errcheck // short reads are fine for sniffing.
	head = head[:n]

	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")

	switch {
	case bytes.HasPrefix(head, xlsxMagic):
		return FormatXLSX, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		return FormatJSON, nil
	case looksLikeCSV(head):
		return FormatCSV, nil
	}

	return "", &UnsupportedFormatError{Path: path}
}

// looksLikeCSV reports whether the leading bytes resemble delimited text:
// printable content whose first line contains a comma.
func looksLikeCSV(head []byte) bool {
	line, _, _ := bytes.Cut(head, []byte("\n"))
	if !bytes.Contains(line, []byte(",")) {
		return false
	}

	for _, b := range line {
		if b < 0x09 { // control bytes other than tab
			return false
		}
	}

	return true
}

// validateHeader rejects sources with no usable header row.
func validateHeader(path string, header []string) error {
	nonEmpty := 0

	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			nonEmpty++
		}
	}

	if nonEmpty == 0 {
		return &FormatError{Path: path, Msg: "header row has zero columns"}
	}

	return nil
}
