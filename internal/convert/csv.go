package convert

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// csvReader streams a comma-delimited UTF-8 file line by line. The first
// row is the header; a UTF-8 BOM on the first cell is stripped.
type csvReader struct {
	path   string
	file   *os.File
	r      *csv.Reader
	header []string
}

func openCSV(path string) (*csvReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Msg: "opening file", Err: err}
	}

	r := csv.NewReader(bufio.NewReaderSize(f, 256<<10))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // ragged rows handled per-cell below

	header, err := r.Read()
	if err != nil {
		f.Close()

		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: path, Msg: "no header row"}
		}

		return nil, &FormatError{Path: path, Msg: "reading header row", Err: err}
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	if err := validateHeader(path, header); err != nil {
		f.Close()

		return nil, err
	}

	return &csvReader{path: path, file: f, r: r, header: header}, nil
}

// Next returns the next data row, or io.EOF after the last one.
func (c *csvReader) Next() (SourceRow, error) {
	record, err := c.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("reading csv row: %w", err)
	}

	row := make(SourceRow, len(c.header))

	for i, name := range c.header {
		if name == "" || i >= len(record) {
			continue
		}

		if v := strings.TrimSpace(record[i]); v != "" {
			row[name] = v
		}
	}

	return row, nil
}

func (c *csvReader) Close() error {
	return c.file.Close()
}
