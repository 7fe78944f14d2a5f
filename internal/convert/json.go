package convert

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// jsonReader streams the elements of a top-level JSON array of objects,
// one object per row, without decoding the whole array. Keys become column
// names; values are coerced to text.
type jsonReader struct {
	path string
	file *os.File
	dec  *json.Decoder
	done bool
}

func openJSON(path string) (*jsonReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Msg: "opening file", Err: err}
	}

	dec := json.NewDecoder(bufio.NewReaderSize(f, 256<<10))
	dec.UseNumber() // keep the textual representation of numbers

	tok, err := dec.Token()
	if err != nil {
		f.Close()

		return nil, &FormatError{Path: path, Msg: "reading json opening token", Err: err}
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		f.Close()

		return nil, &FormatError{Path: path, Msg: "expected a top-level json array"}
	}

	return &jsonReader{path: path, file: f, dec: dec}, nil
}

// Next returns the next array element as a row, or io.EOF after the
// closing bracket.
func (j *jsonReader) Next() (SourceRow, error) {
	if j.done {
		return nil, io.EOF
	}

	if !j.dec.More() {
		// Consume the closing bracket so trailing garbage surfaces here
		// rather than being silently ignored.
		if _, err := j.dec.Token(); err != nil {
			return nil, fmt.Errorf("reading json closing token: %w", err)
		}

		j.done = true

		return nil, io.EOF
	}

	var obj map[string]any
	if err := j.dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding json row: %w", err)
	}

	row := make(SourceRow, len(obj))

	for k, v := range obj {
		if s := coerceValue(v); s != "" {
			row[strings.TrimSpace(k)] = s
		}
	}

	return row, nil
}

func (j *jsonReader) Close() error {
	return j.file.Close()
}

// coerceValue renders a decoded JSON value as text. Nested structures are
// re-marshalled verbatim so structured payloads (quiz and diagram specs)
// survive the round trip.
func coerceValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}

		return string(b)
	}
}
