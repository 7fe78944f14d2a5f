package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteNormalized spools every remaining row of r to a normalized CSV at
// outPath, using the given column order. Decouples a slow upstream format
// (XLSX) from downstream parsing memory pressure and leaves an auditable
// intermediate artifact. Returns the number of data rows written.
//
// This is a performance and debuggability aid, not a correctness
// requirement; the pipeline streams readers directly by default.
func WriteNormalized(r RowReader, columns []string, outPath string) (int, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating normalized file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(columns); err != nil {
		return 0, fmt.Errorf("writing normalized header: %w", err)
	}

	count := 0
	record := make([]string, len(columns))

	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return count, fmt.Errorf("reading source row %d: %w", count+1, err)
		}

		for i, col := range columns {
			record[i] = row[col]
		}

		if err := w.Write(record); err != nil {
			return count, fmt.Errorf("writing normalized row %d: %w", count+1, err)
		}

		count++
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return count, fmt.Errorf("flushing normalized file: %w", err)
	}

	return count, nil
}
