package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadCSV decodes a UTF-8 CSV stream into a header row and data records.
// Records that fail to parse are skipped and counted rather than failing
// the whole file; a stream with no readable header at all is ErrNotTabular.
func ReadCSV(r io.Reader) (header []string, records [][]string, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err = cr.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrNotTabular, err)
	}
	if len(header) > 0 {
		header[0] = stripBOM(header[0])
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, nil, 0, fmt.Errorf("%w: %v", ErrNotTabular, err)
		}
		records = append(records, rec)
	}
	return header, records, skipped, nil
}

// ReadXLSX decodes the first sheet of an XLSX workbook. The upstream ERP
// exports the same order-line table in both formats, so XLSX feeds the
// exact same normalize path as CSV.
func ReadXLSX(r io.Reader) (header []string, records [][]string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotTabular, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrNotTabular)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotTabular, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q is empty", ErrNotTabular, sheets[0])
	}
	return rows[0], rows[1:], nil
}

// sniffXLSX reports whether the payload looks like a ZIP container, which
// is what an XLSX file is. Used when the filename extension is missing.
func sniffXLSX(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
