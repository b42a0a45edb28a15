package csvproc

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// outputHeader is the canonical column order of processed output. Output is
// always the flat layout regardless of the input schema.
var outputHeader = []string{"Name", "Address", "City", "State", "Zip"}

// WriteCSV renders records as UTF-8 CSV with the canonical header, no byte
// order mark. The result re-classifies as the flat schema, so a processed
// file can be uploaded again unchanged.
func WriteCSV(w io.Writer, records []AddressRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Name, rec.Address, rec.City, rec.State, rec.Zip}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV is WriteCSV into a byte slice.
func MarshalCSV(records []AddressRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadProcessedCSV parses a file previously produced by WriteCSV back into
// records. Used when sending letters from a stored, already-cleaned list.
func ReadProcessedCSV(content []byte) ([]AddressRecord, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored CSV: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	for _, col := range outputHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("stored CSV missing column %q", col)
		}
	}

	field := func(record []string, col string) string {
		i := idx[col]
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var records []AddressRecord
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored CSV: %w", err)
		}
		records = append(records, AddressRecord{
			Name:    field(record, "Name"),
			Address: field(record, "Address"),
			City:    field(record, "City"),
			State:   field(record, "State"),
			Zip:     field(record, "Zip"),
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyResult
	}
	return records, nil
}
