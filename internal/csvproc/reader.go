package csvproc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// RawRow is one input line as a column-name to raw-value mapping. Short
// lived: rows are consumed during normalization.
type RawRow map[string]string

// Table is the parsed form of an upload: trimmed header plus rows in file
// order.
type Table struct {
	Header []string
	Rows   []RawRow
}

// ReadTable decodes raw upload bytes, sniffs the CSV dialect, and parses the
// content into a Table. If sniffing is inconclusive it falls back to trying
// each candidate delimiter in order until one yields a well-formed,
// non-empty table.
func ReadTable(content []byte) (*Table, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	enc, err := DetectEncoding(content)
	if err != nil {
		return nil, err
	}
	text, err := Decode(content, enc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	dialect, err := SniffDialect(text)
	if err == nil {
		table, perr := parseTable(text, dialect)
		if perr == nil {
			logger.Debug("csvproc: parsed upload",
				"encoding", string(enc), "delimiter", string(dialect.Delimiter), "rows", len(table.Rows))
			return table, nil
		}
		err = perr
	}

	// Sniffing failed or parsing with the sniffed delimiter failed: try
	// each candidate in order.
	for _, delim := range candidateDelimiters {
		table, perr := parseTable(text, Dialect{Delimiter: delim, Quote: '"'})
		if perr == nil && len(table.Header) > 0 {
			logger.Debug("csvproc: parsed upload via fallback delimiter",
				"encoding", string(enc), "delimiter", string(delim), "rows", len(table.Rows))
			return table, nil
		}
	}

	return nil, fmt.Errorf("failed to parse CSV: %w", err)
}

func parseTable(text string, dialect Dialect) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = dialect.Delimiter
	r.FieldsPerRecord = -1 // county exports are often ragged
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Header: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(RawRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
