package csvproc

import (
	"strings"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// ProcessingStats counts what happened to each input row during one pass.
// Created fresh per upload, accumulated monotonically, returned alongside
// the output.
type ProcessingStats struct {
	TotalRows             int    `json:"total_rows"`
	ProcessedRows         int    `json:"processed_rows"`
	SkippedRows           int    `json:"skipped_rows"`
	FormatDetected        Schema `json:"format_detected"`
	ExcludedInstitutional int    `json:"excluded_institutional"`
	DuplicateRows         int    `json:"duplicate_rows"`
}

// dedupKey identifies a property address: case-insensitive on street, city,
// and state, exact on zip.
type dedupKey struct {
	address string
	city    string
	state   string
	zip     string
}

func keyFor(rec AddressRecord) dedupKey {
	return dedupKey{
		address: strings.ToLower(rec.Address),
		city:    strings.ToLower(rec.City),
		state:   strings.ToLower(rec.State),
		zip:     rec.Zip,
	}
}

// Processor runs the filter/dedup pass over parsed rows.
type Processor struct {
	excludedTerms []string
}

// NewProcessor creates a processor with the given institutional-owner term
// list. An empty list falls back to the defaults.
func NewProcessor(excludedTerms []string) *Processor {
	if len(excludedTerms) == 0 {
		excludedTerms = DefaultExcludedTerms()
	}
	terms := make([]string, len(excludedTerms))
	for i, t := range excludedTerms {
		terms[i] = strings.ToLower(t)
	}
	return &Processor{excludedTerms: terms}
}

// DefaultExcludedTerms returns the default institutional-owner substrings,
// including the common "cemetary" misspelling seen in county records.
func DefaultExcludedTerms() []string {
	return []string{"cemetery", "cemetary", "memorial", "church"}
}

// Process applies, per row and in this exact order, first match wins:
//
//  1. institutional exclusion (name contains a disallowed term, checked
//     pre-truncation, case-insensitive)
//  2. normalization/validation (invalid rows are skipped, never abort)
//  3. deduplication (first occurrence wins)
//
// The ordering determines which counter a bad row increments. Returns
// ErrEmptyResult if nothing survives.
func (p *Processor) Process(table *Table, schema Schema) ([]AddressRecord, ProcessingStats, error) {
	stats := ProcessingStats{
		TotalRows:      len(table.Rows),
		FormatDetected: schema,
	}

	nameCol := columnsFor(schema)[0]
	seen := make(map[dedupKey]bool)
	var records []AddressRecord

	for i, row := range table.Rows {
		rawName := strings.ToLower(strings.TrimSpace(row[nameCol]))
		if p.isInstitutional(rawName) {
			stats.ExcludedInstitutional++
			logger.Info("csvproc: excluded institutional record", "row", i+1, "owner_name", rawName)
			continue
		}

		rec, err := Normalize(row, schema)
		if err != nil {
			stats.SkippedRows++
			logger.Warn("csvproc: skipping invalid row", "row", i+1, "reason", err.Error())
			continue
		}

		key := keyFor(rec)
		if seen[key] {
			stats.DuplicateRows++
			logger.Info("csvproc: skipped duplicate address", "row", i+1, "address", rec.Address)
			continue
		}

		seen[key] = true
		records = append(records, rec)
		stats.ProcessedRows++
	}

	if len(records) == 0 {
		return nil, stats, ErrEmptyResult
	}

	logger.Info("csvproc: finished processing",
		"total", stats.TotalRows, "processed", stats.ProcessedRows,
		"skipped", stats.SkippedRows, "institutional", stats.ExcludedInstitutional,
		"duplicates", stats.DuplicateRows, "format", string(schema))
	return records, stats, nil
}

func (p *Processor) isInstitutional(lowerName string) bool {
	if lowerName == "" {
		return false
	}
	for _, term := range p.excludedTerms {
		if strings.Contains(lowerName, term) {
			return true
		}
	}
	return false
}

// ProcessBytes runs the whole pipeline over raw upload bytes: decode and
// parse, classify the schema, then filter/dedup.
func (p *Processor) ProcessBytes(content []byte) ([]AddressRecord, ProcessingStats, error) {
	table, err := ReadTable(content)
	if err != nil {
		return nil, ProcessingStats{}, err
	}

	schema, err := Classify(table.Header)
	if err != nil {
		return nil, ProcessingStats{TotalRows: len(table.Rows)}, err
	}

	return p.Process(table, schema)
}
