package csvproc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for batch-level failures.
var (
	// ErrEmptyFile indicates the upload contained no parseable rows at all.
	ErrEmptyFile = errors.New("the CSV file is empty")

	// ErrEmptyResult indicates every row was excluded, skipped, or
	// deduplicated away. A fully self-cleaning batch is a user-facing
	// error, not an empty success.
	ErrEmptyResult = errors.New("no valid rows found in CSV file")
)

// EncodingError indicates the upload bytes could not be decoded with any
// supported encoding. With the default candidate list this is unreachable
// (Latin-1 accepts any byte sequence) but the contract allows a customized
// candidate list.
type EncodingError struct {
	Tried []Encoding
}

func (e *EncodingError) Error() string {
	names := make([]string, len(e.Tried))
	for i, enc := range e.Tried {
		names[i] = string(enc)
	}
	return fmt.Sprintf("could not decode file content with any supported encoding (tried %s)",
		strings.Join(names, ", "))
}

// FormatError indicates the header matched neither recognized schema. It
// carries the full diagnostic so the user can fix their CSV: which columns
// each schema still needs, and which columns were actually present.
type FormatError struct {
	MissingSource []string
	MissingFlat   []string
	Present       []string
}

func (e *FormatError) Error() string {
	present := append([]string(nil), e.Present...)
	sort.Strings(present)
	return fmt.Sprintf(
		"CSV format not recognized. Your CSV must have either: "+
			"1. CRS format with columns: %s or "+
			"2. Manual format with columns: %s. "+
			"Missing columns for CRS format: [%s]. "+
			"Missing columns for manual format: [%s]. "+
			"Available columns in your CSV: [%s]",
		strings.Join(sourceColumns, ", "),
		strings.Join(flatColumns, ", "),
		strings.Join(e.MissingSource, ", "),
		strings.Join(e.MissingFlat, ", "),
		strings.Join(present, ", "))
}

// ValidationError indicates a single row failed normalization. It names
// every missing field, not just the first, so one round of fixes suffices.
// Row-level only: the batch continues.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
