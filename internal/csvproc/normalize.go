package csvproc

import "strings"

// AddressRecord is the canonical cleaned output unit. All five fields are
// non-empty after normalization; a record is never partially populated.
type AddressRecord struct {
	Name    string `json:"name"`
	Address string `json:"address_line1"`
	City    string `json:"address_city"`
	State   string `json:"address_state"`
	Zip     string `json:"address_zip"`
}

// maxNameLen is the mail provider's printable name limit.
const maxNameLen = 40

// TruncateName bounds a name to maxNameLen characters, cutting back to the
// last whitespace boundary so no partial word survives, then trims
// surrounding whitespace. Names at or under the limit pass through
// unchanged. A single unbroken word longer than the limit is hard-cut at
// exactly maxNameLen.
func TruncateName(name string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) <= maxNameLen {
		return name
	}

	runes := []rune(name)
	truncated := string(runes[:maxNameLen])

	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}

// Normalize maps one raw row into an AddressRecord per the schema's column
// mapping. Every output field must be non-empty post-trim; otherwise the
// returned ValidationError names all missing fields.
func Normalize(row RawRow, schema Schema) (AddressRecord, error) {
	cols := columnsFor(schema)

	name := strings.TrimSpace(row[cols[0]])
	address := strings.TrimSpace(row[cols[1]])
	city := strings.TrimSpace(row[cols[2]])
	state := strings.TrimSpace(row[cols[3]])
	zip := strings.TrimSpace(row[cols[4]])

	name = TruncateName(name)

	var missing []string
	if name == "" {
		missing = append(missing, cols[0])
	}
	if address == "" {
		missing = append(missing, cols[1])
	}
	if city == "" {
		missing = append(missing, cols[2])
	}
	if state == "" {
		missing = append(missing, cols[3])
	}
	if zip == "" {
		missing = append(missing, cols[4])
	}
	if len(missing) > 0 {
		return AddressRecord{}, &ValidationError{Missing: missing}
	}

	return AddressRecord{
		Name:    name,
		Address: address,
		City:    city,
		State:   state,
		Zip:     zip,
	}, nil
}
