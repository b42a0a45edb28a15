package csvproc

// Schema identifies which of the two recognized column layouts an upload
// uses.
type Schema string

const (
	// SchemaFlat is a manually prepared list with direct column names.
	SchemaFlat Schema = "manual"
	// SchemaSource is the CRS-style county export with Owner-prefixed
	// columns.
	SchemaSource Schema = "crs"
)

// Required column sets, exact match after header trimming.
var (
	flatColumns   = []string{"Name", "Address", "City", "State", "Zip"}
	sourceColumns = []string{"Owner 1", "Owner Address", "Owner City", "Owner State", "Owner Zip"}
)

// Classify determines the upload schema from the header. SchemaSource is
// checked first: a file carrying both column sets is treated as a county
// export.
func Classify(header []string) (Schema, error) {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	missingSource := missingFrom(present, sourceColumns)
	if len(missingSource) == 0 {
		return SchemaSource, nil
	}

	missingFlat := missingFrom(present, flatColumns)
	if len(missingFlat) == 0 {
		return SchemaFlat, nil
	}

	return "", &FormatError{
		MissingSource: missingSource,
		MissingFlat:   missingFlat,
		Present:       header,
	}
}

func missingFrom(present map[string]bool, required []string) []string {
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// columnsFor returns the schema's (name, address, city, state, zip) source
// columns, in that order.
func columnsFor(schema Schema) [5]string {
	if schema == SchemaSource {
		return [5]string{"Owner 1", "Owner Address", "Owner City", "Owner State", "Owner Zip"}
	}
	return [5]string{"Name", "Address", "City", "State", "Zip"}
}
