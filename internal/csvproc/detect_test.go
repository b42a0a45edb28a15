package csvproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    Encoding
	}{
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Address\n")...), EncodingUTF8BOM},
		{"plain utf-8", []byte("Name,Address\nJosé,12 Oak St\n"), EncodingUTF8},
		{"latin-1", []byte{'J', 'o', 's', 0xE9, ',', '1'}, EncodingLatin1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := DetectEncoding(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, enc)
		})
	}
}

func TestDetectEncoding_PriorityOrder(t *testing.T) {
	// Plain ASCII decodes under every candidate; the first in priority order
	// wins, so detection is deterministic.
	enc, err := DetectEncoding([]byte("Name,Address\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
}

func TestDecode_Latin1Accents(t *testing.T) {
	// 0xE9 is é in Latin-1.
	text, err := Decode([]byte{'J', 'o', 's', 0xE9}, EncodingLatin1)
	require.NoError(t, err)
	assert.Equal(t, "José", text)
}

func TestDecode_BOMStripped(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name")...)
	text, err := Decode(content, EncodingUTF8BOM)
	require.NoError(t, err)
	assert.Equal(t, "Name", text)
}

func TestDetectEncoding_RestrictedCandidates(t *testing.T) {
	// Invalid UTF-8 with Latin-1 removed from the candidate list surfaces an
	// EncodingError naming what was tried.
	_, err := detectEncoding([]byte{0xFF, 0xFE}, []Encoding{EncodingUTF8BOM, EncodingUTF8})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Contains(t, encErr.Error(), "utf-8-sig")
	assert.Contains(t, encErr.Error(), "utf-8")
}

func TestSniffDialect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t'},
		{"quoted delimiters ignored", "a,b\n\"1,5\",2\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := SniffDialect(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Delimiter)
		})
	}
}

func TestSniffDialect_Inconclusive(t *testing.T) {
	_, err := SniffDialect("one column only\nstill one\n")
	assert.ErrorIs(t, err, ErrDialectInconclusive)
}

func TestReadTable_SemicolonFile(t *testing.T) {
	content := []byte("Name;Address;City;State;Zip\nJohn Smith;12 Oak St;Selmer;TN;38375\n")
	table, err := ReadTable(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Address", "City", "State", "Zip"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "John Smith", table.Rows[0]["Name"])
}

func TestReadTable_RaggedRowsPadded(t *testing.T) {
	content := []byte("Name,Address,City,State,Zip\nJohn Smith,12 Oak St\n")
	table, err := ReadTable(content)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["Zip"])
}

func TestReadTable_BOMHeaderClean(t *testing.T) {
	// Excel exports carry a BOM; the first header cell must not keep it.
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Address,City,State,Zip\n")...)
	table, err := ReadTable(content)
	require.NoError(t, err)
	assert.Equal(t, "Name", table.Header[0])
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records := []AddressRecord{
		{Name: "John Smith", Address: "12 Oak St", City: "Selmer", State: "TN", Zip: "38375"},
		{Name: "O'Brien, Mary", Address: "99 Elm Ave", City: "Adamsville", State: "TN", Zip: "38310"},
	}

	out, err := MarshalCSV(records)
	require.NoError(t, err)
	// No BOM on output.
	assert.NotEqual(t, byte(0xEF), out[0])

	back, err := ReadProcessedCSV(out)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestReadProcessedCSV_MissingColumn(t *testing.T) {
	_, err := ReadProcessedCSV([]byte("Name,Address,City,State\na,b,c,d\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Zip")
}
