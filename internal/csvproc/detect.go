package csvproc

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding identifies a supported text encoding for uploaded files.
type Encoding string

const (
	EncodingUTF8BOM Encoding = "utf-8-sig"
	EncodingUTF8    Encoding = "utf-8"
	EncodingLatin1  Encoding = "latin-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// defaultEncodings is the candidate priority order. Latin-1 accepts any byte
// sequence, so detection cannot fail with this list.
var defaultEncodings = []Encoding{EncodingUTF8BOM, EncodingUTF8, EncodingLatin1}

// DetectEncoding returns the first candidate encoding that decodes the
// content without error.
func DetectEncoding(content []byte) (Encoding, error) {
	return detectEncoding(content, defaultEncodings)
}

func detectEncoding(content []byte, candidates []Encoding) (Encoding, error) {
	for _, enc := range candidates {
		if _, err := decode(content, enc); err == nil {
			return enc, nil
		}
	}
	return "", &EncodingError{Tried: candidates}
}

// Decode converts raw upload bytes to a string using the given encoding.
func Decode(content []byte, enc Encoding) (string, error) {
	return decode(content, enc)
}

func decode(content []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingUTF8BOM:
		if !bytes.HasPrefix(content, utf8BOM) {
			return "", errors.New("missing UTF-8 byte order mark")
		}
		stripped := content[len(utf8BOM):]
		if !utf8.Valid(stripped) {
			return "", errors.New("invalid UTF-8 after byte order mark")
		}
		return string(stripped), nil
	case EncodingUTF8:
		if !utf8.Valid(content) {
			return "", errors.New("invalid UTF-8")
		}
		return string(content), nil
	case EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", errors.New("unsupported encoding: " + string(enc))
	}
}

// Dialect describes the CSV conventions detected in an upload.
type Dialect struct {
	Delimiter rune
	Quote     rune
}

// candidateDelimiters are the delimiters seen in practice: county exports
// use commas, some European tax rolls use semicolons, GIS dumps use tabs.
var candidateDelimiters = []rune{',', ';', '\t'}

// ErrDialectInconclusive indicates sniffing could not pick a delimiter; the
// caller should fall back to trying each candidate in order.
var ErrDialectInconclusive = errors.New("could not infer CSV dialect from sample")

// sniffSampleLines bounds how much of the file the sniffer looks at.
const sniffSampleLines = 5

// SniffDialect infers the delimiter statistically from the first few lines:
// the winning delimiter appears at least once on every sampled line with a
// consistent count. Quote character is always '"'.
func SniffDialect(text string) (Dialect, error) {
	lines := sampleLines(text, sniffSampleLines)
	if len(lines) == 0 {
		return Dialect{}, ErrEmptyFile
	}

	best := rune(0)
	bestCount := 0
	for _, delim := range candidateDelimiters {
		count, consistent := delimiterProfile(lines, delim)
		if consistent && count > bestCount {
			best = delim
			bestCount = count
		}
	}

	if best == 0 {
		return Dialect{}, ErrDialectInconclusive
	}
	return Dialect{Delimiter: best, Quote: '"'}, nil
}

// delimiterProfile counts delim occurrences outside quoted sections on each
// line, returning the per-line count and whether it is identical and
// non-zero across all sampled lines.
func delimiterProfile(lines []string, delim rune) (int, bool) {
	count := -1
	for _, line := range lines {
		n := countUnquoted(line, delim)
		if count == -1 {
			count = n
		} else if n != count {
			return 0, false
		}
	}
	if count <= 0 {
		return 0, false
	}
	return count, true
}

func countUnquoted(line string, delim rune) int {
	n := 0
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == delim && !inQuote:
			n++
		}
	}
	return n
}

func sampleLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
