package logger

// Redact masks all but the first two characters of a value so log lines stay
// correlatable without exposing owner PII.
func Redact(v string) string {
	if len(v) <= 2 {
		return "***"
	}
	return v[:2] + "***"
}
