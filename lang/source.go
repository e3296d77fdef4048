package lang

import "strings"

// StripHeader drops the first n lines of a module file. Exported .bas files
// start with an `Attribute VB_Name = "..."` line that is not VBA code.
func StripHeader(text string, n int) string {
	text = strings.TrimPrefix(text, "\ufeff")
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	return text
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
