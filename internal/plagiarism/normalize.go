package plagiarism

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinTokenLength drops tokens of three characters or fewer.
const DefaultMinTokenLength = 3

// punctuation is removed without inserting a separator, so "wonder-ful" becomes "wonderful".
var punctuation = strings.NewReplacer(
	".", "", ",", "", "/", "", "#", "", "!", "", "$", "", "%", "",
	"^", "", "&", "", "*", "", ";", "", ":", "", "{", "", "}", "",
	"=", "", "-", "", "_", "", "`", "", "~", "", "(", "", ")", "",
)

// Normalize converts raw text into a token stream using the default token filter
func Normalize(raw string) []string {
	return NormalizeWith(raw, DefaultMinTokenLength)
}

// NormalizeWith lower-cases raw, strips punctuation, splits on whitespace and
// keeps tokens longer than minTokenLength characters, in document order.
// Text that is not decodable (invalid UTF-8 or NUL bytes) yields no tokens.
func NormalizeWith(raw string, minTokenLength int) []string {
	if raw == "" || !isText(raw) {
		return nil
	}
	if minTokenLength < 0 {
		minTokenLength = 0
	}

	fields := strings.Fields(punctuation.Replace(strings.ToLower(raw)))

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) > minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func isText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
