package utils

import "strings"

// NormalizePhone strips whitespace, dashes and parentheses so that
// "+64 21 123-4567" and "+64(21)1234567" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func SamePhone(a, b string) bool {
	return NormalizePhone(a) == NormalizePhone(b)
}
