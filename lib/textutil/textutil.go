package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized `name` contains any of the (already normalized) matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ContainsAnyFold reports whether `s` contains any of `needles`, ignoring case.
func ContainsAnyFold(s string, needles ...string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// SplitFirst splits `s` on the first separator in `seps` (in priority order, not position)
// that occurs in it. ok is false if none of them occur.
func SplitFirst(s string, seps ...string) (before, after string, ok bool) {
	for _, sep := range seps {
		if b, a, found := strings.Cut(s, sep); found {
			return strings.TrimSpace(b), strings.TrimSpace(a), true
		}
	}
	return s, "", false
}

// Before returns the part of `s` before `sep`, trimmed. If `sep` isn't present the
// whole string is returned.
func Before(s, sep string) string {
	b, _, _ := strings.Cut(s, sep)
	return strings.TrimSpace(b)
}
