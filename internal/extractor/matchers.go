package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"prospect-sync/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Matcher is a single extraction heuristic, ok is false when it found nothing.
type Matcher func(doc *goquery.Document) (value string, ok bool)

// firstMatch runs matchers in order and returns the first value found.
func firstMatch(doc *goquery.Document, chain []Matcher) string {
	for _, m := range chain {
		value, ok := m(doc)
		if ok && value != "" {
			return value
		}
	}
	return ""
}

const dialogScope = `[role="dialog"], [aria-modal="true"], .artdeco-modal, [data-test-modal]`

var (
	yearRegex  = regexp.MustCompile(`\d{4}`)
	monthRegex = regexp.MustCompile(`(?i)\b(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\b`)
)

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func inDialog(sel *goquery.Selection) bool {
	return sel.Closest(dialogScope).Length() > 0
}

func looksLikeDate(text string) bool {
	return yearRegex.MatchString(text) || monthRegex.MatchString(text)
}

// looksLikeEntryMetadata reports text that belongs to the date/employment-type
// line of an experience entry rather than a role or company.
func looksLikeEntryMetadata(text string) bool {
	return looksLikeDate(text) ||
		strings.Contains(text, "Present") ||
		strings.Contains(text, "·") ||
		strings.Contains(text, "Full-time") ||
		strings.Contains(text, "Part-time")
}

// displayText is the text of an element with screen-reader duplicates removed.
func displayText(sel *goquery.Selection) string {
	return htmlutil.VisibleText(sel)
}

// visibleElements returns the spans and divs below `sel` that are painted on screen.
func visibleElements(sel *goquery.Selection) *goquery.Selection {
	return sel.Find("span, div").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return !htmlutil.IsScreenReaderOnly(el)
	})
}
