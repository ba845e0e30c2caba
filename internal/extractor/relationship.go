package extractor

import (
	"strings"

	"prospect-sync/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

type affordance int

const (
	affordanceNone affordance = iota
	affordancePending
	affordanceMessage
	affordanceConnect
)

func (a affordance) String() string {
	switch a {
	case affordancePending:
		return "pending"
	case affordanceMessage:
		return "message"
	case affordanceConnect:
		return "connect"
	default:
		return "none"
	}
}

func (a affordance) flags() RelationshipFlags {
	switch a {
	case affordancePending:
		return RelationshipFlags{RequestSent: true, Connected: false}
	case affordanceMessage:
		return RelationshipFlags{RequestSent: true, Connected: true}
	default:
		return RelationshipFlags{}
	}
}

// distance badges rendered next to the name of a 1st degree connection
var firstDegreeBadges = []string{"1st degree connection", "· 1st"}

type buttonLabel struct {
	text      string
	ariaLabel string
}

func (b buttonLabel) mentions(word string) bool {
	return strings.Contains(b.text, word) || strings.Contains(b.ariaLabel, word)
}

// classifyRelationship finds the highest priority relationship affordance on the
// page: pending, then message, then connect.
func classifyRelationship(doc *goquery.Document) affordance {
	scope := doc.Find(`main, [data-view-name*="profile"]`).First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var buttons []buttonLabel
	scope.Find("button").Each(func(_ int, b *goquery.Selection) {
		buttons = append(buttons, buttonLabel{
			text:      strings.ToLower(strings.TrimSpace(b.Text())),
			ariaLabel: strings.ToLower(b.AttrOr("aria-label", "")),
		})
	})
	has := func(pred func(b buttonLabel) bool) bool {
		for _, b := range buttons {
			if pred(b) {
				return true
			}
		}
		return false
	}

	if has(func(b buttonLabel) bool { return b.mentions("pending") }) {
		return affordancePending
	}
	if has(func(b buttonLabel) bool { return b.mentions("message") }) ||
		textutil.ContainsAnyFold(scope.Text(), firstDegreeBadges...) {
		return affordanceMessage
	}
	if has(func(b buttonLabel) bool { return b.mentions("connect") || strings.Contains(b.ariaLabel, "invite") }) {
		return affordanceConnect
	}
	return affordanceNone
}
