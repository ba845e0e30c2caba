package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// how many ancestors of a company link are checked for the "Present" marker
const entryClimbLimit = 5

func experienceSection(doc *goquery.Document) *goquery.Selection {
	section := doc.Find(`[data-view-name="profile-card-experience"]`).First()
	if section.Length() > 0 {
		return section
	}

	anchor := doc.Find("#experience").First()
	if anchor.Length() > 0 {
		section = anchor.Closest("section")
		if section.Length() > 0 {
			return section
		}
	}

	var found *goquery.Selection
	doc.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != "Experience" {
			return true
		}
		section := h.Closest("section")
		if section.Length() > 0 {
			found = section
			return false
		}
		return true
	})
	return found
}

// currentEntryLink returns the company link of the experience entry marked
// "Present", or nil.
func currentEntryLink(doc *goquery.Document) *goquery.Selection {
	section := experienceSection(doc)
	if section == nil {
		return nil
	}

	var current *goquery.Selection
	section.Find(`a[href*="/company/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		container := link.Parent()
		for i := 0; i < entryClimbLimit && container.Length() > 0; i++ {
			if strings.Contains(container.Text(), "Present") {
				current = link
				return false
			}
			container = container.Parent()
		}
		return true
	})
	return current
}

// entrySpans returns the visible text of each visible span/div inside the entry.
func entrySpans(link *goquery.Selection) []spanText {
	var out []spanText
	visibleElements(link).Each(func(_ int, el *goquery.Selection) {
		out = append(out, spanText{
			text: displayText(el),
			bold: strings.Contains(el.AttrOr("class", ""), "bold") ||
				el.Closest(`[class*="bold"]`).Length() > 0,
		})
	})
	return out
}

type spanText struct {
	text string
	bold bool
}
