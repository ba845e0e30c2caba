package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"prospect-sync/lib/htmlutil"
	"prospect-sync/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// headings that are page chrome, never a person's name (normalized for MatchName)
var nameDisallow = []string{
	"notification",
	"contactinfo",
	"activity",
	"experience",
	"message",
	"connections",
}

func validName(text string) bool {
	n := length(text)
	return n > 2 && n < 100 && !textutil.MatchName(text, nameDisallow)
}

func nameFromHeadings(accept func(h *goquery.Selection) bool) Matcher {
	return func(doc *goquery.Document) (string, bool) {
		var name string
		doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if inDialog(h) || !accept(h) {
				return true
			}
			if !validName(htmlutil.Text(h)) {
				return true
			}
			name = displayText(h)
			return name == ""
		})
		return name, name != ""
	}
}

var nameChain = []Matcher{
	nameFromHeadings(func(h *goquery.Selection) bool {
		return h.Closest(`[data-view-name*="profile"], main`).Length() > 0
	}),
	nameFromHeadings(func(h *goquery.Selection) bool {
		return h.Closest("nav, header, aside").Length() == 0
	}),
}

func topCard(doc *goquery.Document) *goquery.Selection {
	card := doc.Find(`[data-view-name*="profile-top-card"]`).First()
	if card.Length() > 0 {
		return card
	}
	return doc.Find("main section").First()
}

func validEntryRole(text string) bool {
	n := length(text)
	return n > 2 && n < 100 && !looksLikeDate(text)
}

func roleFromEntryParagraphs(doc *goquery.Document) (string, bool) {
	link := currentEntryLink(doc)
	if link == nil {
		return "", false
	}
	paragraphs := link.Find("p")
	if paragraphs.Length() < 2 {
		return "", false
	}
	role := htmlutil.Text(paragraphs.Eq(0))
	return role, validEntryRole(role)
}

func roleFromEntrySpans(doc *goquery.Document) (string, bool) {
	link := currentEntryLink(doc)
	if link == nil {
		return "", false
	}
	for _, span := range entrySpans(link) {
		if !span.bold || !validEntryRole(span.text) || looksLikeEntryMetadata(span.text) {
			continue
		}
		return span.text, true
	}
	return "", false
}

var headlineDisallow = []string{"contact info", "connections", "followers"}

// headlines returns the visible text of the top card's headline elements.
func headlines(doc *goquery.Document) []string {
	var out []string
	topCard(doc).Find("div.text-body-medium").Each(func(_ int, div *goquery.Selection) {
		out = append(out, displayText(div))
	})
	return out
}

func roleFromHeadline(doc *goquery.Document) (string, bool) {
	for _, text := range headlines(doc) {
		n := length(text)
		if n <= 5 || n >= 300 || textutil.ContainsAnyFold(text, headlineDisallow...) {
			continue
		}
		role, _, _ := textutil.SplitFirst(text, " at ", ",", "|")
		if length(role) > 2 && !looksLikeDate(role) {
			return role, true
		}
	}
	return "", false
}

func roleFromTopCardParagraph(doc *goquery.Document) (string, bool) {
	var role string
	topCard(doc).Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := htmlutil.Text(p)
		n := length(text)
		if n <= 10 || n >= 300 || strings.HasPrefix(text, "·") || looksLikeDate(text) ||
			textutil.ContainsAnyFold(text, "contact info", "connections") {
			return true
		}
		role = text
		return false
	})
	return role, role != ""
}

var roleChain = []Matcher{
	roleFromEntryParagraphs,
	roleFromEntrySpans,
	roleFromHeadline,
	roleFromTopCardParagraph,
}

func companyFromEntryParagraphs(doc *goquery.Document) (string, bool) {
	link := currentEntryLink(doc)
	if link == nil {
		return "", false
	}
	paragraphs := link.Find("p")
	if paragraphs.Length() < 2 {
		return "", false
	}
	company := textutil.Before(htmlutil.Text(paragraphs.Eq(1)), "·")
	if looksLikeEntryMetadata(company) {
		return "", false
	}
	return company, company != ""
}

func companyFromEntrySpans(role string) Matcher {
	return func(doc *goquery.Document) (string, bool) {
		link := currentEntryLink(doc)
		if link == nil {
			return "", false
		}
		for _, span := range entrySpans(link) {
			n := length(span.text)
			if n <= 1 || n >= 100 || looksLikeDate(span.text) || strings.Contains(span.text, "Present") {
				continue
			}
			company := textutil.Before(span.text, "·")
			if company != "" && company != role {
				return company, true
			}
		}
		return "", false
	}
}

var companyCandidateDisallow = []string{"connection", "follower", "contact"}

// companyFromTopCardLinks looks for short labels inside top card buttons/links that
// are about the current company (ex. the company logo button next to the headline).
func companyFromTopCardLinks(name, role string) Matcher {
	return func(doc *goquery.Document) (string, bool) {
		var company string
		visibleElements(topCard(doc)).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := htmlutil.OwnText(el)
			if text == "" &&
				el.Find(`[aria-hidden="true"]`).Length() > 0 &&
				el.Find(".visually-hidden").Length() > 0 {
				text = htmlutil.Text(el.Find(`[aria-hidden="true"]`))
			}

			n := length(text)
			if n == 0 || n >= 50 ||
				looksLikeDate(text) ||
				textutil.ContainsAnyFold(text, companyCandidateDisallow...) ||
				strings.Contains(text, "·") ||
				strings.Contains(text, "|") ||
				text == name || text == role {
				return true
			}

			parent := el.Closest(`button, a, li, div[class*="company"]`)
			if parent.Length() == 0 {
				return true
			}
			if textutil.ContainsAnyFold(parent.Text(), "company") ||
				textutil.ContainsAnyFold(parent.AttrOr("class", ""), "company") ||
				textutil.ContainsAnyFold(parent.AttrOr("aria-label", ""), "company") {
				company = text
				return false
			}
			return true
		})
		return company, company != ""
	}
}

var companyLabelRegex = regexp.MustCompile(`(?i)(?:Current company|Company):\s*([^.]+)`)

func companyFromAriaLabel(doc *goquery.Document) (string, bool) {
	var company string
	topCard(doc).Find(`button[aria-label]`).EachWithBreak(func(_ int, button *goquery.Selection) bool {
		groups := companyLabelRegex.FindStringSubmatch(button.AttrOr("aria-label", ""))
		if len(groups) < 2 {
			return true
		}
		company = textutil.Before(groups[1], ",")
		if looksLikeDate(company) {
			company = ""
		}
		return company == ""
	})
	return company, company != ""
}

func companyFromHeadline(role string) Matcher {
	return func(doc *goquery.Document) (string, bool) {
		for _, text := range headlines(doc) {
			n := length(text)
			if n <= 5 || n >= 300 {
				continue
			}

			var company string
			if _, after, ok := strings.Cut(text, " at "); ok {
				company = textutil.Before(textutil.Before(after, "|"), ",")
			} else if parts := strings.Split(text, ","); len(parts) > 1 {
				second := strings.TrimSpace(parts[1])
				if !yearRegex.MatchString(second) && length(second) < 50 && second != role {
					company = textutil.Before(second, "|")
				}
			}

			if length(company) > 1 && company != role {
				return company, true
			}
		}
		return "", false
	}
}

func companyChain(name, role string) []Matcher {
	return []Matcher{
		companyFromEntryParagraphs,
		companyFromEntrySpans(role),
		companyFromTopCardLinks(name, role),
		companyFromAriaLabel,
		companyFromHeadline(role),
	}
}

// companionKey returns the absolute url of the current entry's company page.
func companionKey(doc *goquery.Document, base *url.URL) string {
	link := currentEntryLink(doc)
	if link == nil {
		return ""
	}
	anchors := htmlutil.GetAnchors(base, link)
	if len(anchors) == 0 || !anchors[0].Url.IsAbs() {
		return ""
	}
	return anchors[0].Url.String()
}

// CanonicalURL strips the query and fragment from a page url, those carry
// tracking parameters that would otherwise break natural key matching.
func CanonicalURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String()
}
