package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"prospect-sync/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// DefaultLocationLabel is used when a company page lists no headquarters.
const DefaultLocationLabel = "LinkedIn"

var bareDomainRegex = regexp.MustCompile(`^https?://(?:www\.)?[a-zA-Z0-9-]+\.[a-zA-Z]{2,}`)

func externalLink(u *url.URL) bool {
	return u.IsAbs() &&
		(u.Scheme == "http" || u.Scheme == "https") &&
		!strings.Contains(u.String(), "linkedin.com")
}

func relatedName(doc *goquery.Document) string {
	var name string
	doc.Find("h1").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := htmlutil.Text(h)
		n := length(text)
		if n > 0 && n < 100 {
			name = text
			return false
		}
		return true
	})
	return name
}

func relatedWebsite(doc *goquery.Document, base *url.URL) string {
	for _, a := range htmlutil.GetAnchors(base, doc.Find("a[href]")) {
		if !externalLink(a.Url) {
			continue
		}
		href := a.Url.String()
		if strings.Contains(strings.ToLower(a.Name), "website") || bareDomainRegex.MatchString(href) {
			return href
		}
	}

	about := doc.Find(`[class*="about"]`).First()
	for _, a := range htmlutil.GetAnchors(base, about.Find("a[href]")) {
		if externalLink(a.Url) {
			return a.Url.String()
		}
	}
	return ""
}

func relatedLocation(doc *goquery.Document) string {
	var location string
	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.Contains(htmlutil.Text(dt), "Headquarters") {
			return true
		}
		location = htmlutil.Text(dt.NextFiltered("dd"))
		return location == ""
	})
	if location == "" {
		return DefaultLocationLabel
	}
	return location
}
