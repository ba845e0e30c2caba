package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean removes non-printable characters, trims and collapses inner whitespace.
func Clean(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Text returns the cleaned text of the first node in the selection.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return Clean(GetText(sel.Nodes[0]))
}

// OwnText returns only the text of the direct text children of the first node in the
// selection, text nested in child elements is ignored.
func OwnText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var buffer bytes.Buffer
	for child := sel.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			buffer.WriteString(child.Data)
		}
	}
	return Clean(buffer.String())
}

// IsScreenReaderOnly reports whether the element is one of the accessibility
// duplicates pages render next to visible text.
func IsScreenReaderOnly(sel *goquery.Selection) bool {
	class := sel.AttrOr("class", "")
	if strings.Contains(class, "visually-hidden") || strings.Contains(class, "accessibility-text") {
		return true
	}
	return sel.AttrOr("aria-hidden", "") == "true"
}

// VisibleText returns the text a sighted user would read. When an element carries both
// an `aria-hidden` copy and a `.visually-hidden` copy of the same text, only the
// aria-hidden one (the one painted on screen) is used.
func VisibleText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	first := sel.First()
	painted := first.Find(`[aria-hidden="true"]`)
	if painted.Length() > 0 && first.Find(".visually-hidden").Length() > 0 {
		return Text(painted)
	}
	return Text(first)
}

type Anchor struct {
	Name string
	Url  *url.URL
}

// GetAnchors returns the anchors in `sel`, hrefs are resolved against `base` if it is not nil.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = strings.TrimSpace(a.Val)
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		anchors = append(anchors, Anchor{
			Name: Clean(GetText(n)),
			Url:  link,
		})
	}
	return anchors
}
