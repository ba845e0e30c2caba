package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"prospect-sync/internal/page"
	"prospect-sync/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	mailtoSelector      = `a[href^="mailto:"]`
	panelMailtoSelector = `[role="dialog"] a[href^="mailto:"]`
)

var contactInfoLocator = page.Locator{
	Selector: "a, button",
	Match: func(sel *goquery.Selection) bool {
		mentioned := textutil.ContainsAnyFold(sel.Text(), "contact info") ||
			strings.Contains(sel.AttrOr("href", ""), "overlay/contact-info")
		return mentioned && sel.Closest(`[role="dialog"]`).Length() == 0
	},
}

var mailtoRegex = regexp.MustCompile(`mailto:([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+)`)

func emailFromHref(href string) string {
	address := strings.TrimPrefix(href, "mailto:")
	address, _, _ = strings.Cut(address, "?")
	if unescaped, err := url.PathUnescape(address); err == nil {
		address = unescaped
	}
	address = strings.TrimSpace(address)
	if !strings.Contains(address, "@") {
		return ""
	}
	return address
}

// RetrieveEmail opens the contact panel, reads the email address out of it and
// closes the panel again. It returns an empty string when no address is found.
// Once the panel has been opened, it is always closed, whatever the outcome.
func (e Extractor) RetrieveEmail(ctx context.Context, p page.Page) (email string) {
	defer func() {
		if r := recover(); r != nil {
			e.tel.ReportBroken(report_extractor_retrieve_email, fmt.Errorf("panic: %v", r))
			email = ""
		}
	}()

	err := p.Click(ctx, contactInfoLocator)
	if errors.Is(err, page.ErrNotFound) {
		e.tel.ReportDebug("contact info link not found")
		return ""
	}
	if err != nil {
		e.tel.ReportBroken(report_extractor_retrieve_email, fmt.Errorf("open contact panel: %w", err))
		return ""
	}
	defer e.closePanel(ctx, p)

	// errors here are the context ending, the lookups below still get a chance
	// against whatever is on the page
	_ = e.clock.Sleep(ctx, e.opts.RevealDelay)

	found := page.WaitForElement(ctx, p, panelMailtoSelector, e.opts.EmailTimeout)
	if found != nil {
		email = emailFromHref(found.AttrOr("href", ""))
		if email != "" {
			return email
		}
	}

	doc, err := p.Document(context.WithoutCancel(ctx))
	if err != nil {
		e.tel.ReportBroken(report_extractor_retrieve_email, fmt.Errorf("read document: %w", err))
		return ""
	}

	mailtos := doc.Find(mailtoSelector)
	if mailtos.Length() > 0 {
		// the panel is appended to the end of the body, its link comes last
		email = emailFromHref(mailtos.Last().AttrOr("href", ""))
		if email != "" {
			return email
		}
	}

	dialog := doc.Find(`[role="dialog"]`).First()
	if dialog.Length() > 0 {
		markup, err := dialog.Html()
		if err == nil {
			groups := mailtoRegex.FindStringSubmatch(markup)
			if len(groups) >= 2 {
				return groups[1]
			}
		}
	}

	e.tel.ReportDebug("no email found in contact panel")
	return ""
}

func (e Extractor) closePanel(ctx context.Context, p page.Page) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.CloseDelay+e.opts.EmailTimeout)
	defer cancel()

	_ = e.clock.Sleep(ctx, e.opts.CloseDelay)
	err := p.PressEscape(ctx)
	if err != nil {
		e.tel.ReportBroken(report_extractor_retrieve_email, fmt.Errorf("close contact panel: %w", err))
	}
}
