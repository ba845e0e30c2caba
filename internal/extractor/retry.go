package extractor

import (
	"context"
	"errors"
	"fmt"

	"prospect-sync/internal/page"
)

const readySelector = `h1, h2, [data-view-name="profile-card-experience"]`

var dismissLocator = page.Locator{
	Selector: `[role="dialog"] [aria-label*="Dismiss"], [role="dialog"] [aria-label*="Close"], [role="dialog"] button[aria-label]`,
}

// dismissOverlays closes a dialog left open on the page so it doesn't pollute
// extraction.
func (e Extractor) dismissOverlays(ctx context.Context, p page.Page) {
	doc, err := p.Document(ctx)
	if err != nil || doc.Find(`[role="dialog"]`).Length() == 0 {
		return
	}
	err = p.Click(ctx, dismissLocator)
	if errors.Is(err, page.ErrNotFound) {
		return
	}
	if err != nil {
		e.tel.ReportWarning(report_extractor_dismiss_overlays, err)
		return
	}
	_ = e.clock.Sleep(ctx, e.opts.DismissDelay)
}

func (e Extractor) attempt(ctx context.Context, p page.Page) ExtractedRecord {
	location, err := p.URL(ctx)
	if err != nil {
		e.tel.ReportBroken(report_extractor_extract_with_retry, fmt.Errorf("read location: %w", err))
	}
	doc, err := p.Document(ctx)
	if err != nil {
		e.tel.ReportBroken(report_extractor_extract_with_retry, fmt.Errorf("read document: %w", err))
		return ExtractedRecord{CanonicalURL: CanonicalURL(location)}
	}
	return e.Extract(doc, location)
}

// ExtractWithRetry waits for the page to be ready, then extracts until a pass
// yields a name and one of role or company, up to Options.Attempts passes. If no
// pass is complete, the last one is returned. The email is retrieved once, after
// the accepted (or final) pass.
func (e Extractor) ExtractWithRetry(ctx context.Context, p page.Page) (record ExtractedRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.tel.ReportBroken(report_extractor_extract_with_retry, fmt.Errorf("panic: %v", r))
		}
	}()

	e.dismissOverlays(ctx, p)
	if page.WaitForElement(ctx, p, readySelector, e.opts.ReadyTimeout) == nil {
		e.tel.ReportWarning(report_extractor_extract_with_retry, "page did not become ready", e.opts.ReadyTimeout.String())
	}
	_ = e.clock.Sleep(ctx, e.opts.SettleDelay)

	for i := 1; i <= e.opts.Attempts; i++ {
		record = e.attempt(ctx, p)
		if record.Complete() {
			break
		}
		e.tel.ReportDebug("incomplete extraction", i, e.opts.Attempts)
		if i == e.opts.Attempts {
			break
		}
		if err := e.clock.Sleep(ctx, e.opts.RetryDelay); err != nil {
			break
		}
	}

	email := e.RetrieveEmail(ctx, p)
	if email != "" {
		record.Email = email
	}
	return record
}
