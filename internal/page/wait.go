package page

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WaitForElement resolves to the first element matching `selector` as soon as it
// appears, or to nil once `timeout` elapses. The change subscription is released on
// every path.
func WaitForElement(ctx context.Context, p Page, selector string, timeout time.Duration) *goquery.Selection {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// subscribing before the first check means a change landing between the
	// check and the select is not missed
	changes, stop := p.Changes(ctx)
	defer stop()

	for {
		doc, err := p.Document(ctx)
		if err == nil {
			found := doc.Find(selector)
			if found.Length() > 0 {
				return found.First()
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				<-ctx.Done()
				return nil
			}
		}
	}
}
