package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/page"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/dom"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// polling interval used alongside DOM events, some mutations (text edits inside
// closed shadow roots, canvas redraws) never produce a DOM event
const changePollInterval = 250 * time.Millisecond

// Tab is a single browser tab.
type Tab struct {
	ctx context.Context
	tel telemetry.API
}

// bind returns a context that carries the tab's chromedp state but is cancelled
// (or times out) along with `ctx`.
func (t *Tab) bind(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(t.ctx)
	var cancelDeadline context.CancelFunc = func() {}
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancelDeadline()
		cancel()
	}
}

func (t *Tab) URL(ctx context.Context) (string, error) {
	runCtx, cancel := t.bind(ctx)
	defer cancel()

	var location string
	err := chromedp.Run(runCtx, chromedp.Location(&location))
	return location, err
}

func (t *Tab) Document(ctx context.Context) (*goquery.Document, error) {
	runCtx, cancel := t.bind(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

const clickScript = `(function() {
	const el = document.querySelectorAll(%s)[%d];
	if (!el) { return false; }
	el.click();
	return true;
})()`

// Click resolves the locator against a DOM snapshot, then clicks the node at the
// same position in the live document.
func (t *Tab) Click(ctx context.Context, loc page.Locator) error {
	doc, err := t.Document(ctx)
	if err != nil {
		return err
	}
	_, index := loc.Resolve(doc)
	if index < 0 {
		return page.ErrNotFound
	}

	selector, err := json.Marshal(loc.Selector)
	if err != nil {
		return err
	}

	runCtx, cancel := t.bind(ctx)
	defer cancel()

	var clicked bool
	err = chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(clickScript, selector, index), &clicked))
	if err != nil {
		t.tel.ReportBroken(report_tab_click, err, loc.Selector)
		return err
	}
	if !clicked {
		// the DOM changed between the snapshot and the click
		return page.ErrNotFound
	}
	return nil
}

func (t *Tab) PressEscape(ctx context.Context) error {
	runCtx, cancel := t.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.KeyEvent(kb.Escape))
}

func (t *Tab) Changes(ctx context.Context) (<-chan struct{}, func()) {
	listenCtx, cancel := context.WithCancel(t.ctx)
	ch := make(chan struct{}, 1)
	notify := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	chromedp.ListenTarget(listenCtx, func(ev any) {
		switch ev.(type) {
		case *dom.EventDocumentUpdated,
			*dom.EventChildNodeInserted,
			*dom.EventChildNodeRemoved,
			*dom.EventChildNodeCountUpdated,
			*dom.EventAttributeModified,
			*dom.EventCharacterDataModified,
			*cdppage.EventLoadEventFired:
			notify()
		}
	})

	go func() {
		ticker := time.NewTicker(changePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				notify()
			case <-listenCtx.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return ch, func() {
		once.Do(cancel)
	}
}
