// Package chrome implements page.Page on top of a Chrome tab driven over the
// DevTools protocol.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/page"

	"github.com/chromedp/chromedp"
)

const (
	report_browser_open = "browser.open"
	report_tab_click    = "tab.click"
)

type Config struct {
	// RemoteURL is the devtools websocket url of an already running browser
	// (ex. ws://127.0.0.1:9222/). When set, nothing is launched and the operator's
	// logged-in session is reused.
	RemoteURL   string `json:"remote_url"`
	Headless    bool   `json:"headless"`
	UserDataDir string `json:"user_data_dir"`
	// NavigateTimeoutSeconds bounds how long Open waits for the page load event.
	NavigateTimeoutSeconds int `json:"navigate_timeout_seconds"`
}

// Browser opens pages as tabs of a single browser.
type Browser struct {
	ctx             context.Context
	cancel          func()
	navigateTimeout time.Duration
	tel             telemetry.API
}

func NewBrowser(ctx context.Context, config Config, tel telemetry.API) (*Browser, error) {
	tel = telemetry.NewScopedAPI("chrome", tel)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if config.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, config.RemoteURL)
	} else {
		opts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", config.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if config.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	// the first Run starts (or connects to) the browser
	err := chromedp.Run(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	navigateTimeout := time.Duration(config.NavigateTimeoutSeconds) * time.Second
	if navigateTimeout <= 0 {
		navigateTimeout = 30 * time.Second
	}

	return &Browser{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		navigateTimeout: navigateTimeout,
		tel:             tel,
	}, nil
}

// Open navigates a new tab to `url`. The returned close function closes the tab.
func (b *Browser) Open(ctx context.Context, url string) (page.Page, func() error, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	// creates the target, cancelling tabCtx from now on closes the tab
	err := chromedp.Run(tabCtx)
	if err != nil {
		tabCancel()
		b.tel.ReportBroken(report_browser_open, err, url)
		return nil, nil, err
	}

	t := &Tab{ctx: tabCtx, tel: b.tel}
	navCtx, cancel := t.bind(ctx)
	defer cancel()
	navCtx, navCancel := context.WithTimeout(navCtx, b.navigateTimeout)
	defer navCancel()

	err = chromedp.Run(navCtx, chromedp.Navigate(url))
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		tabCancel()
		b.tel.ReportBroken(report_browser_open, err, url)
		return nil, nil, err
	}
	if err != nil {
		// slow pages are still usable, WaitForElement takes it from here
		b.tel.ReportWarning(report_browser_open, "navigation timed out", url)
	}

	return t, func() error {
		tabCancel()
		return nil
	}, nil
}

func (b *Browser) Close() error {
	b.cancel()
	return nil
}
