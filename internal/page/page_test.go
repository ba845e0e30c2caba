package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prospect-sync/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestWaitForElementPresent(t *testing.T) {
	p := NewStaticPage("https://example.com", `<main><h1>Jane</h1></main>`)

	found := WaitForElement(context.Background(), p, "h1", time.Second)
	require.NotNil(t, found)
	require.Equal(t, "Jane", found.Text())
	require.Equal(t, 0, p.Subscribers())
}

func TestWaitForElementAppears(t *testing.T) {
	p := NewStaticPage("https://example.com", `<main></main>`)

	go func() {
		time.Sleep(50 * time.Millisecond)
		p.SetHTML(`<main><a href="mailto:jane@example.com">jane</a></main>`)
	}()

	found := WaitForElement(context.Background(), p, `a[href^="mailto:"]`, 5*time.Second)
	require.NotNil(t, found)
	require.Equal(t, "mailto:jane@example.com", found.AttrOr("href", ""))
	require.Equal(t, 0, p.Subscribers())
}

func TestWaitForElementTimeout(t *testing.T) {
	p := NewStaticPage("https://example.com", `<main></main>`)

	start := time.Now()
	found := WaitForElement(context.Background(), p, "h1", 50*time.Millisecond)
	require.Nil(t, found)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.Equal(t, 0, p.Subscribers())
}

func TestWaitForElementCanceled(t *testing.T) {
	p := NewStaticPage("https://example.com", `<main></main>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Nil(t, WaitForElement(ctx, p, "h1", time.Minute))
	require.Equal(t, 0, p.Subscribers())
}

func TestLocatorResolve(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<button>Follow</button>
		<div role="dialog"><a>Contact info</a></div>
		<a href="/in/jane/overlay/contact-info/">Contact info</a>
	`))
	require.NoError(t, err)

	loc := Locator{
		Selector: "a, button",
		Match: func(sel *goquery.Selection) bool {
			return strings.Contains(sel.Text(), "Contact info") && sel.Closest(`[role="dialog"]`).Length() == 0
		},
	}
	sel, index := loc.Resolve(doc)
	require.NotNil(t, sel)
	require.Equal(t, 2, index)

	sel, index = Locator{Selector: "h1"}.Resolve(doc)
	require.Nil(t, sel)
	require.Equal(t, -1, index)
}

func TestStaticPageClick(t *testing.T) {
	p := NewStaticPage("https://example.com", `<button>Open</button>`)
	p.OnClick = func(p *StaticPage, target *goquery.Selection) {
		p.SetHTML(`<div role="dialog">opened</div>`)
	}

	require.ErrorIs(t, p.Click(context.Background(), Locator{Selector: "a"}), ErrNotFound)
	require.NoError(t, p.Click(context.Background(), Locator{Selector: "button"}))
	require.Equal(t, []string{"Open"}, p.Clicks())
	require.Contains(t, p.HTML(), "opened")
}

func TestFetcherOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<html><body><h1>Acme</h1></body></html>`))
	}))
	defer server.Close()

	tel := &telemetry.RecordingAPI{}
	fetcher, err := NewFetcher(tel, FetcherOptions{})
	require.NoError(t, err)

	p, closePage, err := fetcher.Open(context.Background(), server.URL+"/company/acme")
	require.NoError(t, err)
	defer closePage()

	doc, err := p.Document(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Acme", doc.Find("h1").Text())

	_, _, err = fetcher.Open(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	require.True(t, tel.Has(telemetry.REPORT_BROKEN, report_fetcher_open))
}
