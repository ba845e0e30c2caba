package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/page"
	"prospect-sync/lib/testutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const profileWithContactLink = `<main>
	<h1>Jane Doe</h1>
	<a href="mailto:press@acme.example">Press</a>
	<a href="/in/jane-doe/overlay/contact-info/">Contact info</a>
</main>`

// revealOnClick makes the page render `panel` in a dialog when the contact link is
// clicked, and remove it again on Escape.
func revealOnClick(p *page.StaticPage, panel string) {
	original := p.HTML()
	p.OnClick = func(p *page.StaticPage, target *goquery.Selection) {
		if strings.Contains(target.Text(), "Contact info") {
			p.SetHTML(original + `<div role="dialog">` + panel + `</div>`)
		}
	}
	p.OnEscape = func(p *page.StaticPage) {
		p.SetHTML(original)
	}
}

func TestRetrieveEmail(t *testing.T) {
	e, _, clock := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", profileWithContactLink)
	revealOnClick(p, `<h2>Contact info</h2><section><a href="mailto:jane@acme.example">jane@acme.example</a></section>`)

	email := e.RetrieveEmail(context.Background(), p)
	require.Equal(t, "jane@acme.example", email)
	require.Equal(t, []string{"Contact info"}, p.Clicks())
	require.Equal(t, 1, p.Escapes())
	require.Equal(t, 0, p.Subscribers())
	require.Equal(t, []time.Duration{e.opts.RevealDelay, e.opts.CloseDelay}, clock.Slept)
	require.NotContains(t, p.HTML(), `role="dialog"`)
}

func TestRetrieveEmailFromDialog(t *testing.T) {
	e, _, _ := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main>
		<h1>Jane Doe</h1>
		<button>Contact info</button>
	</main>`)
	revealOnClick(p, `<a href="mailto:Jane.Doe@acme.example?subject=hi">Email</a>`)

	require.Equal(t, "Jane.Doe@acme.example", e.RetrieveEmail(context.Background(), p))
	require.Equal(t, 1, p.Escapes())
}

func TestRetrieveEmailMarkupFallback(t *testing.T) {
	e, _, _ := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main><button>Contact info</button></main>`)
	revealOnClick(p, `<div data-href="mailto:jane_doe@acme.example">Email</div>`)

	require.Equal(t, "jane_doe@acme.example", e.RetrieveEmail(context.Background(), p))
	require.Equal(t, 1, p.Escapes())
}

func TestRetrieveEmailNotFound(t *testing.T) {
	e, _, _ := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main><button>Contact info</button></main>`)
	revealOnClick(p, `<section>Profile: linkedin.com/in/jane-doe</section>`)

	require.Equal(t, "", e.RetrieveEmail(context.Background(), p))
	require.Equal(t, 1, p.Escapes())
	require.Equal(t, 0, p.Subscribers())
}

func TestRetrieveEmailNoContactLink(t *testing.T) {
	e, _, clock := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main>
		<h1>Jane Doe</h1>
		<div role="dialog"><a>Contact info</a></div>
	</main>`)

	require.Equal(t, "", e.RetrieveEmail(context.Background(), p))
	require.Empty(t, p.Clicks())
	require.Equal(t, 0, p.Escapes())
	require.Empty(t, clock.Slept)
}

type failingEscapePage struct {
	*page.StaticPage
}

func (failingEscapePage) PressEscape(ctx context.Context) error {
	return context.DeadlineExceeded
}

func TestRetrieveEmailCleanupFailure(t *testing.T) {
	e, tel, _ := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main><button>Contact info</button></main>`)
	revealOnClick(p, `<a href="mailto:jane@acme.example">Email</a>`)

	email := e.RetrieveEmail(context.Background(), failingEscapePage{p})
	require.Equal(t, "jane@acme.example", email)
	require.True(t, tel.Has(telemetry.REPORT_BROKEN, report_extractor_retrieve_email))
}

// hookClock behaves like chrono.FakeImpl but lets tests change the page while
// the extractor "sleeps".
type hookClock struct {
	chrono.FakeImpl
	onSleep func(d time.Duration)
}

func (c *hookClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.onSleep != nil {
		c.onSleep(d)
	}
	return c.FakeImpl.Sleep(ctx, d)
}

func TestExtractWithRetryRecovers(t *testing.T) {
	tel := &telemetry.RecordingAPI{}
	clock := &hookClock{}
	opts := testOptions()
	e := New(tel, clock, opts)

	p := page.NewStaticPage(
		"https://www.linkedin.com/in/jane-doe/?trk=feed",
		`<main><h1>Jane Doe</h1></main>`,
	)
	retries := 0
	clock.onSleep = func(d time.Duration) {
		if d != opts.RetryDelay {
			return
		}
		retries++
		if retries == 1 {
			p.SetHTML(testutil.Fixture(t, "profile_experience.html"))
		}
	}

	record := e.ExtractWithRetry(context.Background(), p)
	require.Equal(t, 1, retries)
	require.Equal(t, "Jane Doe", record.Name)
	require.Equal(t, "Staff Engineer", record.Role)
	require.Equal(t, "Acme Corp", record.Company)
	require.Equal(t, "https://www.linkedin.com/in/jane-doe/", record.CanonicalURL)
	// the fixture's contact panel never renders, so the click finds nothing
	require.Equal(t, "", record.Email)
	require.Equal(t, []string{"Contact info"}, p.Clicks())
	require.Equal(t, 1, p.Escapes())
}

func TestExtractWithRetryExhausted(t *testing.T) {
	e, tel, clock := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/jane-doe/", `<main><h1>Jane Doe</h1><button>Follow</button></main>`)

	record := e.ExtractWithRetry(context.Background(), p)
	require.Equal(t, ExtractedRecord{
		Name:         "Jane Doe",
		CanonicalURL: "https://www.linkedin.com/in/jane-doe/",
	}, record)

	retryDelays := 0
	for _, d := range clock.Slept {
		if d == e.opts.RetryDelay {
			retryDelays++
		}
	}
	require.Equal(t, e.opts.Attempts-1, retryDelays)
	require.True(t, tel.Has(telemetry.REPORT_WARNING, report_extractor_relationship))
}

func TestExtractWithRetryDismissesDialog(t *testing.T) {
	e, _, _ := newTestExtractor()
	clean := `<main><section><h1>Jane Doe</h1><div class="text-body-medium">Engineer at Acme</div></section></main>`
	p := page.NewStaticPage(
		"https://www.linkedin.com/in/jane-doe/",
		clean+`<div role="dialog"><h2>Sam Lee</h2><button aria-label="Dismiss">Dismiss</button></div>`,
	)
	p.OnClick = func(p *page.StaticPage, target *goquery.Selection) {
		if target.AttrOr("aria-label", "") == "Dismiss" {
			p.SetHTML(clean)
		}
	}

	record := e.ExtractWithRetry(context.Background(), p)
	require.Equal(t, []string{"Dismiss"}, p.Clicks())
	require.Equal(t, "Jane Doe", record.Name)
	require.Equal(t, "Engineer", record.Role)
}

func TestExtractWithRetryEmailOnAcceptedPass(t *testing.T) {
	e, _, _ := newTestExtractor()
	p := page.NewStaticPage("https://www.linkedin.com/in/alex-kim/", testutil.Fixture(t, "profile_headline.html"))
	revealOnClick(p, `<a href="mailto:alex@initech.example">alex@initech.example</a>`)

	record := e.ExtractWithRetry(context.Background(), p)
	require.Equal(t, "Alex Kim", record.Name)
	require.Equal(t, "Founder", record.Role)
	require.Equal(t, "alex@initech.example", record.Email)
	require.Equal(t, 1, p.Escapes())
}
