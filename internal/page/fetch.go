package page

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"prospect-sync/internal/components/telemetry"
	"prospect-sync/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_fetcher_open = "fetcher.open"

// Fetcher opens pages by downloading their HTML. Nothing is executed, so it only
// works for pages that are server rendered.
type Fetcher struct {
	http *resty.Client
	tel  telemetry.API
}

type FetcherOptions struct {
	// Cookie is sent as-is with every request (ex. a session cookie copied from a browser).
	Cookie string
	// Output receives request/response dumps when not nil.
	Output restyutil.InstrumentOutput
}

func NewFetcher(tel telemetry.API, opts FetcherOptions) (Fetcher, error) {
	tel = telemetry.NewScopedAPI("page", tel)

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Fetcher{}, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.Cookie != "" {
		client.SetHeader("cookie", opts.Cookie)
	}
	client.SetTimeout(time.Second * 30)

	// 1 request per second, these are someone else's servers
	rateLimiter := rate.NewLimiter(1, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(client, tel, opts.Output)

	return Fetcher{http: client, tel: tel}, nil
}

func (f Fetcher) Open(ctx context.Context, url string) (Page, func() error, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetch %s: %s", url, res.Status())
		f.tel.ReportBroken(report_fetcher_open, err)
		return nil, nil, err
	}

	// make sure the body is at least parseable before handing it off
	_, err = goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		f.tel.ReportBroken(report_fetcher_open, fmt.Errorf("parse document: %w", err))
		return nil, nil, err
	}

	location := url
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		location = res.RawResponse.Request.URL.String()
	}
	return NewStaticPage(location, string(res.Body())), func() error { return nil }, nil
}
