// Package airtable is a small client for the Airtable REST API, it covers listing
// records by formula, creating and patching them.
package airtable

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"prospect-sync/internal/components/assert"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.airtable.com/v0"

const (
	report_client_list   = "client.list"
	report_client_create = "client.create"
	report_client_update = "client.update"
)

// Record is a row of a table.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// Base identifies a base and the token used to access it.
type Base struct {
	APIKey string
	ID     string
}

type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// RequestsPerSecond defaults to 5, the per-base limit of the service.
	RequestsPerSecond float64
	// Output receives request/response dumps when not nil.
	Output restyutil.InstrumentOutput
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(tel telemetry.API, opts Options) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("airtable", tel)

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(time.Second * 30)

	// max burst >= rps just means that no requests will be dropped
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(client, tel, opts.Output)

	return &Client{http: client, tel: tel}
}

func (c *Client) request(ctx context.Context, base Base, table string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(base.APIKey).
		SetPathParams(map[string]string{
			"base":  base.ID,
			"table": table,
		})
}

func (c *Client) check(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}
	return parseError(res.StatusCode(), res.Request.Method, res.Request.URL, res.Body())
}

type ListOptions struct {
	FilterByFormula string
	// MaxRecords limits the total number of records returned, 0 means no limit.
	MaxRecords int
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// List returns the records of `table` matching opts, following pagination.
func (c *Client) List(ctx context.Context, base Base, table string, opts ListOptions) ([]Record, error) {
	var records []Record
	offset := ""
	for {
		req := c.request(ctx, base, table)
		if opts.FilterByFormula != "" {
			req.SetQueryParam("filterByFormula", opts.FilterByFormula)
		}
		if opts.MaxRecords > 0 {
			req.SetQueryParam("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		if offset != "" {
			req.SetQueryParam("offset", offset)
		}

		var page listResponse
		res, err := req.SetResult(&page).Get("/{base}/{table}")
		if err != nil {
			c.tel.ReportBroken(report_client_list, err, table)
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		err = c.check(res)
		if err != nil {
			return nil, err
		}

		records = append(records, page.Records...)
		if page.Offset == "" || (opts.MaxRecords > 0 && len(records) >= opts.MaxRecords) {
			break
		}
		offset = page.Offset
	}

	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	c.tel.ReportCount(report_client_list, int64(len(records)))
	return records, nil
}

type fieldsBody struct {
	Fields map[string]any `json:"fields"`
}

// Create inserts a record into `table`.
func (c *Client) Create(ctx context.Context, base Base, table string, fields map[string]any) (Record, error) {
	var record Record
	res, err := c.request(ctx, base, table).
		SetBody(fieldsBody{Fields: fields}).
		SetResult(&record).
		Post("/{base}/{table}")
	if err != nil {
		c.tel.ReportBroken(report_client_create, err, table)
		return Record{}, fmt.Errorf("create in %s: %w", table, err)
	}
	err = c.check(res)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Update patches the given fields of record `id`, other fields are left untouched.
func (c *Client) Update(ctx context.Context, base Base, table, id string, fields map[string]any) (Record, error) {
	var record Record
	res, err := c.request(ctx, base, table).
		SetPathParam("id", id).
		SetBody(fieldsBody{Fields: fields}).
		SetResult(&record).
		Patch("/{base}/{table}/{id}")
	if err != nil {
		c.tel.ReportBroken(report_client_update, err, table, id)
		return Record{}, fmt.Errorf("update %s in %s: %w", id, table, err)
	}
	err = c.check(res)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}
