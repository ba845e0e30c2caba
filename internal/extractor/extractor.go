// Package extractor reads profile and company fields out of a page's DOM.
//
// Every field is produced by an ordered chain of independent matchers, the first
// matcher that finds something wins. Extraction never fails: missing or
// unexpected markup degrades to empty fields and a telemetry report.
package extractor

import (
	"fmt"
	"net/url"
	"time"

	"prospect-sync/internal/components/assert"
	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_extract            = "extractor.extract"
	report_extractor_extract_related    = "extractor.extract-related"
	report_extractor_relationship       = "extractor.relationship"
	report_extractor_retrieve_email     = "extractor.retrieve-email"
	report_extractor_extract_with_retry = "extractor.extract-with-retry"
	report_extractor_dismiss_overlays   = "extractor.dismiss-overlays"
)

// Options holds the waits and bounds of the extraction sequence.
type Options struct {
	// Attempts is the maximum number of whole-record extraction passes.
	Attempts int
	// RetryDelay separates two extraction passes.
	RetryDelay time.Duration
	// ReadyTimeout bounds the wait for the page's first heading.
	ReadyTimeout time.Duration
	// SettleDelay is waited after the page is ready, before the first pass.
	SettleDelay time.Duration
	// DismissDelay is waited after closing a dialog left open on the page.
	DismissDelay time.Duration
	// RevealDelay is waited after opening the contact panel.
	RevealDelay time.Duration
	// EmailTimeout bounds the wait for a mailto link in the contact panel.
	EmailTimeout time.Duration
	// CloseDelay is waited before the contact panel is closed.
	CloseDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Attempts:     3,
		RetryDelay:   time.Second,
		ReadyTimeout: 10 * time.Second,
		SettleDelay:  500 * time.Millisecond,
		DismissDelay: 300 * time.Millisecond,
		RevealDelay:  time.Second,
		EmailTimeout: 5 * time.Second,
		CloseDelay:   500 * time.Millisecond,
	}
}

type Extractor struct {
	tel   telemetry.API
	clock chrono.API
	opts  Options
}

func New(tel telemetry.API, clock chrono.API, opts Options) Extractor {
	assert.NotNil(tel)
	assert.NotNil(clock)
	assert.Positive(opts.Attempts)

	return Extractor{
		tel:   telemetry.NewScopedAPI("extractor", tel),
		clock: clock,
		opts:  opts,
	}
}

// Extract reads a profile record out of `doc`. `pageURL` is the location the
// document was loaded from, it becomes the record's canonical url and the base
// for relative links. When it is empty, the document's canonical link is used.
func (e Extractor) Extract(doc *goquery.Document, pageURL string) (record ExtractedRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.tel.ReportBroken(report_extractor_extract, fmt.Errorf("panic: %v", r))
			record = ExtractedRecord{CanonicalURL: CanonicalURL(pageURL)}
		}
	}()

	if pageURL == "" {
		pageURL = doc.Find(`link[rel="canonical"]`).AttrOr("href", "")
	}
	record.CanonicalURL = CanonicalURL(pageURL)
	base, _ := url.Parse(record.CanonicalURL)

	record.Name = firstMatch(doc, nameChain)
	record.Role = firstMatch(doc, roleChain)
	record.Company = firstMatch(doc, companyChain(record.Name, record.Role))
	record.CompanionKey = companionKey(doc, base)

	found := classifyRelationship(doc)
	if found == affordanceNone {
		e.tel.ReportWarning(report_extractor_relationship, "no relationship affordance found", record.CanonicalURL)
	}
	record.Flags = found.flags()

	e.tel.ReportDebug(
		"extracted profile",
		record.Name,
		record.Role,
		record.Company,
		found.String(),
	)
	return record
}

// ExtractRelated reads the affiliated organization out of a company page.
func (e Extractor) ExtractRelated(doc *goquery.Document, pageURL string) (entity RelatedEntity) {
	defer func() {
		if r := recover(); r != nil {
			e.tel.ReportBroken(report_extractor_extract_related, fmt.Errorf("panic: %v", r))
			entity = RelatedEntity{LocationLabel: DefaultLocationLabel}
		}
	}()

	base, _ := url.Parse(pageURL)
	entity = RelatedEntity{
		DisplayName:   relatedName(doc),
		Website:       relatedWebsite(doc, base),
		LocationLabel: relatedLocation(doc),
	}
	e.tel.ReportDebug("extracted related entity", entity.DisplayName, entity.Website)
	return entity
}
