// Package prospector sequences a full prospecting action: profile extraction,
// the companion pass over the affiliated company page, and saving.
package prospector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prospect-sync/internal/components/assert"
	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/dispatch"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/page"
	"prospect-sync/internal/prospects"
	"prospect-sync/internal/settings"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("internal/prospector")

const (
	report_service_extract_profile = "service.extract-profile"
	report_service_companion       = "service.companion"
	report_service_company_match   = "service.company-match"
)

// ErrNotProfile is returned when the url given to ExtractProfile is not a
// profile page.
var ErrNotProfile = errors.New("not a linkedin profile page, urls look like https://www.linkedin.com/in/<handle>/")

const profilePathMarker = "linkedin.com/in/"

// companyMatchThreshold is the Jaro-Winkler similarity below which the
// extracted company and the companion page name are considered different.
const companyMatchThreshold = 0.8

type Options struct {
	// CompanionReadyTimeout caps the wait for the companion page to render.
	CompanionReadyTimeout time.Duration
	// CompanionSettleDelay is waited after the companion page is ready.
	CompanionSettleDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		CompanionReadyTimeout: 10 * time.Second,
		CompanionSettleDelay:  2 * time.Second,
	}
}

type Service struct {
	tel       telemetry.API
	clock     chrono.API
	opts      Options
	extractor extractor.Extractor
	pages     page.Opener
	client    prospects.Client
	settings  settings.Store
}

func NewService(
	tel telemetry.API,
	clock chrono.API,
	opts Options,
	ext extractor.Extractor,
	pages page.Opener,
	client prospects.Client,
	store settings.Store,
) Service {
	assert.NotNil(tel)
	assert.NotNil(clock)
	assert.NotNil(pages)
	return Service{
		tel:       telemetry.NewScopedAPI("prospector", tel),
		clock:     clock,
		opts:      opts,
		extractor: ext,
		pages:     pages,
		client:    client,
		settings:  store,
	}
}

// Register binds every command kind to the service.
func (s Service) Register(d *dispatch.Dispatcher) error {
	return errors.Join(
		d.Register(dispatch.ExtractProfile, s.handleExtractProfile),
		d.Register(dispatch.ExtractRelated, s.handleExtractRelated),
		d.Register(dispatch.SaveRecord, s.handleSave),
	)
}

func (s Service) handleExtractProfile(ctx context.Context, cmd dispatch.Command) (dispatch.Result, error) {
	extraction, message, err := s.ExtractProfile(ctx, cmd.URL)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Profile: &extraction, Message: message}, nil
}

func (s Service) handleExtractRelated(ctx context.Context, cmd dispatch.Command) (dispatch.Result, error) {
	related, err := s.ExtractRelated(ctx, cmd.URL)
	if err != nil {
		return dispatch.Result{}, err
	}
	if related.DisplayName == "" {
		return dispatch.Result{Related: &related, Message: companionEmpty.message()}, nil
	}
	return dispatch.Result{Related: &related, Message: companionExtracted.message()}, nil
}

func (s Service) handleSave(ctx context.Context, cmd dispatch.Command) (dispatch.Result, error) {
	saved, err := s.Save(ctx, cmd.Record, cmd.Related)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Saved: &saved, Message: "Saved successfully! ✓"}, nil
}

// ExtractProfile opens the profile at `url` and extracts it. If the current
// experience entry links to a company page, that page is opened too and its
// related entity returned alongside. The returned message describes the outcome
// for the operator.
func (s Service) ExtractProfile(ctx context.Context, url string) (dispatch.Extraction, string, error) {
	ctx, span := tracer.Start(ctx, "ExtractProfile")
	defer span.End()

	if !strings.Contains(url, profilePathMarker) {
		return dispatch.Extraction{}, "", ErrNotProfile
	}

	p, closePage, err := s.pages.Open(ctx, url)
	if err != nil {
		return dispatch.Extraction{}, "", fmt.Errorf("open profile: %w", err)
	}
	defer func() {
		if err := closePage(); err != nil {
			s.tel.ReportWarning(report_service_extract_profile, "close profile page", err)
		}
	}()

	record := s.extractor.ExtractWithRetry(ctx, p)
	status := Classify(record)
	extraction := dispatch.Extraction{Record: record, Status: string(status)}
	span.SetAttributes(attribute.String("status", string(status)))

	if record.CompanionKey == "" {
		return extraction, status.Message(), nil
	}

	related, outcome := s.companion(ctx, record.CompanionKey)
	if outcome == companionExtracted {
		extraction.Related = &related
		s.checkCompany(record.Company, related.DisplayName)
	}
	return extraction, outcome.message(), nil
}

func (s Service) companion(ctx context.Context, url string) (extractor.RelatedEntity, companionOutcome) {
	related, err := s.ExtractRelated(ctx, url)
	if err != nil {
		s.tel.ReportWarning(report_service_companion, url, err)
		return extractor.RelatedEntity{}, companionUnreachable
	}
	if related.DisplayName == "" {
		return related, companionEmpty
	}
	return related, companionExtracted
}

// ExtractRelated opens the company page at `url`, waits for it to render and
// extracts the related entity. The page is always closed.
func (s Service) ExtractRelated(ctx context.Context, url string) (extractor.RelatedEntity, error) {
	ctx, span := tracer.Start(ctx, "ExtractRelated")
	defer span.End()

	p, closePage, err := s.pages.Open(ctx, url)
	if err != nil {
		return extractor.RelatedEntity{}, fmt.Errorf("open company page: %w", err)
	}
	defer func() {
		if err := closePage(); err != nil {
			s.tel.ReportWarning(report_service_companion, "close company page", err)
		}
	}()

	if page.WaitForElement(ctx, p, "h1", s.opts.CompanionReadyTimeout) == nil {
		s.tel.ReportDebug("company page did not become ready", url)
	}
	err = s.clock.Sleep(ctx, s.opts.CompanionSettleDelay)
	if err != nil {
		return extractor.RelatedEntity{}, err
	}

	location, err := p.URL(ctx)
	if err != nil {
		location = url
	}
	doc, err := p.Document(ctx)
	if err != nil {
		return extractor.RelatedEntity{}, fmt.Errorf("read company page: %w", err)
	}
	return s.extractor.ExtractRelated(doc, location), nil
}

func (s Service) checkCompany(company, related string) {
	if company == "" || related == "" {
		return
	}
	similarity := matchr.JaroWinkler(strings.ToLower(company), strings.ToLower(related), false)
	if similarity < companyMatchThreshold {
		s.tel.ReportWarning(report_service_company_match, company, related, similarity)
	}
}

// Save writes the record (and its related entity, if any) with the credentials
// currently in the settings store.
func (s Service) Save(ctx context.Context, record extractor.ExtractedRecord, related *extractor.RelatedEntity) (prospects.RemoteRecord, error) {
	creds, err := s.settings.Credentials(ctx)
	if err != nil {
		return prospects.RemoteRecord{}, fmt.Errorf("load credentials: %w", err)
	}
	return s.client.Upsert(ctx, record, related, creds)
}
