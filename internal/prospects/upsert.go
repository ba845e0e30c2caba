// Package prospects writes extracted profiles to the remote table, creating them
// or updating the existing record with the same canonical url.
package prospects

import (
	"context"
	"fmt"

	"prospect-sync/internal/airtable"
	"prospect-sync/internal/components/assert"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/settings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("internal/prospects")
var meter = otel.Meter("internal/prospects")
var upsertCounter, _ = meter.Int64Counter(
	"prospects.upserts",
	metric.WithDescription("upserts by outcome (created, updated, failed)"),
)

const (
	report_client_upsert         = "client.upsert"
	report_client_upsert_related = "client.upsert-related"
)

// RemoteRecord is the record as stored by the service.
type RemoteRecord = airtable.Record

type Client struct {
	remote *airtable.Client
	schema FieldSchema
	tel    telemetry.API
}

func NewClient(remote *airtable.Client, schema FieldSchema, tel telemetry.API) Client {
	assert.NotNil(remote)
	assert.NotNil(tel)
	return Client{
		remote: remote,
		schema: schema,
		tel:    telemetry.NewScopedAPI("prospects", tel),
	}
}

func validate(creds settings.Credentials) error {
	var missing []string
	if creds.APIKey == "" {
		missing = append(missing, "API key")
	}
	if creds.StoreID == "" {
		missing = append(missing, "Base ID")
	}
	if creds.CollectionName == "" {
		missing = append(missing, "Table name")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Upsert creates `record` in the credentials' table, or updates the record with
// the same canonical url if there is one. When `related` has a display name it is
// upserted into the related table first and linked, failures there are reported
// and otherwise ignored.
func (c Client) Upsert(ctx context.Context, record extractor.ExtractedRecord, related *extractor.RelatedEntity, creds settings.Credentials) (RemoteRecord, error) {
	ctx, span := tracer.Start(ctx, "Upsert")
	defer span.End()

	fail := func(err error) (RemoteRecord, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		upsertCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return RemoteRecord{}, err
	}

	err := validate(creds)
	if err != nil {
		return fail(err)
	}
	if record.CanonicalURL == "" {
		return fail(ErrNoNaturalKey)
	}

	base := airtable.Base{APIKey: creds.APIKey, ID: creds.StoreID}
	table := creds.CollectionName
	span.SetAttributes(
		attribute.String("base", base.ID),
		attribute.String("table", table),
	)

	var relatedID string
	if related != nil && related.DisplayName != "" {
		relatedID, err = c.upsertRelated(ctx, base, *related)
		if err != nil {
			c.tel.ReportBroken(report_client_upsert_related, err, related.DisplayName)
		}
	}

	existing, err := c.remote.List(ctx, base, table, airtable.ListOptions{
		FilterByFormula: airtable.EqualsFormula(c.schema.CanonicalURL, record.CanonicalURL),
		MaxRecords:      2,
	})
	if err != nil {
		return fail(enrich(err, table, base))
	}
	if len(existing) > 1 {
		c.tel.ReportWarning(report_client_upsert, "more than one record has the same canonical url", record.CanonicalURL)
	}

	fields := map[string]any{}
	put(fields, c.schema.Name, record.Name)
	put(fields, c.schema.Role, record.Role)
	put(fields, c.schema.Company, record.Company)
	put(fields, c.schema.CanonicalURL, record.CanonicalURL)
	put(fields, c.schema.Email, record.Email)
	put(fields, c.schema.RequestSent, record.Flags.RequestSent)
	put(fields, c.schema.Connected, record.Flags.Connected)
	if relatedID != "" {
		// linked record columns take a list of record ids
		put(fields, c.schema.RelatedLink, []string{relatedID})
	}

	var result RemoteRecord
	outcome := "created"
	if len(existing) > 0 {
		outcome = "updated"
		result, err = c.remote.Update(ctx, base, table, existing[0].ID, fields)
	} else {
		result, err = c.remote.Create(ctx, base, table, fields)
	}
	if err != nil {
		return fail(enrich(err, table, base))
	}

	upsertCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	c.tel.ReportDebug("upserted record", outcome, result.ID, record.CanonicalURL)
	return result, nil
}

func (c Client) upsertRelated(ctx context.Context, base airtable.Base, related extractor.RelatedEntity) (string, error) {
	table := c.schema.RelatedTable
	existing, err := c.remote.List(ctx, base, table, airtable.ListOptions{
		FilterByFormula: airtable.EqualsFormula(c.schema.RelatedName, related.DisplayName),
		MaxRecords:      1,
	})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", table, enrich(err, table, base))
	}

	fields := map[string]any{}
	put(fields, c.schema.RelatedName, related.DisplayName)
	put(fields, c.schema.RelatedWebsite, related.Website)
	put(fields, c.schema.RelatedLocation, related.LocationLabel)

	if len(existing) > 0 {
		updated, err := c.remote.Update(ctx, base, table, existing[0].ID, fields)
		if err != nil {
			return "", fmt.Errorf("update %s: %w", table, enrich(err, table, base))
		}
		return updated.ID, nil
	}

	put(fields, c.schema.FirstCreationField, c.schema.FirstCreationValue)
	created, err := c.remote.Create(ctx, base, table, fields)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", table, enrich(err, table, base))
	}
	return created.ID, nil
}
