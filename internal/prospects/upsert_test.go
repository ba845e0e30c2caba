package prospects

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"prospect-sync/internal/airtable"
	"prospect-sync/internal/airtable/airtabletest"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/settings"

	"github.com/stretchr/testify/require"
)

const (
	testKey   = "patTEST.123"
	testBase  = "appTEST123"
	testTable = "Profiles"
)

var testCreds = settings.Credentials{
	APIKey:         testKey,
	StoreID:        testBase,
	CollectionName: testTable,
}

var jane = extractor.ExtractedRecord{
	Name:         "Jane Doe",
	Role:         "Head of Growth",
	Company:      "Acme",
	CanonicalURL: "https://www.linkedin.com/in/jane-doe/",
	Flags:        extractor.RelationshipFlags{RequestSent: true},
}

func setup(t testing.TB) (Client, *airtabletest.Server, *telemetry.RecordingAPI) {
	server := airtabletest.NewServer(testKey, testBase, testTable, "Brands")
	t.Cleanup(server.Close)
	tel := &telemetry.RecordingAPI{}
	remote := airtable.NewClient(tel, airtable.Options{
		BaseURL:           server.BaseURL(),
		RequestsPerSecond: 100,
	})
	return NewClient(remote, DefaultFieldSchema(), tel), server, tel
}

func TestUpsertCreates(t *testing.T) {
	client, server, _ := setup(t)

	created, err := client.Upsert(context.Background(), jane, nil, testCreds)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.Len(t, server.CallsTo(http.MethodGet, testTable), 1)
	posts := server.CallsTo(http.MethodPost, testTable)
	require.Len(t, posts, 1)
	require.Equal(t, map[string]any{
		"Name":                   "Jane Doe",
		"Role":                   "Head of Growth",
		"LinkedIn URL":           "https://www.linkedin.com/in/jane-doe/",
		"Email":                  "",
		"LI Connection Request?": true,
		"Connected?":             false,
	}, posts[0].Fields)
	require.Empty(t, server.CallsTo(http.MethodGet, "Brands"))
}

func TestUpsertWritesConfiguredCompanyColumn(t *testing.T) {
	server := airtabletest.NewServer(testKey, testBase, testTable, "Brands")
	t.Cleanup(server.Close)
	tel := &telemetry.RecordingAPI{}
	remote := airtable.NewClient(tel, airtable.Options{
		BaseURL:           server.BaseURL(),
		RequestsPerSecond: 100,
	})
	schema := DefaultFieldSchema()
	schema.Company = "Company"
	client := NewClient(remote, schema, tel)

	_, err := client.Upsert(context.Background(), jane, nil, testCreds)
	require.NoError(t, err)
	posts := server.CallsTo(http.MethodPost, testTable)
	require.Len(t, posts, 1)
	require.Equal(t, "Acme", posts[0].Fields["Company"])
}

func TestUpsertIsIdempotent(t *testing.T) {
	client, server, _ := setup(t)
	ctx := context.Background()

	first, err := client.Upsert(ctx, jane, nil, testCreds)
	require.NoError(t, err)

	again := jane
	again.Flags.Connected = true
	second, err := client.Upsert(ctx, again, nil, testCreds)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, server.CallsTo(http.MethodPost, testTable), 1)
	patches := server.CallsTo(http.MethodPatch, testTable)
	require.Len(t, patches, 1)
	require.Equal(t, first.ID, patches[0].ID)

	records := server.Records(testTable)
	require.Len(t, records, 1)
	require.Equal(t, true, records[0].Fields["Connected?"])
}

func TestUpsertUpdatesExisting(t *testing.T) {
	client, server, _ := setup(t)
	id := server.Seed(testTable, map[string]any{
		"Name":         "J. Doe",
		"LinkedIn URL": jane.CanonicalURL,
		"Notes":        "met at conference",
	})

	updated, err := client.Upsert(context.Background(), jane, nil, testCreds)
	require.NoError(t, err)
	require.Equal(t, id, updated.ID)
	require.Empty(t, server.CallsTo(http.MethodPost, testTable))

	records := server.Records(testTable)
	require.Len(t, records, 1)
	require.Equal(t, "Jane Doe", records[0].Fields["Name"])
	require.Equal(t, "met at conference", records[0].Fields["Notes"])
}

func TestUpsertDuplicatesWarn(t *testing.T) {
	client, server, tel := setup(t)
	first := server.Seed(testTable, map[string]any{"LinkedIn URL": jane.CanonicalURL})
	server.Seed(testTable, map[string]any{"LinkedIn URL": jane.CanonicalURL})

	updated, err := client.Upsert(context.Background(), jane, nil, testCreds)
	require.NoError(t, err)
	require.Equal(t, first, updated.ID)
	require.True(t, tel.Has(telemetry.REPORT_WARNING, report_client_upsert))
}

func TestUpsertRequiresConfiguration(t *testing.T) {
	table := []struct {
		name    string
		creds   settings.Credentials
		missing string
	}{
		{
			name:    "api key",
			creds:   settings.Credentials{StoreID: testBase, CollectionName: testTable},
			missing: "API key",
		},
		{
			name:    "base id",
			creds:   settings.Credentials{APIKey: testKey, CollectionName: testTable},
			missing: "Base ID",
		},
		{
			name:    "table name",
			creds:   settings.Credentials{APIKey: testKey, StoreID: testBase},
			missing: "Table name",
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			client, server, _ := setup(t)

			_, err := client.Upsert(context.Background(), jane, nil, test.creds)
			var configErr *ConfigurationError
			require.True(t, errors.As(err, &configErr))
			require.Equal(t, []string{test.missing}, configErr.Missing)
			require.Contains(t, err.Error(), "settings set")
			require.Empty(t, server.Calls())
		})
	}
}

func TestUpsertRequiresCanonicalURL(t *testing.T) {
	client, server, _ := setup(t)

	record := jane
	record.CanonicalURL = ""
	_, err := client.Upsert(context.Background(), record, nil, testCreds)
	require.ErrorIs(t, err, ErrNoNaturalKey)
	require.Empty(t, server.Calls())
}

func TestUpsertNotFound(t *testing.T) {
	client, server, _ := setup(t)
	server.Fail = func(method, table string) *airtabletest.Failure {
		if method == http.MethodPost {
			return &airtabletest.Failure{StatusCode: http.StatusNotFound, Body: `{"error":"NOT_FOUND"}`}
		}
		return nil
	}

	_, err := client.Upsert(context.Background(), jane, nil, testCreds)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, testBase, notFound.StoreID)
	require.Equal(t, testTable, notFound.CollectionName)
	require.Contains(t, err.Error(), testBase)
	require.Contains(t, err.Error(), `"Profiles"`)

	var apiErr *airtable.APIError
	require.True(t, errors.As(err, &apiErr))
}

func TestUpsertWrongTable(t *testing.T) {
	client, _, _ := setup(t)

	creds := testCreds
	creds.CollectionName = "Prospects"
	_, err := client.Upsert(context.Background(), jane, nil, creds)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "Prospects", notFound.CollectionName)
}

func TestUpsertSearchFailurePropagates(t *testing.T) {
	client, server, _ := setup(t)
	server.Fail = func(method, table string) *airtabletest.Failure {
		if method == http.MethodGet && table == testTable {
			return &airtabletest.Failure{
				StatusCode: http.StatusUnprocessableEntity,
				Body:       `{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"Unknown field names: linkedin url"}}`,
			}
		}
		return nil
	}

	_, err := client.Upsert(context.Background(), jane, nil, testCreds)
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(err.Error(), "Unknown field names"), err.Error())
	var apiErr *airtable.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Empty(t, server.CallsTo(http.MethodPost, testTable))
}

func TestUpsertCreatesRelated(t *testing.T) {
	client, server, _ := setup(t)
	related := &extractor.RelatedEntity{
		DisplayName:   "Acme",
		Website:       "https://acme.example",
		LocationLabel: "San Francisco, CA",
	}

	created, err := client.Upsert(context.Background(), jane, related, testCreds)
	require.NoError(t, err)

	brands := server.Records("Brands")
	require.Len(t, brands, 1)
	require.Equal(t, map[string]any{
		"Brand Name":    "Acme",
		"Brand Website": "https://acme.example",
		"Location":      "San Francisco, CA",
		"Temperature":   "Cold",
	}, brands[0].Fields)

	require.Equal(t, []any{brands[0].ID}, created.Fields["Brand"])
}

func TestUpsertUpdatesRelated(t *testing.T) {
	client, server, _ := setup(t)
	brandID := server.Seed("Brands", map[string]any{
		"Brand Name":  "Acme",
		"Temperature": "Warm",
	})
	related := &extractor.RelatedEntity{DisplayName: "Acme", LocationLabel: "LinkedIn"}

	created, err := client.Upsert(context.Background(), jane, related, testCreds)
	require.NoError(t, err)

	require.Empty(t, server.CallsTo(http.MethodPost, "Brands"))
	patches := server.CallsTo(http.MethodPatch, "Brands")
	require.Len(t, patches, 1)
	require.NotContains(t, patches[0].Fields, "Temperature")

	brands := server.Records("Brands")
	require.Len(t, brands, 1)
	require.Equal(t, "Warm", brands[0].Fields["Temperature"])
	require.Equal(t, "LinkedIn", brands[0].Fields["Location"])
	require.Equal(t, []any{brandID}, created.Fields["Brand"])
}

func TestUpsertRelatedFailureIsIgnored(t *testing.T) {
	client, server, tel := setup(t)
	server.Fail = func(method, table string) *airtabletest.Failure {
		if table == "Brands" {
			return &airtabletest.Failure{StatusCode: http.StatusForbidden, Body: `{"error":{"type":"INVALID_PERMISSIONS","message":"no access"}}`}
		}
		return nil
	}

	created, err := client.Upsert(context.Background(), jane, &extractor.RelatedEntity{DisplayName: "Acme"}, testCreds)
	require.NoError(t, err)
	require.NotContains(t, created.Fields, "Brand")
	require.True(t, tel.Has(telemetry.REPORT_BROKEN, report_client_upsert_related))
	require.Len(t, server.CallsTo(http.MethodPost, testTable), 1)
}
