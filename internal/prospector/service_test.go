package prospector

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"prospect-sync/internal/airtable"
	"prospect-sync/internal/airtable/airtabletest"
	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/dispatch"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/page"
	"prospect-sync/internal/prospects"
	"prospect-sync/internal/settings"
	"prospect-sync/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const (
	profileURL = "https://www.linkedin.com/in/jane-doe/"
	companyURL = "https://www.linkedin.com/company/acme/"

	testKey  = "patTEST.123"
	testBase = "appTEST123"
)

func TestMain(m *testing.M) {
	cleanup := testutil.SetupTelemetry("prospector")
	code := m.Run()
	cleanup()
	os.Exit(code)
}

type harness struct {
	service Service
	tel     *telemetry.RecordingAPI
	server  *airtabletest.Server
	store   settings.Store
}

func newHarness(t testing.TB, pages page.Opener) harness {
	ctx := context.Background()
	tel := &telemetry.RecordingAPI{}
	clock := &chrono.FakeImpl{Current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	opts := extractor.DefaultOptions()
	opts.ReadyTimeout = 100 * time.Millisecond
	opts.EmailTimeout = 50 * time.Millisecond
	ext := extractor.New(tel, clock, opts)

	server := airtabletest.NewServer(testKey, testBase, "Profiles", "Brands")
	t.Cleanup(server.Close)
	remote := airtable.NewClient(tel, airtable.Options{
		BaseURL:           server.BaseURL(),
		RequestsPerSecond: 100,
	})
	client := prospects.NewClient(remote, prospects.DefaultFieldSchema(), tel)

	database, err := settings.Config{File: settings.MemoryFile}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	store, err := settings.NewStore(ctx, database, clock)
	if err != nil {
		t.Fatal(err)
	}

	serviceOpts := DefaultOptions()
	serviceOpts.CompanionReadyTimeout = 100 * time.Millisecond

	return harness{
		service: NewService(tel, clock, serviceOpts, ext, pages, client, store),
		tel:     tel,
		server:  server,
		store:   store,
	}
}

// trackingOpener counts how many opened pages were closed again.
type trackingOpener struct {
	inner  page.Opener
	opened int
	closed int
}

func (o *trackingOpener) Open(ctx context.Context, url string) (page.Page, func() error, error) {
	p, closePage, err := o.inner.Open(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	o.opened++
	return p, func() error {
		o.closed++
		return closePage()
	}, nil
}

func TestClassify(t *testing.T) {
	require.Equal(t, StatusComplete, Classify(extractor.ExtractedRecord{Name: "Jane", Company: "Acme"}))
	require.Equal(t, StatusPartial, Classify(extractor.ExtractedRecord{Name: "Jane"}))
	require.Equal(t, StatusEmpty, Classify(extractor.ExtractedRecord{Role: "Engineer"}))
}

func TestExtractProfileWithCompanion(t *testing.T) {
	opener := &trackingOpener{inner: page.StaticOpener{
		profileURL: testutil.Fixture(t, "profile.html"),
		companyURL: testutil.Fixture(t, "company.html"),
	}}
	h := newHarness(t, opener)

	extraction, message, err := h.service.ExtractProfile(context.Background(), profileURL)
	require.NoError(t, err)

	expected := dispatch.Extraction{
		Record: extractor.ExtractedRecord{
			Name:         "Jane Doe",
			Role:         "Staff Engineer",
			Company:      "Acme Corp",
			CanonicalURL: profileURL,
			Flags:        extractor.RelationshipFlags{RequestSent: true, Connected: true},
			CompanionKey: companyURL,
		},
		Related: &extractor.RelatedEntity{
			DisplayName:   "Acme Corp",
			Website:       "https://acme.example/?utm_source=linkedin",
			LocationLabel: "Austin, Texas",
		},
		Status: string(StatusComplete),
	}
	if diff := cmp.Diff(expected, extraction); diff != "" {
		t.Fatalf("extraction mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Profile and brand data extracted! Review and save.", message)
	require.Equal(t, 2, opener.opened)
	require.Equal(t, 2, opener.closed)
	require.False(t, h.tel.Has(telemetry.REPORT_WARNING, report_service_company_match))
}

func TestExtractProfileCompanionUnreachable(t *testing.T) {
	h := newHarness(t, page.StaticOpener{profileURL: testutil.Fixture(t, "profile.html")})

	extraction, message, err := h.service.ExtractProfile(context.Background(), profileURL)
	require.NoError(t, err)
	require.Nil(t, extraction.Related)
	require.Equal(t, "Jane Doe", extraction.Record.Name)
	require.Equal(t, "Profile data extracted! Could not open brand page.", message)
	require.True(t, h.tel.Has(telemetry.REPORT_WARNING, report_service_companion))
}

func TestExtractProfileCompanyMismatch(t *testing.T) {
	h := newHarness(t, page.StaticOpener{
		profileURL: testutil.Fixture(t, "profile.html"),
		companyURL: `<main><h1>Globex Corporation</h1></main>`,
	})

	extraction, _, err := h.service.ExtractProfile(context.Background(), profileURL)
	require.NoError(t, err)
	require.Equal(t, "Globex Corporation", extraction.Related.DisplayName)
	require.True(t, h.tel.Has(telemetry.REPORT_WARNING, report_service_company_match))
}

func TestExtractProfileStatusMessages(t *testing.T) {
	const url = "https://www.linkedin.com/in/someone/"
	cases := []struct {
		html    string
		message string
	}{
		{
			html:    `<main><section><h1>Sam Lee</h1><div class="text-body-medium">Founder at Lee Labs</div></section></main>`,
			message: StatusComplete.Message(),
		},
		{
			html:    `<main><section><h1>Sam Lee</h1></section></main>`,
			message: StatusPartial.Message(),
		},
		{
			html:    `<main></main>`,
			message: StatusEmpty.Message(),
		},
	}

	for _, c := range cases {
		h := newHarness(t, page.StaticOpener{url: c.html})
		_, message, err := h.service.ExtractProfile(context.Background(), url)
		require.NoError(t, err)
		require.Equal(t, c.message, message, c.html)
	}
}

func TestExtractProfileRejectsOtherPages(t *testing.T) {
	opener := &trackingOpener{inner: page.StaticOpener{}}
	h := newHarness(t, opener)

	_, _, err := h.service.ExtractProfile(context.Background(), companyURL)
	require.ErrorIs(t, err, ErrNotProfile)
	require.Zero(t, opener.opened)
}

func TestSaveReloadsCredentials(t *testing.T) {
	h := newHarness(t, page.StaticOpener{})
	ctx := context.Background()
	record := extractor.ExtractedRecord{
		Name:         "Jane Doe",
		Role:         "Staff Engineer",
		CanonicalURL: profileURL,
	}

	_, err := h.service.Save(ctx, record, nil)
	var configErr *prospects.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	require.Empty(t, h.server.Calls())

	require.NoError(t, h.store.Set(ctx, map[string]string{
		settings.KeyAPIKey: testKey,
		settings.KeyBaseID: testBase,
	}))

	saved, err := h.service.Save(ctx, record, &extractor.RelatedEntity{DisplayName: "Acme Corp"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Len(t, h.server.CallsTo(http.MethodPost, "Profiles"), 1)
	require.Len(t, h.server.CallsTo(http.MethodPost, "Brands"), 1)
}

func TestDispatchThroughService(t *testing.T) {
	h := newHarness(t, page.StaticOpener{companyURL: testutil.Fixture(t, "company.html")})
	ctx := context.Background()

	d := dispatch.NewDispatcher()
	require.NoError(t, h.service.Register(d))

	result, err := d.Dispatch(ctx, dispatch.Command{Kind: dispatch.ExtractRelated, URL: companyURL})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", result.Related.DisplayName)

	require.NoError(t, h.store.Set(ctx, map[string]string{
		settings.KeyAPIKey: testKey,
		settings.KeyBaseID: testBase,
	}))
	result, err = d.Dispatch(ctx, dispatch.Command{
		Kind:    dispatch.SaveRecord,
		Record:  extractor.ExtractedRecord{Name: "Jane Doe", CanonicalURL: profileURL},
		Related: result.Related,
	})
	require.NoError(t, err)
	require.Equal(t, dispatch.SaveRecord, result.Kind)
	require.NotEmpty(t, result.Saved.ID)

	_, err = d.Dispatch(ctx, dispatch.Command{Kind: dispatch.ExtractProfile, URL: companyURL})
	require.ErrorIs(t, err, ErrNotProfile)
}
