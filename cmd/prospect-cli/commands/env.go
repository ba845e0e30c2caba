package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"prospect-sync/internal/airtable"
	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/dispatch"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/page"
	"prospect-sync/internal/page/chrome"
	"prospect-sync/internal/prospector"
	"prospect-sync/internal/prospects"
	"prospect-sync/internal/settings"
	"prospect-sync/lib/restyutil"
)

// env holds everything a command needs, Close releases it in reverse order.
type env struct {
	config     Config
	tel        telemetry.API
	clock      chrono.API
	store      settings.Store
	extractor  extractor.Extractor
	dispatcher *dispatch.Dispatcher

	closers []func() error
}

func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

func (e *env) dumpOutput(name string) (restyutil.InstrumentOutput, error) {
	if e.config.DumpDir == "" {
		return nil, nil
	}
	return restyutil.NewFilesystemOutput(filepath.Join(e.config.DumpDir, name))
}

// newBaseEnv loads the config and opens the settings store.
func newBaseEnv(ctx context.Context) (*env, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	e := &env{
		config: config,
		tel:    telemetry.SlogAPI{},
		clock:  chrono.StandardImpl{},
	}
	e.extractor = extractor.New(e.tel, e.clock, config.Timing.extractorOptions())

	database, err := config.Settings.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	e.closers = append(e.closers, database.Close)

	e.store, err = settings.NewStore(ctx, database, e.clock)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// newEnv is newBaseEnv plus a page opener and the prospector wired to a
// dispatcher. With `static`, pages are fetched over http instead of opened in
// the browser.
func newEnv(ctx context.Context, static bool) (*env, error) {
	e, err := newBaseEnv(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := e.opener(ctx, static)
	if err != nil {
		e.Close()
		return nil, err
	}

	airtableOutput, err := e.dumpOutput("airtable")
	if err != nil {
		e.Close()
		return nil, err
	}
	remote := airtable.NewClient(e.tel, airtable.Options{
		BaseURL:           e.config.Airtable.BaseURL,
		RequestsPerSecond: e.config.Airtable.RequestsPerSecond,
		Output:            airtableOutput,
	})
	client := prospects.NewClient(remote, e.config.Schema, e.tel)

	service := prospector.NewService(
		e.tel,
		e.clock,
		e.config.Timing.serviceOptions(),
		e.extractor,
		pages,
		client,
		e.store,
	)
	e.dispatcher = dispatch.NewDispatcher()
	err = service.Register(e.dispatcher)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) opener(ctx context.Context, static bool) (page.Opener, error) {
	if static {
		output, err := e.dumpOutput("fetch")
		if err != nil {
			return nil, err
		}
		fetcher, err := page.NewFetcher(e.tel, page.FetcherOptions{
			Cookie: e.config.Fetch.Cookie,
			Output: output,
		})
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	}

	browser, err := chrome.NewBrowser(ctx, e.config.Browser, e.tel)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	e.closers = append(e.closers, browser.Close)
	return browser, nil
}
