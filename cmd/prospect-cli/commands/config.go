package commands

import (
	"time"

	"prospect-sync/internal/airtable"
	"prospect-sync/internal/extractor"
	"prospect-sync/internal/page/chrome"
	"prospect-sync/internal/prospector"
	"prospect-sync/internal/prospects"
	"prospect-sync/internal/settings"
	"prospect-sync/lib/configutil"
)

type AirtableConfig struct {
	BaseURL           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type FetchConfig struct {
	// Cookie is sent with every static fetch, ex. a copied li_at session cookie.
	Cookie string `json:"cookie"`
}

// TimingConfig is in milliseconds.
type TimingConfig struct {
	Attempts              int `json:"attempts"`
	RetryDelay            int `json:"retry_delay"`
	ReadyTimeout          int `json:"ready_timeout"`
	SettleDelay           int `json:"settle_delay"`
	DismissDelay          int `json:"dismiss_delay"`
	RevealDelay           int `json:"reveal_delay"`
	EmailTimeout          int `json:"email_timeout"`
	CloseDelay            int `json:"close_delay"`
	CompanionReadyTimeout int `json:"companion_ready_timeout"`
	CompanionSettleDelay  int `json:"companion_settle_delay"`
}

type Config struct {
	Settings settings.Config       `json:"settings"`
	Browser  chrome.Config         `json:"browser"`
	Fetch    FetchConfig           `json:"fetch"`
	Airtable AirtableConfig        `json:"airtable"`
	Schema   prospects.FieldSchema `json:"schema"`
	Timing   TimingConfig          `json:"timing"`
	// DumpDir receives full http request/response dumps when set.
	DumpDir string `json:"dump_dir"`
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func millis(d time.Duration) int {
	return int(d / time.Millisecond)
}

func defaultConfig() Config {
	ext := extractor.DefaultOptions()
	service := prospector.DefaultOptions()
	return Config{
		Settings: settings.Config{File: "prospect-sync.db"},
		Browser: chrome.Config{
			NavigateTimeoutSeconds: 30,
		},
		Airtable: AirtableConfig{
			BaseURL:           airtable.DefaultBaseURL,
			RequestsPerSecond: 5,
		},
		Schema: prospects.DefaultFieldSchema(),
		Timing: TimingConfig{
			Attempts:              ext.Attempts,
			RetryDelay:            millis(ext.RetryDelay),
			ReadyTimeout:          millis(ext.ReadyTimeout),
			SettleDelay:           millis(ext.SettleDelay),
			DismissDelay:          millis(ext.DismissDelay),
			RevealDelay:           millis(ext.RevealDelay),
			EmailTimeout:          millis(ext.EmailTimeout),
			CloseDelay:            millis(ext.CloseDelay),
			CompanionReadyTimeout: millis(service.CompanionReadyTimeout),
			CompanionSettleDelay:  millis(service.CompanionSettleDelay),
		},
	}
}

func (t TimingConfig) extractorOptions() extractor.Options {
	return extractor.Options{
		Attempts:     t.Attempts,
		RetryDelay:   ms(t.RetryDelay),
		ReadyTimeout: ms(t.ReadyTimeout),
		SettleDelay:  ms(t.SettleDelay),
		DismissDelay: ms(t.DismissDelay),
		RevealDelay:  ms(t.RevealDelay),
		EmailTimeout: ms(t.EmailTimeout),
		CloseDelay:   ms(t.CloseDelay),
	}
}

func (t TimingConfig) serviceOptions() prospector.Options {
	return prospector.Options{
		CompanionReadyTimeout: ms(t.CompanionReadyTimeout),
		CompanionSettleDelay:  ms(t.CompanionSettleDelay),
	}
}

// loadConfig reads the config file, anything it leaves out keeps its default.
// A missing config file means every default is used.
func loadConfig(path string) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, defaultConfig())
}
