package commands

import (
	"bytes"
	"log/slog"
	"os"

	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/components/telemetry"
	"prospect-sync/internal/extractor"
	"prospect-sync/lib/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var fixtureFlags struct {
	url     string
	related bool
	json    bool
}

func init() {
	fixtureCmd.Flags().StringVar(&fixtureFlags.url, "url", "", "The url the page was saved from, defaults to the page's canonical link.")
	fixtureCmd.Flags().BoolVar(&fixtureFlags.related, "related", false, "The file is a company page.")
	fixtureCmd.Flags().BoolVar(&fixtureFlags.json, "json", false, "Print the result as json.")
	rootCmd.AddCommand(fixtureCmd)
}

var fixtureCmd = &cobra.Command{
	Use:   "fixture <file.html> [--url <url>] [--related] [--json]",
	Short: "Runs extraction over a saved html page, useful for checking markup changes.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read fixture", err)
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(contents))
		if err != nil {
			serviceutil.Fatal("failed to parse fixture", err)
		}

		e := extractor.New(telemetry.SlogAPI{}, chrono.StandardImpl{}, config.Timing.extractorOptions())

		var value any
		if fixtureFlags.related {
			related := e.ExtractRelated(doc, fixtureFlags.url)
			value = related
			if !fixtureFlags.json {
				renderRelated(related)
			}
		} else {
			record := e.Extract(doc, fixtureFlags.url)
			value = record
			if !fixtureFlags.json {
				renderRecord(record, nil)
			}
		}

		if fixtureFlags.json {
			err = printJSON(value)
			if err != nil {
				slog.Error("failed to print result", "err", err)
			}
		}
	},
}
