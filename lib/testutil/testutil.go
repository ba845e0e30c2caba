// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prospect-sync/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

// SetupTelemetry sets up slog and, if a telemetry.json5 is found, otel export for
// the tests of package `name`. Call the returned function once the tests are done.
func SetupTelemetry(name string) func() {
	return telemetry.SetupForTesting(fmt.Sprintf("test:%s", name))
}

// Document parses `contents` as html.
func Document(t testing.TB, contents string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// Fixture reads a file from the package's testdata directory.
func Fixture(t testing.TB, name string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}
