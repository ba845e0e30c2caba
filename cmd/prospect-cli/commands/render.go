package commands

import (
	"encoding/json"
	"os"
	"strings"

	"prospect-sync/internal/extractor"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderRecord(record extractor.ExtractedRecord, related *extractor.RelatedEntity) {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Name", record.Name},
		{"Role", record.Role},
		{"Company", record.Company},
		{"URL", record.CanonicalURL},
		{"Email", record.Email},
		{"Request sent", yesNo(record.Flags.RequestSent)},
		{"Connected", yesNo(record.Flags.Connected)},
	})
	if record.CompanionKey != "" {
		t.AppendRow(table.Row{"Company page", record.CompanionKey})
	}
	if related != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Brand", related.DisplayName},
			{"Brand website", related.Website},
			{"Brand location", related.LocationLabel},
		})
	}
	t.Render()
}

func renderRelated(related extractor.RelatedEntity) {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Name", related.DisplayName},
		{"Website", related.Website},
		{"Location", related.LocationLabel},
	})
	t.Render()
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// maskSecret keeps the last 4 characters of a secret.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
