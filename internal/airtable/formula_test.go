package airtable

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualsFormula(t *testing.T) {
	table := []struct {
		field    string
		value    string
		expected string
	}{
		{field: "LinkedIn URL", value: "https://example/in/jane", expected: `{LinkedIn URL} = "https://example/in/jane"`},
		{field: "Brand Name", value: `The "Best" Co`, expected: `{Brand Name} = "The \"Best\" Co"`},
		{field: "Brand Name", value: `back\slash`, expected: `{Brand Name} = "back\\slash"`},
	}
	for _, test := range table {
		require.Equal(t, test.expected, EqualsFormula(test.field, test.value))
	}
}

func TestParseError(t *testing.T) {
	apiErr := parseError(http.StatusUnprocessableEntity, "POST", "https://api.airtable.com/v0/app/Profiles", []byte(
		`{"error": {"type": "UNKNOWN_FIELD_NAME", "message": "Unknown field name: \"Company\""}}`,
	))
	require.Equal(t, "UNKNOWN_FIELD_NAME", apiErr.Type)
	require.Equal(t, `Unknown field name: "Company"`, apiErr.Message)

	apiErr = parseError(http.StatusNotFound, "GET", "https://api.airtable.com/v0/app/Profiles", []byte(`{"error": "NOT_FOUND"}`))
	require.Equal(t, "NOT_FOUND", apiErr.Type)
	require.Contains(t, apiErr.Error(), "404: NOT_FOUND")

	apiErr = parseError(http.StatusBadGateway, "GET", "https://api.airtable.com/v0/app/Profiles", []byte(`<html>bad gateway</html>`))
	require.Equal(t, "", apiErr.Type)
	require.Contains(t, apiErr.Error(), "Bad Gateway")
}
