package prospects

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"prospect-sync/internal/airtable"
)

// ErrNoNaturalKey is returned for records without a canonical url, they cannot be
// matched against existing records.
var ErrNoNaturalKey = errors.New("record has no canonical url to match existing records by")

// ConfigurationError is returned when credentials are incomplete. It is terminal
// and meant to be shown to the user as is.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf(
		"Airtable is not configured (missing %s). Please run `prospect-cli settings set` and add your API key, Base ID, and Table name.",
		strings.Join(e.Missing, ", "),
	)
}

// NotFoundError is a 404 from the service, almost always a misconfigured base id
// or table name.
type NotFoundError struct {
	StoreID        string
	CollectionName string
	Err            *airtable.APIError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(
		"Airtable API error: 404 Not Found. Please check:\n"+
			"1. Base ID is correct (currently: %s)\n"+
			"2. Table name is correct and matches exactly (currently: %q)\n"+
			"3. API token has access to this base\n"+
			"Full URL: %s",
		e.StoreID,
		e.CollectionName,
		e.Err.URL,
	)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func enrich(err error, table string, base airtable.Base) error {
	var apiErr *airtable.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return &NotFoundError{
			StoreID:        base.ID,
			CollectionName: table,
			Err:            apiErr,
		}
	}
	return fmt.Errorf("upsert into %q: %w", table, err)
}
