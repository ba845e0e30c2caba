// Package settings persists the handful of user configured values (Airtable
// credentials) in a small key-value table.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"prospect-sync/internal/components/chrono"
	"prospect-sync/internal/settings/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/settings")

const (
	KeyAPIKey    = "airtableApiKey"
	KeyBaseID    = "airtableBaseId"
	KeyTableName = "airtableTableName"
)

const DefaultTableName = "Profiles"

// Defaults are the documented values of keys that were never set (or set empty).
var Defaults = map[string]string{
	KeyAPIKey:    "",
	KeyBaseID:    "",
	KeyTableName: DefaultTableName,
}

// Keys returns every known key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Defaults))
	for k := range Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type UnknownKeyError struct {
	Key string
}

func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown setting %q, known settings are %v", e.Key, Keys())
}

// Credentials are what is needed to reach the remote table.
type Credentials struct {
	APIKey         string
	StoreID        string
	CollectionName string
}

// Store is not cached, every read goes to the database so changes made between
// two operations are always seen.
type Store struct {
	db    *sql.DB
	qry   *db.Queries
	clock chrono.API
}

// NewStore applies the schema to `database` and returns a store on top of it.
func NewStore(ctx context.Context, database *sql.DB, clock chrono.API) (Store, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply settings schema: %w", err)
	}
	return Store{
		db:    database,
		qry:   db.New(database),
		clock: clock,
	}, nil
}

// Get returns the values of `keys`, filling defaults for keys that are unset. With
// no keys, every known key is returned.
func (s Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		keys = Keys()
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		def, known := Defaults[key]
		if !known {
			return nil, UnknownKeyError{Key: key}
		}

		value, err := s.qry.GetSetting(ctx, key)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
			out[key] = def
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get setting %s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// Set writes every value in one transaction. Nothing is written if any key is
// unknown.
func (s Store) Set(ctx context.Context, values map[string]string) error {
	ctx, span := tracer.Start(ctx, "Set")
	defer span.End()

	for key := range values {
		if _, known := Defaults[key]; !known {
			err := UnknownKeyError{Key: key}
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	now := s.clock.Now().Unix()
	for key, value := range values {
		err = txqry.PutSetting(ctx, db.PutSettingParams{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("put setting %s: %w", key, err)
		}
	}
	span.SetAttributes(attribute.Int("count", len(values)))

	return tx.Commit()
}

// Credentials reads the current credentials, empty fields mean they were never set.
func (s Store) Credentials(ctx context.Context) (Credentials, error) {
	values, err := s.Get(ctx, KeyAPIKey, KeyBaseID, KeyTableName)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		APIKey:         values[KeyAPIKey],
		StoreID:        values[KeyBaseID],
		CollectionName: values[KeyTableName],
	}, nil
}

// Entries returns the raw stored rows, defaults are not included.
func (s Store) Entries(ctx context.Context) ([]db.Setting, error) {
	return s.qry.ListSettings(ctx)
}

// Unset removes a key, it goes back to its default.
func (s Store) Unset(ctx context.Context, key string) error {
	if _, known := Defaults[key]; !known {
		return UnknownKeyError{Key: key}
	}
	return s.qry.DeleteSetting(ctx, key)
}
