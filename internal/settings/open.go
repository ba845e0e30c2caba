package settings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// MemoryFile opens a database that lives as long as the *sql.DB.
const MemoryFile = ":memory:"

// Config says where the settings database lives. When Url is set, a remote libsql
// (Turso) database is used and File is ignored.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		var opts []libsql.Option
		if config.AuthToken != "" {
			opts = append(opts, libsql.WithAuthToken(config.AuthToken))
		}
		connector, err := libsql.NewConnector(config.Url, opts...)
		if err != nil {
			return nil, fmt.Errorf("libsql connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	}

	if config.File == "" {
		return nil, fmt.Errorf("a settings database path was not specified")
	}
	if config.File != MemoryFile {
		err := os.MkdirAll(filepath.Dir(config.File), 0700)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
