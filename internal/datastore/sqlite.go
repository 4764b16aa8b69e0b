package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Path  string
	Debug bool
}

// Open creates the database file if needed and migrates the schema.
func (store *SQLiteStore) Open() error {
	if store.Path == "" {
		return errors.ValidationError("sqlite path must not be empty")
	}
	if dir := filepath.Dir(store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", store.Path).
				Build()
		}
	}

	if err := store.open(sqlite.Open(store.Path), "sqlite", store.Debug); err != nil {
		return err
	}
	GetLogger().Info("run history opened", logger.String("db_type", "sqlite"), logger.String("path", store.Path))
	return nil
}
