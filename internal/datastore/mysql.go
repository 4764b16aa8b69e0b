package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings conf.MySQLSettings
	Debug    bool
}

// DSN returns the driver connection string.
func (store *MySQLStore) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		store.Settings.Username, store.Settings.Password,
		store.Settings.Host, store.Settings.Port,
		store.Settings.Database)
}

// Open connects to the server and migrates the schema.
func (store *MySQLStore) Open() error {
	if store.Settings.Host == "" || store.Settings.Database == "" {
		return errors.ValidationError("mysql host and database must be set")
	}

	if err := store.open(mysql.Open(store.DSN()), "mysql", store.Debug); err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", store.Settings.Host),
			logger.String("port", store.Settings.Port),
			logger.String("database", store.Settings.Database),
			logger.Error(err))
		return err
	}
	GetLogger().Info("run history opened", logger.String("db_type", "mysql"), logger.String("host", store.Settings.Host))
	return nil
}
