// Package datastore keeps a history of training and prediction runs in
// SQLite or MySQL through GORM.
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	SaveRun(run *Run) error
	GetRun(uuid string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	Close() error
}

// DataStore implements the shared part of Interface on a GORM database.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// New returns the configured store, or nil when run history is disabled.
// m may be nil.
func New(settings *conf.Settings, m *metrics.DatastoreMetrics) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{DataStore: DataStore{metrics: m}, Path: settings.Output.SQLite.Path, Debug: settings.Debug}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{DataStore: DataStore{metrics: m}, Settings: settings.Output.MySQL, Debug: settings.Debug}
	default:
		return nil
	}
}

// SaveRun stores a run and its trial predictions in one transaction.
func (ds *DataStore) SaveRun(run *Run) error {
	if ds.DB == nil {
		return errDatabaseNotInitialized()
	}

	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_run").
			Context("run", run.UUID).
			Context("predictions", len(run.Predictions)).
			Build()
	}

	GetLogger().Debug("run saved",
		logger.String("run", run.UUID),
		logger.Int("predictions", len(run.Predictions)),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// GetRun loads a run with its predictions ordered by trial.
func (ds *DataStore) GetRun(uuid string) (*Run, error) {
	if ds.DB == nil {
		return nil, errDatabaseNotInitialized()
	}

	var run Run
	err := ds.DB.
		Preload("Predictions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("uuid = ?", uuid).
		First(&run).Error
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "get_run").
			Context("run", uuid).
			Build()
	}
	return &run, nil
}

// ListRuns returns the most recent runs without their predictions.
func (ds *DataStore) ListRuns(limit int) ([]Run, error) {
	if ds.DB == nil {
		return nil, errDatabaseNotInitialized()
	}
	if limit <= 0 {
		limit = 20
	}

	var runs []Run
	if err := ds.DB.Order("started_at DESC, id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_runs").
			Build()
	}
	return runs, nil
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return errDatabaseNotInitialized()
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return errors.New(err).Component("datastore").Category(errors.CategoryDatabase).Build()
	}
	if err := sqlDB.Close(); err != nil {
		return errors.New(err).Component("datastore").Category(errors.CategoryDatabase).Build()
	}
	return nil
}

func (ds *DataStore) open(dialector gorm.Dialector, dbType string, debug bool) error {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(DefaultSlowQueryThreshold, debug, ds.metrics)})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Context("operation", "open").
			Build()
	}

	start := time.Now()
	if err := db.AutoMigrate(&Run{}, &TrialPrediction{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Context("operation", "auto_migrate").
			Build()
	}
	GetLogger().Debug("database migration completed",
		logger.String("db_type", dbType),
		logger.Duration("duration", time.Since(start)))

	ds.DB = db
	return nil
}

func errDatabaseNotInitialized() error {
	return errors.Newf("database connection is not initialized").
		Component("datastore").
		Category(errors.CategoryState).
		Build()
}
