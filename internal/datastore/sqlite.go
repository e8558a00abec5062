package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/phartmann/traveldiary/internal/conf"
)

// SQLiteStore implements Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the route cache and app database connections.
func (store *SQLiteStore) Open() error {
	routeDB, err := openSQLite(store.Settings.Output.RouteCache.Path)
	if err != nil {
		return fmt.Errorf("failed to open route cache database: %w", err)
	}
	if err := performAutoMigration(routeDB, store.Settings.Debug, "route cache",
		store.Settings.Output.RouteCache.Path,
		&RoutePosition{}, &StandstillPeriod{}); err != nil {
		return err
	}

	appDB, err := openSQLite(store.Settings.Output.AppDB.Path)
	if err != nil {
		return fmt.Errorf("failed to open app database: %w", err)
	}
	if err := performAutoMigration(appDB, store.Settings.Debug, "app",
		store.Settings.Output.AppDB.Path,
		&TravelPatch{}, &StandstillAdjustment{}, &ManualPOI{}); err != nil {
		return err
	}

	store.RouteDB = routeDB
	store.AppDB = appDB
	return nil
}

func openSQLite(path string) (*gorm.DB, error) {
	dir, fileName := filepath.Split(path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	return gorm.Open(sqlite.Open(absoluteFilePath), &gorm.Config{Logger: createGormLogger()})
}

// Close closes both database connections.
func (store *SQLiteStore) Close() error {
	for _, db := range []*gorm.DB{store.RouteDB, store.AppDB} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	return nil
}
