// Package datastore persists the travel diary's data in two SQLite
// databases: a route cache holding analyzed positions and standstill
// periods per device, and an app database holding user-authored travel
// patches, standstill adjustments and manual POIs.
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/phartmann/traveldiary/internal/conf"
)

// Interface defines the database operations the diary consumes.
type Interface interface {
	Open() error
	Close() error

	// route cache
	HasCachedData(deviceID int) (bool, error)
	CountPositions(deviceID int) (int64, error)
	GetRoutePositions(deviceID int, from, to *time.Time) ([]RoutePosition, error)
	GetLastPosition(deviceID int) (*RoutePosition, error)
	SavePositions(positions []RoutePosition) error
	SaveStandstills(periods []StandstillPeriod) error
	GetStandstills(deviceID int) ([]StandstillPeriod, error)
	ClearDevice(deviceID int) error

	// user data
	GetTravelPatches() (map[string]TravelPatch, error)
	ListTravelPatches() ([]TravelPatch, error)
	SaveTravelPatch(patch *TravelPatch) error
	DeleteTravelPatch(id uint) error
	ListStandstillAdjustments() ([]StandstillAdjustment, error)
	GetStandstillAdjustments() (map[string]StandstillAdjustment, error)
	SaveStandstillAdjustment(adj *StandstillAdjustment) error
	DeleteStandstillAdjustment(id uint) error
	GetManualPOIs(deviceID int) ([]ManualPOI, error)
	SaveManualPOI(poi *ManualPOI) error
	DeleteManualPOI(id uint) error
}

// DataStore implements Interface using two GORM database handles.
type DataStore struct {
	RouteDB *gorm.DB // analyzed positions and standstills
	AppDB   *gorm.DB // patches, adjustments, POIs
}

// New creates a datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		Settings: settings,
	}
}

// HasCachedData reports whether any analyzed positions exist for the device.
func (ds *DataStore) HasCachedData(deviceID int) (bool, error) {
	count, err := ds.CountPositions(deviceID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountPositions returns the number of cached positions for the device.
func (ds *DataStore) CountPositions(deviceID int) (int64, error) {
	var count int64
	if err := ds.RouteDB.Model(&RoutePosition{}).Where("device_id = ?", deviceID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting positions for device %d: %w", deviceID, err)
	}
	return count, nil
}

// GetRoutePositions returns the cached positions of a device ordered by fix
// time, optionally restricted to an inclusive time window.
func (ds *DataStore) GetRoutePositions(deviceID int, from, to *time.Time) ([]RoutePosition, error) {
	query := ds.RouteDB.Where("device_id = ?", deviceID)
	if from != nil {
		query = query.Where("fix_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("fix_time <= ?", *to)
	}

	var positions []RoutePosition
	if err := query.Order("fix_time ASC").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("getting positions for device %d: %w", deviceID, err)
	}
	return positions, nil
}

// GetLastPosition returns the cached position with the highest fix time for
// the device, or nil if the cache is empty.
func (ds *DataStore) GetLastPosition(deviceID int) (*RoutePosition, error) {
	var position RoutePosition
	err := ds.RouteDB.Where("device_id = ?", deviceID).Order("fix_time DESC").First(&position).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting last position for device %d: %w", deviceID, err)
	}
	return &position, nil
}

// SavePositions upserts analyzed positions, keyed by (device, source id).
// Re-running analysis over an overlapping window must not duplicate rows.
func (ds *DataStore) SavePositions(positions []RoutePosition) error {
	if len(positions) == 0 {
		return nil
	}
	err := ds.RouteDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fix_time", "latitude", "longitude", "altitude", "speed", "course", "total_distance"}),
	}).CreateInBatches(positions, 500).Error
	if err != nil {
		return fmt.Errorf("saving positions: %w", err)
	}
	return nil
}

// SaveStandstills upserts standstill periods, keyed by (device, key).
func (ds *DataStore) SaveStandstills(periods []StandstillPeriod) error {
	if len(periods) == 0 {
		return nil
	}
	err := ds.RouteDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"von", "bis", "period", "latitude", "longitude", "country", "address"}),
	}).Create(&periods).Error
	if err != nil {
		return fmt.Errorf("saving standstills: %w", err)
	}
	return nil
}

// GetStandstills returns all cached standstill periods of a device ordered
// by start time.
func (ds *DataStore) GetStandstills(deviceID int) ([]StandstillPeriod, error) {
	var periods []StandstillPeriod
	if err := ds.RouteDB.Where("device_id = ?", deviceID).Order("von ASC").Find(&periods).Error; err != nil {
		return nil, fmt.Errorf("getting standstills for device %d: %w", deviceID, err)
	}
	return periods, nil
}

// ClearDevice deletes all cached positions and standstills for a device.
func (ds *DataStore) ClearDevice(deviceID int) error {
	if err := ds.RouteDB.Where("device_id = ?", deviceID).Delete(&RoutePosition{}).Error; err != nil {
		return fmt.Errorf("clearing positions for device %d: %w", deviceID, err)
	}
	if err := ds.RouteDB.Where("device_id = ?", deviceID).Delete(&StandstillPeriod{}).Error; err != nil {
		return fmt.Errorf("clearing standstills for device %d: %w", deviceID, err)
	}
	return nil
}

// GetTravelPatches returns all travel patches keyed by address key, the
// shape the patch matcher consumes.
func (ds *DataStore) GetTravelPatches() (map[string]TravelPatch, error) {
	patches, err := ds.ListTravelPatches()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]TravelPatch, len(patches))
	for _, p := range patches {
		byKey[p.AddressKey] = p
	}
	return byKey, nil
}

// ListTravelPatches returns all travel patches ordered by id.
func (ds *DataStore) ListTravelPatches() ([]TravelPatch, error) {
	var patches []TravelPatch
	if err := ds.AppDB.Order("id ASC").Find(&patches).Error; err != nil {
		return nil, fmt.Errorf("listing travel patches: %w", err)
	}
	return patches, nil
}

// SaveTravelPatch upserts a travel patch by its address key.
func (ds *DataStore) SaveTravelPatch(patch *TravelPatch) error {
	err := ds.AppDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "from_time", "to_time", "exclude"}),
	}).Create(patch).Error
	if err != nil {
		return fmt.Errorf("saving travel patch %s: %w", patch.AddressKey, err)
	}
	return nil
}

// DeleteTravelPatch removes a travel patch by id.
func (ds *DataStore) DeleteTravelPatch(id uint) error {
	if err := ds.AppDB.Delete(&TravelPatch{}, id).Error; err != nil {
		return fmt.Errorf("deleting travel patch %d: %w", id, err)
	}
	return nil
}

// ListStandstillAdjustments returns all adjustments ordered by id.
func (ds *DataStore) ListStandstillAdjustments() ([]StandstillAdjustment, error) {
	var adjustments []StandstillAdjustment
	if err := ds.AppDB.Order("id ASC").Find(&adjustments).Error; err != nil {
		return nil, fmt.Errorf("listing standstill adjustments: %w", err)
	}
	return adjustments, nil
}

// GetStandstillAdjustments returns all adjustments keyed by standstill key.
func (ds *DataStore) GetStandstillAdjustments() (map[string]StandstillAdjustment, error) {
	adjustments, err := ds.ListStandstillAdjustments()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]StandstillAdjustment, len(adjustments))
	for _, a := range adjustments {
		byKey[a.StandstillKey] = a
	}
	return byKey, nil
}

// SaveStandstillAdjustment upserts an adjustment by its standstill key.
func (ds *DataStore) SaveStandstillAdjustment(adj *StandstillAdjustment) error {
	err := ds.AppDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "standstill_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_offset_min", "end_offset_min"}),
	}).Create(adj).Error
	if err != nil {
		return fmt.Errorf("saving standstill adjustment %s: %w", adj.StandstillKey, err)
	}
	return nil
}

// DeleteStandstillAdjustment removes an adjustment by id.
func (ds *DataStore) DeleteStandstillAdjustment(id uint) error {
	if err := ds.AppDB.Delete(&StandstillAdjustment{}, id).Error; err != nil {
		return fmt.Errorf("deleting standstill adjustment %d: %w", id, err)
	}
	return nil
}

// GetManualPOIs returns all manual POIs for a device ordered by timestamp.
func (ds *DataStore) GetManualPOIs(deviceID int) ([]ManualPOI, error) {
	var pois []ManualPOI
	if err := ds.AppDB.Where("device_id = ?", deviceID).Order("timestamp ASC").Find(&pois).Error; err != nil {
		return nil, fmt.Errorf("getting POIs for device %d: %w", deviceID, err)
	}
	return pois, nil
}

// SaveManualPOI upserts a POI by its key.
func (ds *DataStore) SaveManualPOI(poi *ManualPOI) error {
	err := ds.AppDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poi_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_id", "latitude", "longitude", "timestamp", "address", "country"}),
	}).Create(poi).Error
	if err != nil {
		return fmt.Errorf("saving POI %s: %w", poi.PoiKey, err)
	}
	return nil
}

// DeleteManualPOI removes a POI by id.
func (ds *DataStore) DeleteManualPOI(id uint) error {
	if err := ds.AppDB.Delete(&ManualPOI{}, id).Error; err != nil {
		return fmt.Errorf("deleting POI %d: %w", id, err)
	}
	return nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbName, connectionInfo string, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbName, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbName, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
