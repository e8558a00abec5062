// Package conf holds the application settings for the travel diary service.
// It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// TraccarSettings contains connection settings for the Traccar server.
type TraccarSettings struct {
	URL        string // base URL of the Traccar server
	Username   string // Traccar account name
	Password   string // Traccar account password
	DeviceID   int    // primary device to analyze
	DeviceName string // display name of the primary device
}

// HomeSettings describes the home location the travel detection works from.
type HomeSettings struct {
	Latitude     float64 // home latitude in decimal degrees
	Longitude    float64 // home longitude in decimal degrees
	GeofenceID   int64   // Traccar geofence id marking home
	GeofenceName string  // display name of the home geofence
}

// AnalysisSettings contains tunables of the standstill and travel detection.
type AnalysisSettings struct {
	StandPeriodHours int     // minimum standstill duration in hours
	EventMinGap      int     // minimum gap between geofence events in seconds
	MinDays          float64 // minimum travel duration in days
	MaxDays          float64 // maximum travel duration in days
	StartDate        string  // earliest date to prefetch, ISO-8601
}

// GoogleGeocoderSettings contains settings for the Google Maps geocoding API.
type GoogleGeocoderSettings struct {
	APIKey   string // Google Maps API key
	Endpoint string // geocoding API endpoint
}

// NominatimSettings contains settings for the OSM Nominatim geocoder.
type NominatimSettings struct {
	Endpoint string // reverse geocoding endpoint
	Email    string // contact email sent with requests, per usage policy
}

// GeocoderSettings selects and configures the reverse geocoding provider.
type GeocoderSettings struct {
	Provider     string // "google" or "nominatim"
	Language     string // language code for returned addresses
	CacheMinutes int    // how long geocoding results are cached
	Google       GoogleGeocoderSettings
	Nominatim    NominatimSettings
}

// SideTripDevice describes a secondary device rendered alongside the
// primary route.
type SideTripDevice struct {
	DeviceID   int    `yaml:"deviceid"`
	DeviceName string `yaml:"devicename"`
	Color      string `yaml:"color"`
	LineWeight int    `yaml:"lineweight"`
	Enabled    bool   `yaml:"enabled"`
}

// LogConfig defines the configuration for a rotating log file.
type LogConfig struct {
	Enabled    bool   // true to enable this log
	Path       string // path to the log file
	MaxSizeMB  int    // max size in megabytes before rotation
	MaxBackups int    // number of rotated files to keep
	MaxAgeDays int    // max age of rotated files in days
}

// Settings contains all configuration options for the travel diary service.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version string `yaml:"-"`

	Main struct {
		Name string    // name of this node, used in exports and logs
		Log  LogConfig // logging configuration
	}

	Traccar  TraccarSettings  // Traccar server connection
	Home     HomeSettings     // home location and geofence
	Analysis AnalysisSettings // standstill and travel detection tunables
	Geocoder GeocoderSettings // reverse geocoder provider

	WebServer struct {
		Debug   bool   // true to enable debug mode
		Enabled bool   // true to enable web server
		Port    string // port for web server
	}

	Output struct {
		RouteCache struct {
			Path string // path to the analyzed-route SQLite database
		}
		AppDB struct {
			Path string // path to the user-data SQLite database
		}
	}

	SideTrips struct {
		Devices []SideTripDevice // secondary devices shown on the map
	}
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// config path and reads it back.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// UpdateSettings replaces the current settings instance. Used by the
// settings API after a validated update.
func UpdateSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// The write goes through a temporary file so the replace is atomic.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
