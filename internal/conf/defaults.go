// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "TravelDiary")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/traveldiary.log")
	viper.SetDefault("main.log.maxsizemb", 10)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxagedays", 28)

	viper.SetDefault("traccar.url", "http://localhost:8082")
	viper.SetDefault("traccar.username", "")
	viper.SetDefault("traccar.password", "")
	viper.SetDefault("traccar.deviceid", 1)
	viper.SetDefault("traccar.devicename", "Camper")

	viper.SetDefault("home.latitude", 0.000)
	viper.SetDefault("home.longitude", 0.000)
	viper.SetDefault("home.geofenceid", 1)
	viper.SetDefault("home.geofencename", "Home")

	viper.SetDefault("analysis.standperiodhours", 12)
	viper.SetDefault("analysis.eventmingap", 3600)
	viper.SetDefault("analysis.mindays", 2)
	viper.SetDefault("analysis.maxdays", 170)
	viper.SetDefault("analysis.startdate", "2020-01-01T00:00:00Z")

	viper.SetDefault("geocoder.provider", "nominatim")
	viper.SetDefault("geocoder.language", "de")
	viper.SetDefault("geocoder.cacheminutes", 1440)
	viper.SetDefault("geocoder.google.apikey", "")
	viper.SetDefault("geocoder.google.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	viper.SetDefault("geocoder.nominatim.endpoint", "https://nominatim.openstreetmap.org/reverse")
	viper.SetDefault("geocoder.nominatim.email", "")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("output.routecache.path", "data/cache/route.db")
	viper.SetDefault("output.appdb.path", "data/app.db")

	viper.SetDefault("sidetrips.devices", []SideTripDevice{})
}
