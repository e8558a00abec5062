package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	settings := &Settings{}
	settings.Analysis.StandPeriodHours = 12
	settings.Analysis.EventMinGap = 3600
	settings.Analysis.MinDays = 2
	settings.Analysis.MaxDays = 170
	settings.Geocoder.Provider = "nominatim"
	settings.Home.Latitude = 48.0
	settings.Home.Longitude = 11.0
	settings.WebServer.Enabled = true
	settings.WebServer.Port = "8080"
	return settings
}

func TestValidateSettingsValid(t *testing.T) {
	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero_stand_period", func(s *Settings) { s.Analysis.StandPeriodHours = 0 }},
		{"negative_event_gap", func(s *Settings) { s.Analysis.EventMinGap = -1 }},
		{"min_days_above_max", func(s *Settings) { s.Analysis.MinDays = 200 }},
		{"unknown_geocoder", func(s *Settings) { s.Geocoder.Provider = "bing" }},
		{"bad_port", func(s *Settings) { s.WebServer.Port = "99999" }},
		{"latitude_out_of_range", func(s *Settings) { s.Home.Latitude = 91 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := validSettings()
			tt.mutate(settings)

			err := ValidateSettings(settings)

			require.Error(t, err)
			var validationError ValidationError
			assert.ErrorAs(t, err, &validationError)
		})
	}
}
