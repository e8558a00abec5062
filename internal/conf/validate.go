// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAnalysisSettings(&settings.Analysis); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateGeocoderSettings(&settings.Geocoder); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateWebServerSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateHomeSettings(&settings.Home); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAnalysisSettings(s *AnalysisSettings) error {
	if s.StandPeriodHours <= 0 {
		return errors.New("analysis standperiodhours must be greater than 0")
	}
	if s.EventMinGap < 0 {
		return errors.New("analysis eventmingap must not be negative")
	}
	if s.MinDays >= s.MaxDays {
		return fmt.Errorf("analysis mindays (%g) must be less than maxdays (%g)", s.MinDays, s.MaxDays)
	}
	return nil
}

func validateGeocoderSettings(s *GeocoderSettings) error {
	switch s.Provider {
	case "google", "nominatim", "none":
		return nil
	default:
		return fmt.Errorf("invalid geocoder provider: %s", s.Provider)
	}
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid web server port: %s", settings.WebServer.Port)
	}
	return nil
}

func validateHomeSettings(s *HomeSettings) error {
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("home latitude out of range: %g", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("home longitude out of range: %g", s.Longitude)
	}
	return nil
}
