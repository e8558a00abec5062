package analysis

import (
	"math"
	"time"

	"github.com/phartmann/traveldiary/internal/datastore"
)

const (
	// Standstills whose centroids are closer than this in degree space are
	// considered the same place and merged.
	mergeThresholdDeg = 0.005

	// Window filtering allows standstills to straddle the requested range
	// by this much on either side.
	windowSlack = 8 * time.Hour
)

// CleanMerge combines standstill periods that sit at effectively the same
// location: for every pair closer than 0.005 degrees the later period's
// duration is added to the earlier one and the later is dropped. The input
// is not modified. Idempotent.
func CleanMerge(standPeriods []datastore.StandstillPeriod) []datastore.StandstillPeriod {
	periods := make([]datastore.StandstillPeriod, len(standPeriods))
	copy(periods, standPeriods)

	for i := 0; i < len(periods); i++ {
		for j := i + 1; j < len(periods); j++ {
			latDiff := periods[i].Latitude - periods[j].Latitude
			lngDiff := periods[i].Longitude - periods[j].Longitude
			diff := math.Sqrt(latDiff*latDiff + lngDiff*lngDiff)

			if diff < mergeThresholdDeg && periods[i].Period > 0 && periods[j].Period > 0 {
				periods[i].Period += periods[j].Period
				periods[j].Period = 0
			}
		}
	}

	result := make([]datastore.StandstillPeriod, 0, len(periods))
	for _, p := range periods {
		if p.Period > 0 {
			result = append(result, p)
		}
	}
	return result
}

// FilterByWindow keeps periods fully inside [from-8h, to+8h], boundaries
// inclusive. The slack accommodates standstills that straddle a requested
// window boundary.
func FilterByWindow(standPeriods []datastore.StandstillPeriod, from, to time.Time) []datastore.StandstillPeriod {
	lower := from.Add(-windowSlack)
	upper := to.Add(windowSlack)

	result := make([]datastore.StandstillPeriod, 0, len(standPeriods))
	for _, p := range standPeriods {
		if !p.Von.Before(lower) && !p.Bis.After(upper) {
			result = append(result, p)
		}
	}
	return result
}

// Clean is the cleaner pipeline applied before presentation: window filter,
// then merge.
func Clean(standPeriods []datastore.StandstillPeriod, from, to time.Time) []datastore.StandstillPeriod {
	return CleanMerge(FilterByWindow(standPeriods, from, to))
}

var countryTranslations = map[string]string{
	"Austria":     "Österreich",
	"Albania":     "Albanien",
	"Croatia":     "Kroatien",
	"France":      "Frankreich",
	"Germany":     "Deutschland",
	"Greece":      "Griechenland",
	"Italy":       "Italien",
	"Slovenia":    "Slowenien",
	"Switzerland": "Schweiz",
}

// TranslateCountry maps a fixed set of English country names to their
// German display names. Unmatched names pass through unchanged.
func TranslateCountry(country string) string {
	if translated, ok := countryTranslations[country]; ok {
		return translated
	}
	return country
}
