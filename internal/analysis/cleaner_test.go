package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phartmann/traveldiary/internal/datastore"
)

func stand(key string, lat, lng float64, period int, von, bis time.Time) datastore.StandstillPeriod {
	return datastore.StandstillPeriod{
		DeviceID: 7, Key: key,
		Von: von, Bis: bis,
		Period: period, Latitude: lat, Longitude: lng,
	}
}

func TestCleanMergeNearbyPeriods(t *testing.T) {
	von := time.Date(2023, 5, 22, 6, 0, 0, 0, time.UTC)
	periods := []datastore.StandstillPeriod{
		stand("a", 48.000, 11.000, 2, von, von.Add(20*time.Hour)),
		stand("b", 48.001, 11.000, 3, von.Add(24*time.Hour), von.Add(48*time.Hour)),
	}

	merged := CleanMerge(periods)

	require.Len(t, merged, 1)
	assert.Equal(t, "a", merged[0].Key)
	assert.Equal(t, 5, merged[0].Period)
	// input must not be mutated
	assert.Equal(t, 2, periods[0].Period)
	assert.Equal(t, 3, periods[1].Period)
}

func TestCleanMergeDistantPeriodsStaySeparate(t *testing.T) {
	von := time.Date(2023, 5, 22, 6, 0, 0, 0, time.UTC)
	periods := []datastore.StandstillPeriod{
		stand("a", 48.00, 11.00, 2, von, von.Add(20*time.Hour)),
		stand("b", 48.01, 11.00, 3, von.Add(24*time.Hour), von.Add(48*time.Hour)),
	}

	merged := CleanMerge(periods)

	assert.Len(t, merged, 2)
}

func TestCleanMergeIdempotent(t *testing.T) {
	von := time.Date(2023, 5, 22, 6, 0, 0, 0, time.UTC)
	periods := []datastore.StandstillPeriod{
		stand("a", 48.000, 11.000, 2, von, von.Add(20*time.Hour)),
		stand("b", 48.001, 11.000, 3, von.Add(24*time.Hour), von.Add(48*time.Hour)),
		stand("c", 49.000, 12.000, 1, von.Add(72*time.Hour), von.Add(96*time.Hour)),
	}

	once := CleanMerge(periods)
	twice := CleanMerge(once)

	assert.Equal(t, once, twice)
}

func TestFilterByWindow(t *testing.T) {
	from := time.Date(2023, 5, 22, 8, 0, 0, 0, time.UTC)
	to := time.Date(2023, 5, 24, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		von  time.Time
		bis  time.Time
		kept bool
	}{
		{"inside", from.Add(2 * time.Hour), to.Add(-2 * time.Hour), true},
		{"exactly_at_slack_bounds", from.Add(-8 * time.Hour), to.Add(8 * time.Hour), true},
		{"starts_too_early", from.Add(-8*time.Hour - time.Second), to, false},
		{"ends_too_late", from, to.Add(8*time.Hour + time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterByWindow([]datastore.StandstillPeriod{
				stand("a", 48, 11, 1, tt.von, tt.bis),
			}, from, to)

			if tt.kept {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestTranslateCountry(t *testing.T) {
	assert.Equal(t, "Italien", TranslateCountry("Italy"))
	assert.Equal(t, "Österreich", TranslateCountry("Austria"))
	assert.Equal(t, "Norway", TranslateCountry("Norway"))
	assert.Equal(t, "", TranslateCountry(""))
}
