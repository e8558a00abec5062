// Package prefetch implements the prefetch subcommand warming the route
// cache from the command line.
package prefetch

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/diary"
	"github.com/phartmann/traveldiary/internal/geocoder"
	"github.com/phartmann/traveldiary/internal/traccar"
)

// Command returns the prefetch subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var deviceID int
	var clear bool

	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Fetch and analyze the full position history into the route cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deviceID == 0 {
				deviceID = settings.Traccar.DeviceID
			}
			return runPrefetch(cmd.Context(), settings, deviceID, clear)
		},
	}

	cmd.Flags().IntVar(&deviceID, "device", 0, "Device id to prefetch (defaults to the configured primary device)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the cached data for the device before prefetching")

	return cmd
}

func runPrefetch(ctx context.Context, settings *conf.Settings, deviceID int, clear bool) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer store.Close()

	geocoderService, err := geocoder.NewService(&settings.Geocoder)
	if err != nil {
		return fmt.Errorf("initializing geocoder: %w", err)
	}

	client := traccar.NewClient(&settings.Traccar)
	analyzer := analysis.NewRouteAnalyzer(geocoderService)
	diaryService := diary.NewService(settings, client, store, analyzer)

	if clear {
		if err := diaryService.ClearCache(deviceID); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("Cleared cache for device %d\n", deviceID)
	}

	result, err := diaryService.Prefetch(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("prefetching device %d: %w", deviceID, err)
	}

	fmt.Printf("Prefetched %d positions for device %d in %.2fs\n", result.Records, deviceID, result.Time)
	return nil
}
