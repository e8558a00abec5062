// Package serve implements the serve subcommand running the web API.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/diary"
	"github.com/phartmann/traveldiary/internal/geocoder"
	"github.com/phartmann/traveldiary/internal/httpcontroller"
	"github.com/phartmann/traveldiary/internal/traccar"
)

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the travel diary web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
}

func runServer(settings *conf.Settings) error {
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

	server := httpcontroller.New(settings, store, diaryService)
	return server.Start()
}
