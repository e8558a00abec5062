package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phartmann/traveldiary/cmd/prefetch"
	"github.com/phartmann/traveldiary/cmd/serve"
	"github.com/phartmann/traveldiary/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "traveldiary",
		Short: "TravelDiary CLI",
		Long:  "TravelDiary analyzes Traccar position history into stays and travels and serves them as a web API.",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		prefetch.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the web server")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
