package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardly-cli/internal/client"
	"guardly-cli/internal/config"
	"guardly-cli/internal/livefeed"
	"guardly-cli/internal/logging"
)

var (
	cfgFile    string
	jsonOutput bool
	yamlOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "guardly-cli",
	Short: "Administer Guardly surveillance cameras and users",
	Long: `Manage cameras, detection zones, live feeds, users and client accounts
of a Guardly backend. Run "guardly-cli serve" for the web dashboard.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.InitConfig(cfgFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.guardly-cli.yaml)")
	pf.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	pf.BoolVar(&yamlOutput, "yaml", false, "Output results as YAML")
	pf.String("api-url", "", "Backend base URL (overrides api_url)")
	pf.String("log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	_ = viper.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

// must ends the command with a message when err is set.
func must(err error, doing string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %s: %v\n", doing, err)
		os.Exit(1)
	}
}

// setup loads the settings and builds the logger and API client every command uses.
func setup() (*client.GuardlyClient, config.Settings, *slog.Logger) {
	s, err := config.Load()
	must(err, "loading configuration")

	log, err := logging.New(s.Log.Level, s.Log.Format, os.Stderr)
	must(err, "configuring logging")

	api := client.New(client.ClientConfig{
		BaseURL:      s.APIURL,
		WSURL:        s.WSURL,
		RetryCount:   s.Retry.Count,
		RetryWait:    s.Retry.Wait,
		RetryMaxWait: s.Retry.MaxWait,
		Logger:       log,
	})
	return api, s, log
}

func feedOptions(s config.Settings, log *slog.Logger) livefeed.Options {
	return livefeed.Options{
		BackoffInitial: s.Feed.BackoffInitial,
		BackoffMax:     s.Feed.BackoffMax,
		MaxAttempts:    s.Feed.MaxAttempts,
		Logger:         log,
	}
}
