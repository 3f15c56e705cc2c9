package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardly-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the saved configuration",
}

// configSetCmd persists one key so subsequent commands know where to connect.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a configuration value",
	Long: `Writes one key to the config file, creating $HOME/.guardly-cli.yaml on first use.

Example:
  guardly-cli config set api_url https://cams.example.com
  guardly-cli config set feed.max_fps 5`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		// Refuse values the next command could not load.
		viper.Set(key, value)
		_, err := config.Load()
		must(err, "validating "+key)

		must(config.Save(key, value), "saving configuration")
		fmt.Printf("Saved %s = %s to %s\n", key, value, savedPath())
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		all := viper.AllSettings()
		if jsonOutput {
			printStructured(all)
			return
		}
		out, err := toYAML(all)
		must(err, "encoding YAML")
		_, _ = os.Stdout.Write(out)
	},
}

func savedPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "$HOME/" + config.ConfigName + ".yaml"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configViewCmd)
}
