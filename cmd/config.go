// File: cmd/config.go
package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/activebook/reportflow/service"
)

// configCmd represents the base command when called without any subcommands
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Manage reportflow configuration",
	Long: `View and manage settings for reportflow.

Use 'config set' to change a setting, 'config show' to inspect current
values, or 'config path' to see where the configuration file is located.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configPathCmd represents the config path command
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the location of the configuration file",
	Long:  `Displays the full path to the configuration file reportflow attempts to load.`,
	Run: func(cmd *cobra.Command, args []string) {
		usedCfgFile := viper.ConfigFileUsed()
		if usedCfgFile != "" {
			fmt.Printf("Configuration file in use: %s\n", usedCfgFile)
			defaultPath := getDefaultConfigFilePath()
			if usedCfgFile != defaultPath {
				fmt.Printf("Note: This differs from the default path: %s\n", defaultPath)
			}
		} else {
			// If no config file was loaded, show the default path where reportflow looks
			fmt.Printf("No configuration file loaded.\nDefault location is: %s\n", getDefaultConfigFilePath())
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"print", "list", "ls"},
	Short:   "Show the current configuration values",
	Run: func(cmd *cobra.Command, args []string) {
		keyColor := color.New(color.FgMagenta, color.Bold).SprintFunc()

		keys := configKeys()
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s: %v\n", keyColor(key), viper.Get(key))
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and persist it to the config file.

Available keys:
  service.endpoint  Base URL of the transform service
  default.tone      professional, conversational or punchy
  default.variant   A or B
  default.period    1mo, 3mo, 6mo, 1y or 2y
  default.exchange  NSE or BSE
  history.max       Maximum number of saved reports
  log.level         trace, debug, info, warn or error`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := strings.ToLower(args[0])
		value := args[1]

		switch key {
		case "service.endpoint":
			if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
				service.Errorf("Endpoint must be an http(s) URL: %s\n", value)
				return
			}
			viper.Set(key, value)
		case "default.tone":
			if !service.ValidTone(value) {
				service.Errorf("Invalid tone: %s (must be professional, conversational or punchy)\n", value)
				return
			}
			viper.Set(key, value)
		case "default.variant":
			v := strings.ToUpper(value)
			if v != "A" && v != "B" {
				service.Errorf("Invalid variant: %s (must be A or B)\n", value)
				return
			}
			viper.Set(key, v)
		case "default.period":
			if !service.ValidChartPeriod(value) {
				service.Errorf("Invalid period: %s (must be one of: %s)\n", value, strings.Join(service.ChartPeriods, ", "))
				return
			}
			viper.Set(key, value)
		case "default.exchange":
			v := strings.ToUpper(value)
			if !service.ValidChartExchange(v) {
				service.Errorf("Invalid exchange: %s (must be NSE or BSE)\n", value)
				return
			}
			viper.Set(key, v)
		case "history.max":
			num, err := strconv.Atoi(value)
			if err != nil || num <= 0 {
				service.Errorf("Invalid value for history.max: %s (must be a positive number)\n", value)
				return
			}
			viper.Set(key, num)
		case "log.level":
			viper.Set(key, value)
		default:
			service.Errorf("Unknown configuration key: %s\n", key)
			return
		}

		// Write the config file
		if err := writeConfig(); err != nil {
			service.Errorf("Error saving configuration: %s\n", err)
			return
		}

		fmt.Printf("Configuration '%s' set to '%s' successfully.\n", key, value)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configKeys() []string {
	return []string{
		"service.endpoint",
		"default.tone",
		"default.variant",
		"default.period",
		"default.exchange",
		"history.max",
		"log.level",
	}
}

// writeConfig persists the current viper state, creating the config
// file when none exists yet.
func writeConfig() error {
	if err := viper.WriteConfig(); err != nil {
		// Use WriteConfigAs to ensure it writes even if the file doesn't exist yet
		return viper.WriteConfigAs(getDefaultConfigFilePath())
	}
	return nil
}
