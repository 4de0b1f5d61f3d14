// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/activebook/reportflow/data"
	"github.com/activebook/reportflow/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version     = "v0.3.1"
	versionFlag bool

	cfgFile           string // Path to the config file if specified via flag
	appConfigDir      string // Calculated config directory path
	appConfigFilePath string // Calculated config file path
	debugMode         bool

	// Global logger instance, configured by setupLogging
	logger = service.GetLogger()

	rootCmd = &cobra.Command{
		Use:   "reportflow [report]",
		Short: "Turn analyst reports into ready-to-post social content",
		Long: `reportflow is a command-line front-end for the report-transform service.
Feed it an analyst report (file, stdin, or pasted text) and it streams
back LinkedIn and WhatsApp drafts, keeps a local history of generated
packs, and can pull stock charts for detected tickers.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				fmt.Printf("%s %s\n", cmd.CommandPath(), version)
				return nil
			}
			// With a report argument or piped input, behave like
			// "reportflow generate ...". Otherwise show help.
			if len(args) == 0 && !hasStdinData() {
				return cmd.Help()
			}
			return runGenerate(cmd, args)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := data.EnsureConfigDir(); err != nil {
		service.Errorf("Error creating config directory '%s': %v\n", appConfigDir, err)
	}

	if err := rootCmd.Execute(); err != nil {
		service.Errorf("'%s'\n", err)
		os.Exit(1)
	}
}

func init() {
	// Calculate config paths early
	initConfigPaths()

	// Initialize Viper configuration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging (overrides config file level)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is "+appConfigFilePath+")")

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Print the version number of reportflow")
	addGenerateFlags(rootCmd)

	// Set logrus defaults before configuration is loaded
	// This ensures basic logging works even if config fails
	service.InitLogger()
}

// initConfigPaths calculates the application's configuration directory and file path.
func initConfigPaths() {
	// App specific directory: e.g., ~/.config/reportflow
	appConfigDir = data.GetConfigDir()

	// Default config file path: e.g., ~/.config/reportflow/reportflow.yaml
	appConfigFilePath = data.GetConfigFilePath()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(appConfigDir)
		viper.SetConfigName("reportflow")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// Defaults exist even when the file is missing
	viper.SetDefault("log.level", "info")
	viper.SetDefault("service.endpoint", "http://localhost:8000")
	viper.SetDefault("default.tone", string(service.ToneProfessional))
	viper.SetDefault("default.variant", string(service.VariantA))
	viper.SetDefault("default.exchange", "NSE")
	viper.SetDefault("default.period", "3mo")
	viper.SetDefault("history.max", 50)

	if err := viper.ReadInConfig(); err == nil {
		//service.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			service.Debugf("Config file not found in %s or via --config flag. Using defaults/env vars.", appConfigDir)
		} else if os.IsNotExist(err) {
			service.Debugf("Config file path %s does not exist. Using defaults/env vars.", viper.ConfigFileUsed())
		} else {
			service.Errorf("Error reading config file (%s): %v", viper.ConfigFileUsed(), err)
		}
	}

	setupLogging()
}

// setupLogging configures the global logger based on Viper settings and flags.
func setupLogging() {
	logLevelStr := viper.GetString("log.level")

	// Flag overrides config
	level := log.InfoLevel
	if debugMode {
		level = log.DebugLevel
		logLevelStr = "debug"
	} else {
		var err error
		level, err = log.ParseLevel(logLevelStr)
		if err != nil {
			service.Warnf("Invalid log level '%s' in config, using 'info': %v", logLevelStr, err)
			level = log.InfoLevel
			logLevelStr = "info (due to invalid config value)"
		}
	}
	logger.SetLevel(level)

	service.Debugf("Logger initialized: level=%s ", logLevelStr)
}

// getDefaultConfigFilePath returns the calculated default config file path.
func getDefaultConfigFilePath() string {
	if appConfigFilePath == "" {
		initConfigPaths()
	}
	return appConfigFilePath
}
