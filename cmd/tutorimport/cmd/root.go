package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tutor-import-service/pkg/logger"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tutorimport",
	Short: "Bulk tutor onboarding tool",
	Long: `Tutorimport ingests tutor registration spreadsheets (CSV or Excel),
validates and normalizes each row, fuzzy-matches free-text fields like
province, city, bank and subject names against reference data, and
persists each tutor as a full entity graph.

Examples:
  tutorimport import --file tutors.xlsx --dsn "$DATABASE_URL"
  tutorimport import --file tutors.csv --dry-run --output-format json
  tutorimport template --output template.csv
  tutorimport version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	// A .env file in the working directory seeds the environment before
	// viper reads it. Absence is not an error.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("TUTORIMPORT")
	viper.AutomaticEnv()
}

// initLogger replaces the global logger with one honoring the CLI flags.
func initLogger() {
	level := logger.InfoLevel
	if viper.GetBool("verbose") {
		level = logger.DebugLevel
	}

	format := logger.TextFormat
	if viper.GetString("log-format") == "json" {
		format = logger.JSONFormat
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  level,
		Format: format,
		Output: logger.StderrOutput,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %s\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
