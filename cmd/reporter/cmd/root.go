package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// Source flags shared by every subcommand
	sheetURL        string
	inputFile       string
	sheetGID        string
	credentialsPath string
	publicOnly      bool
	overrides       []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reporter",
	Short: "Monthly financial report tool",
	Long: `Reporter builds monthly proposal-versus-invoice reports from a Google
spreadsheet or a local CSV export. It infers which column plays which role,
normalizes Brazilian and English number and date formats, aggregates by
month, category and counterparty, and can backfill future months from a
contract list.

Examples:
  reporter report --sheet-url "https://docs.google.com/spreadsheets/d/<id>/edit#gid=0"
  reporter report --input-file export.csv --output-format json
  reporter report --sheet-url <url> --contracts-tab Contratos --auto-project 3
  reporter audit --input-file export.csv --month 2025-06
  reporter version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Source flags
	rootCmd.PersistentFlags().StringVarP(&sheetURL, "sheet-url", "u", "", "Google Sheets URL to fetch")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input-file", "i", "", "local CSV export to read instead of fetching")
	rootCmd.PersistentFlags().StringVar(&sheetGID, "sheet-gid", "", "tab gid override for the CSV export")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "service-account credentials JSON (default: GOOGLE_APPLICATION_CREDENTIALS)")
	rootCmd.PersistentFlags().BoolVar(&publicOnly, "public-only", false, "never fall back to the authenticated Sheets API")
	rootCmd.PersistentFlags().StringSliceVar(&overrides, "override", nil, "column role override as role=Header (repeatable)")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("sheet-url", rootCmd.PersistentFlags().Lookup("sheet-url"))
	viper.BindPFlag("input-file", rootCmd.PersistentFlags().Lookup("input-file"))
	viper.BindPFlag("sheet-gid", rootCmd.PersistentFlags().Lookup("sheet-gid"))
	viper.BindPFlag("credentials", rootCmd.PersistentFlags().Lookup("credentials"))
	viper.BindPFlag("public-only", rootCmd.PersistentFlags().Lookup("public-only"))
	viper.BindPFlag("override", rootCmd.PersistentFlags().Lookup("override"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("REPORTER")
	viper.AutomaticEnv()
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
