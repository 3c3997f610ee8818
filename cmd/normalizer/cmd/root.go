package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-normalizer/cmd/normalizer/config"
	"golang-statement-normalizer/internal/parsers"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

var (
	cfgFile   string
	envFile   string
	verbose   bool
	logLevel  string
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "normalizer",
	Short: "Bank statement extraction tool",
	Long: `Normalizer reads bank statements in CSV, Excel and PDF form and turns
them into one normalized list of dated, signed transactions with running
balances.

Examples:
  normalizer extract march.csv
  normalizer extract statement.pdf book.xlsx --output-format json --output-file out.json
  normalizer extract hdfc.xls --profile hdfc --currency INR
  normalizer validate *.pdf
  normalizer sample --layout european -o sample.csv
  normalizer profiles`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler(os.Stderr, verbose).HandleError(err)
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading NORMALIZER_ variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig loads the .env file, the config file and NORMALIZER_ variables,
// then installs the global logger
func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("Check the config file path and syntax")
		}
	}

	viper.SetEnvPrefix("NORMALIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "bind_flags", err)
	}

	logConfig, err := config.CreateLoggerConfig(viper.GetString("log-level"), viper.GetString("log-format"), viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logger", logConfig, err)
	}
	logger.SetGlobalLogger(log)

	if viper.ConfigFileUsed() != "" {
		log.WithComponent("cli").WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// parserBase returns the default vocabulary overlaid with the "parser"
// section of the config file, if any
func parserBase() (*parsers.Config, error) {
	base := parsers.DefaultConfig()
	if !viper.IsSet("parser") {
		return base, nil
	}
	if err := viper.UnmarshalKey("parser", base); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", cfgFile, err).
			WithSuggestion("Check the parser section of the config file")
	}
	return base, nil
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
