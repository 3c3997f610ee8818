package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-normalizer/cmd/normalizer/config"
	"golang-statement-normalizer/internal/ingest"
	"golang-statement-normalizer/internal/metrics"
	"golang-statement-normalizer/internal/parsers"
	"golang-statement-normalizer/internal/reporter"
	"golang-statement-normalizer/pkg/logger"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract FILE [FILE...]",
	Short: "Extract normalized transactions from statement files",
	Long: `Extract reads each statement file, picks the CSV, Excel or PDF pipeline
from its extension and prints the normalized transactions with a summary
and extraction diagnostics.

Files are processed concurrently; a failure in one file does not stop the
others. The exit code reflects the most severe failure.

Examples:
  # Console report
  normalizer extract march.csv

  # JSON for the downstream transaction processor
  normalizer extract statement.pdf --output-format json --output-file out/march.json

  # Bank profile and extra credit keywords
  normalizer extract icici.xlsx --profile icici --credit-keywords "neft in,upi cr"

  # Write Prometheus metrics for a node_exporter textfile collector
  normalizer extract *.pdf --metrics-file /var/lib/node_exporter/normalizer.prom`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	defaults := config.DefaultOptions()

	// Output flags
	extractCmd.Flags().StringP("output-format", "f", defaults.OutputFormat, "output format: console, json, csv")
	extractCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
	extractCmd.Flags().String("currency", defaults.Currency, "ISO-4217 currency used to display console amounts")
	extractCmd.Flags().Int("max-items", 0, "maximum transactions listed per file in the console report (0 = all)")
	extractCmd.Flags().Bool("diagnostics", defaults.IncludeDiag, "include extraction diagnostics in the report")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this path")

	// Extraction flags
	extractCmd.Flags().StringP("profile", "p", defaults.Profile, "statement profile: "+strings.Join(parsers.ProfileNames(), ", "))
	extractCmd.Flags().StringSlice("credit-keywords", nil, "extra description keywords that mark a credit")
	extractCmd.Flags().Int("max-file-size-mb", defaults.MaxFileSizeMB, "largest accepted file in megabytes")
	extractCmd.Flags().StringSlice("allowed-file-types", defaults.AllowedFileTypes, "accepted file extensions")
	extractCmd.Flags().IntP("workers", "w", defaults.Workers, "files processed concurrently")
}

// optionsFromViper reads the extract settings after flags, environment and
// config file have been merged
func optionsFromViper() *config.Options {
	return &config.Options{
		OutputFormat:     viper.GetString("output-format"),
		OutputFile:       viper.GetString("output-file"),
		Profile:          viper.GetString("profile"),
		MaxFileSizeMB:    viper.GetInt("max-file-size-mb"),
		AllowedFileTypes: viper.GetStringSlice("allowed-file-types"),
		Workers:          viper.GetInt("workers"),
		Currency:         viper.GetString("currency"),
		MetricsFile:      viper.GetString("metrics-file"),
		CreditKeywords:   viper.GetStringSlice("credit-keywords"),
		MaxItems:         viper.GetInt("max-items"),
		IncludeDiag:      viper.GetBool("diagnostics"),
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts := optionsFromViper()
	if err := config.ValidateOptions(opts); err != nil {
		return err
	}

	base, err := parserBase()
	if err != nil {
		return err
	}
	processorConfig, err := config.CreateProcessorConfig(base, opts)
	if err != nil {
		return err
	}
	reportConfig, err := config.CreateReportConfig(opts)
	if err != nil {
		return err
	}

	log := logger.GetGlobalLogger().WithComponent("cli")
	m := metrics.New()

	processor, err := ingest.NewProcessor(processorConfig, m, log)
	if err != nil {
		return err
	}
	generator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Extracting %d file(s) with profile %s\n", len(args), opts.Profile)
		fmt.Fprintf(cmd.ErrOrStderr(), "Output format: %s\n", reportConfig.Format)
		if opts.OutputFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Output file: %s\n", opts.OutputFile)
		}
	}

	results := processor.ProcessFiles(ctx, args)

	if opts.OutputFile != "" {
		err = generator.WriteReportFile(results, opts.OutputFile)
	} else {
		err = generator.GenerateReportSafely(results, cmd.OutOrStdout())
	}
	if err != nil {
		return err
	}

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			log.WithError(err).WithField("path", opts.MetricsFile).Warn("Failed to write metrics file")
		}
	}

	if failures := ingest.Failures(results); failures != nil {
		return failures
	}

	if viper.GetBool("verbose") {
		total := 0
		for _, r := range results {
			total += len(r.Outcome.Transactions)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nExtraction completed successfully: %d transaction(s) from %d file(s).\n", total, len(results))
	}
	return nil
}
