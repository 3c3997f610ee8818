package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-normalizer/internal/fixtures"
	"golang-statement-normalizer/pkg/errors"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a synthetic statement for trying out extract",
	Long: `Sample writes a statement with a consistent running balance. The layout
picks the columns, date format and number style; a .xlsx output file gets
a workbook instead of delimited text.

Examples:
  normalizer sample --layout european -o march.csv
  normalizer sample --count 500 --seed 7 -o book.xlsx
  normalizer sample --layout signed > signed.csv`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	defaults := fixtures.DefaultGenerator()
	names := make([]string, 0, len(fixtures.Layouts()))
	for _, l := range fixtures.Layouts() {
		names = append(names, string(l))
	}

	sampleCmd.Flags().String("layout", string(fixtures.LayoutSplit), "statement layout: "+strings.Join(names, ", "))
	sampleCmd.Flags().Int("count", defaults.Count, "transactions after the opening balance")
	sampleCmd.Flags().Int64("seed", defaults.Seed, "random seed")
	sampleCmd.Flags().String("opening-balance", defaults.OpeningBalance.String(), "opening balance")
	sampleCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
}

func runSample(cmd *cobra.Command, args []string) error {
	layout, err := fixtures.ParseLayout(viper.GetString("layout"))
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "layout", viper.GetString("layout"), err)
	}

	count := viper.GetInt("count")
	if count < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "count", count,
			fmt.Errorf("count cannot be negative"))
	}

	opening, err := decimal.NewFromString(viper.GetString("opening-balance"))
	if err != nil || !opening.IsPositive() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "opening-balance", viper.GetString("opening-balance"),
			fmt.Errorf("opening balance must be a positive number"))
	}

	sg := fixtures.DefaultGenerator()
	sg.Count = count
	sg.Seed = viper.GetInt64("seed")
	sg.OpeningBalance = opening
	lines := sg.Generate()

	path := viper.GetString("output-file")
	if path == "" {
		return writeSample(cmd.OutOrStdout(), layout, false, lines)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.FileError(errors.CodeFilePermission, dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	defer file.Close()

	xlsx := strings.EqualFold(filepath.Ext(path), ".xlsx")
	if err := writeSample(file, layout, xlsx, lines); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d lines to %s\n", len(lines), path)
	}
	return nil
}

func writeSample(w io.Writer, layout fixtures.Layout, xlsx bool, lines []fixtures.Line) error {
	var err error
	if xlsx {
		err = fixtures.WriteXLSX(w, lines)
	} else {
		err = fixtures.WriteCSV(w, layout, lines)
	}
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "sample_output", err)
	}
	return nil
}
