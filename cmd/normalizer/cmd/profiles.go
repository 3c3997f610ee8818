package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"golang-statement-normalizer/internal/parsers"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in statement profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, p := range parsers.GetStatementProfiles() {
			fmt.Fprintf(w, "%-8s %s\n", p.Name, p.Description)
			if len(p.DateLayouts) > 0 {
				fmt.Fprintf(w, "         date layouts: %s\n", strings.Join(p.DateLayouts, ", "))
			}
			if len(p.CreditKeywords) > 0 {
				fmt.Fprintf(w, "         credit keywords: %s\n", strings.Join(p.CreditKeywords, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
