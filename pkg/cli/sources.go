package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/dragnet/pkg/auth"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source collectors",
	Run: func(_ *cobra.Command, _ []string) {
		for _, info := range sources.All() {
			note := "none"
			if site := info.AuthSite(); site != "" {
				note = site + " cookies"
				if vars := auth.EnvVarsForSite(site); len(vars) > 0 {
					note += " (" + strings.Join(vars, ", ") + ")"
				}
			}
			fmt.Printf("%-18s %-14s auth: %s\n", info.Name(), info.Category(), note)
		}
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
