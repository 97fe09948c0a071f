// wastectl scores waste events offline with the same rules the ingest
// service applies, using the template narrative.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "wastectl",
	Short:         "Clinical waste risk tooling",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
