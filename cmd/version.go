// File: cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of reportflow",
	Long:  `Prints the current version of reportflow.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", rootCmd.CommandPath(), version)
	},
}
