package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/crumbtrail"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of crumbtrail",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crumbtrail version %s\n", strings.TrimSpace(crumbtrail.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
