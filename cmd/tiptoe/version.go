package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tiptoe"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tiptoe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tiptoe version %s\n", strings.TrimSpace(tiptoe.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
