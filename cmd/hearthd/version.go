package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of hearthd",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hearthd version %s\n", strings.TrimSpace(hearthd.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
