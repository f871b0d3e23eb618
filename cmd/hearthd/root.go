package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hearthd",
	Short: "Hearthd is the setup engine of the hearthd automation hub",
	Long: `Hearthd runs interactive, multi-step wizards that configure pluggable
integrations, and keeps the registry of the configuration entries those
wizards produce.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "hearthd.yaml", "Path to the configuration file")
}
