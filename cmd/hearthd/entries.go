package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/internal/logging"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage configuration entries",
	Long:  `List, inspect, and remove the configuration entries in the store.`,
}

var entriesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all configuration entries",
	Run: func(cmd *cobra.Command, args []string) {
		hub := entriesHub(cmd)

		all := hub.Entries.List()
		if len(all) == 0 {
			fmt.Println("No entries configured.")
			return
		}

		for _, e := range all {
			fmt.Printf("%s  %-12s %-20s %s\n", e.EntryID, e.Domain, e.Title, e.State)
		}
	},
}

var entriesInspectCmd = &cobra.Command{
	Use:   "inspect <entry-id>",
	Short: "Inspect one entry, including its data",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hub := entriesHub(cmd)

		entry, err := hub.Entries.Get(args[0])
		if err != nil {
			fmt.Printf("Error loading entry '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling entry: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var entriesRmCmd = &cobra.Command{
	Use:   "rm <entry-id>...",
	Short: "Remove one or more entries",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hub := entriesHub(cmd)
		hasError := false

		for _, entryID := range args {
			result, err := hub.Entries.Remove(cmd.Context(), entryID)
			if err != nil {
				fmt.Printf("Error removing '%s': %v\n", entryID, err)
				hasError = true
				continue
			}
			fmt.Printf("Removed entry '%s'\n", entryID)
			if result.RequireRestart {
				fmt.Println("  Unload failed; a restart is needed to release its resources.")
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func entriesHub(cmd *cobra.Command) *hearthd.Hub {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	hub := newHub(cfg, logging.NewNop())
	if err := hub.Restore(cmd.Context()); err != nil {
		fmt.Printf("Error restoring entries: %v\n", err)
		os.Exit(1)
	}
	return hub
}

func init() {
	rootCmd.AddCommand(entriesCmd)
	entriesCmd.AddCommand(entriesLsCmd)
	entriesCmd.AddCommand(entriesInspectCmd)
	entriesCmd.AddCommand(entriesRmCmd)
}
