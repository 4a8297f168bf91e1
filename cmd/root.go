/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fichaje",
	Short: "Employee time-clock backend",
	Long: `Backend for the warehouse time-clock ("fichaje") kiosks: records
entry/exit/break events, enforces the daily sequencing rules, and mirrors
accepted events into per-user spreadsheet exports in object storage.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
