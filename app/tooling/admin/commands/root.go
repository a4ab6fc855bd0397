// Package commands contains the admin tool commands for inspecting the
// faucet database.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "zfaucet/faucet.db", "Path to the faucet database file.")

	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(payoutsCmd)
	rootCmd.AddCommand(blocksCmd)
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Faucet administration",
}

// Execute runs the admin command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
