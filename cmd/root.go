package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "keysalvage",
	Short: "Recover Bitcoin private keys from raw media",
	Long: `keysalvage is a read-only command-line tool for recovering Bitcoin
private keys from raw disks, partitions, and image files.

It scans bytes directly, so it works on deleted wallets, corrupted
filesystems, and partial images without mounting anything. Encrypted
keys are decrypted with a known passphrase or by a checkpointed
parallel passphrase search.

Commands:
  scan      Find key records in raw bytes
  crack     Search for the master-key passphrase
  recover   Scan, unlock, and export private keys`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}
