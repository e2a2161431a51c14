package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-keysalvage/internal/config"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/scan"
)

var (
	// Scan range selection
	scanStartOffset int64
	scanMaxBytes    int64
	scanWindowSize  int

	// Output shaping
	scanDumpPath      string
	scanAddressFilter string
	scanTestnet       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Find Bitcoin key records in raw bytes",
	Long: `Scan a raw disk, partition, or image file for Bitcoin key records.

The source is read without mounting or interpreting any filesystem, so
deleted wallets and corrupted media work the same as intact images.

Examples:
  # Scan a disk image and dump findings for later cracking
  keysalvage scan backup.img --dump wallet.json

  # Scan part of a block device
  keysalvage scan /dev/sdb1 --start 1048576 --max-bytes 536870912

  # Flag keys whose address appears in a known-address list
  keysalvage scan backup.img --address-filter addresses.txt`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Int64Var(&scanStartOffset, "start", 0, "byte offset to start scanning at")
	scanCmd.Flags().Int64Var(&scanMaxBytes, "max-bytes", 0, "stop after scanning this many bytes (0 means all)")
	scanCmd.Flags().IntVar(&scanWindowSize, "window", 1<<20, "scan window size in bytes")
	scanCmd.Flags().StringVar(&scanDumpPath, "dump", "", "write findings as a JSON wallet dump")
	scanCmd.Flags().StringVar(&scanAddressFilter, "address-filter", "", "file of known addresses to flag matches against")
	scanCmd.Flags().BoolVar(&scanTestnet, "testnet", false, "encode addresses and WIF for testnet")
}

func runScan(cmd *cobra.Command, sourcePath string) error {
	ctx := appContext()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("window") {
		scanWindowSize = cfg.WindowSize
	}
	if !cmd.Flags().Changed("testnet") {
		scanTestnet = cfg.Testnet
	}

	request := &scan.Request{
		SourcePath:        sourcePath,
		StartOffset:       scanStartOffset,
		MaxBytes:          scanMaxBytes,
		WindowSize:        scanWindowSize,
		DumpPath:          scanDumpPath,
		AddressFilterPath: scanAddressFilter,
		Testnet:           scanTestnet,
	}

	response, err := scan.Handle(ctx, request)
	if err != nil {
		return err
	}

	return scan.FormatOutput(response, ctx.OutputFormat)
}
