package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deploymenttheory/go-keysalvage/internal/config"
	recoverapp "github.com/deploymenttheory/go-keysalvage/pkg/app/recover"
)

var (
	// Scan range selection
	recoverStartOffset int64
	recoverMaxBytes    int64
	recoverWindowSize  int

	// Unlock settings
	recoverPassphrase string
	recoverPrompt     bool

	// Output shaping
	recoverDumpPath string
	recoverQR       bool
	recoverTestnet  bool

	recoverSearch searchFlags
)

var recoverCmd = &cobra.Command{
	Use:   "recover <path>",
	Short: "Scan, unlock, and export private keys",
	Long: `Scan a source for key records, then decrypt everything encrypted.

The passphrase comes from --passphrase, from an interactive no-echo
prompt with --prompt, or failing both, from the crack engine using the
same search flags the crack command takes.

Examples:
  # Known passphrase, prompted without echo
  keysalvage recover backup.img --prompt --dump keys.json

  # Unknown passphrase: crack digits up to length 6, with QR export
  keysalvage recover backup.img --charset 0123456789 --min-length 4 --max-length 6 --qr`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecover(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().Int64Var(&recoverStartOffset, "start", 0, "byte offset to start scanning at")
	recoverCmd.Flags().Int64Var(&recoverMaxBytes, "max-bytes", 0, "stop after scanning this many bytes (0 means all)")
	recoverCmd.Flags().IntVar(&recoverWindowSize, "window", 1<<20, "scan window size in bytes")
	recoverCmd.Flags().StringVar(&recoverPassphrase, "passphrase", "", "wallet passphrase")
	recoverCmd.Flags().BoolVar(&recoverPrompt, "prompt", false, "read the passphrase interactively without echo")
	recoverCmd.Flags().StringVar(&recoverDumpPath, "dump", "", "write recovered keys to this file instead of stdout")
	recoverCmd.Flags().BoolVar(&recoverQR, "qr", false, "attach a base64 QR PNG per recovered key")
	recoverCmd.Flags().BoolVar(&recoverTestnet, "testnet", false, "encode addresses and WIF for testnet")
	recoverSearch.register(recoverCmd)

	recoverCmd.MarkFlagsMutuallyExclusive("passphrase", "prompt")
}

func runRecover(cmd *cobra.Command, sourcePath string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("window") {
		recoverWindowSize = cfg.WindowSize
	}
	if !cmd.Flags().Changed("testnet") {
		recoverTestnet = cfg.Testnet
	}

	passphrase := recoverPassphrase
	if recoverPrompt {
		passphrase, err = promptPassphrase()
		if err != nil {
			return err
		}
	}

	request := &recoverapp.Request{
		SourcePath:  sourcePath,
		StartOffset: recoverStartOffset,
		MaxBytes:    recoverMaxBytes,
		WindowSize:  recoverWindowSize,
		Passphrase:  passphrase,
		Search:      recoverSearch.options(cfg, cmd.Flags()),
		DumpPath:    recoverDumpPath,
		QR:          recoverQR,
		Testnet:     recoverTestnet,
	}

	response, err := recoverapp.Handle(ctx, request)
	if err != nil {
		return err
	}

	return recoverapp.FormatOutput(response, ctx.OutputFormat)
}

// promptPassphrase reads the passphrase from the controlling terminal
// without echoing it.
func promptPassphrase() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--prompt requires an interactive terminal")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	line, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(line), nil
}
