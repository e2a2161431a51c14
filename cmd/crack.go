package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-keysalvage/internal/config"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/crack"
)

var (
	// Master key source (exactly one)
	crackWalletDump   string
	crackEncryptedKey string
	crackSalt         string
	crackIterations   int

	crackSearch searchFlags
)

var crackCmd = &cobra.Command{
	Use:   "crack",
	Short: "Search for a master-key passphrase",
	Long: `Brute-force the passphrase protecting a wallet's master key.

The master key comes from a wallet dump written by the scan command or
from discrete hex parameters. The search runs across all CPUs and can
checkpoint its position, so an interrupted run resumes where it left
off.

Examples:
  # Crack from a scan dump, checkpointing every minute
  keysalvage crack --wallet-dump wallet.json --checkpoint search.ckpt

  # Short numeric PINs only
  keysalvage crack --wallet-dump wallet.json --charset 0123456789 --min-length 4 --max-length 6

  # Try the BIP-39 wordlist against discrete parameters
  keysalvage crack --encrypted-key 04fd... --salt b5ba03e404f1d79d --iterations 25000 --wordlist bip39`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrack(cmd)
	},
}

func init() {
	rootCmd.AddCommand(crackCmd)

	crackCmd.Flags().StringVar(&crackWalletDump, "wallet-dump", "", "JSON wallet dump from the scan command")
	crackCmd.Flags().StringVar(&crackEncryptedKey, "encrypted-key", "", "master key ciphertext in hex")
	crackCmd.Flags().StringVar(&crackSalt, "salt", "", "derivation salt in hex")
	crackCmd.Flags().IntVar(&crackIterations, "iterations", 0, "key derivation iterations (0 uses the recorded or default count)")
	crackSearch.register(crackCmd)

	crackCmd.MarkFlagsMutuallyExclusive("wallet-dump", "encrypted-key")
	crackCmd.MarkFlagsRequiredTogether("encrypted-key", "salt")
}

func runCrack(cmd *cobra.Command) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("iterations") {
		crackIterations = 0 // recorded count wins; cfg.Iterations is a last resort
		if crackEncryptedKey != "" {
			crackIterations = cfg.Iterations
		}
	}

	request := &crack.Request{
		WalletDumpPath:  crackWalletDump,
		EncryptedKeyHex: crackEncryptedKey,
		SaltHex:         crackSalt,
		Iterations:      crackIterations,
		Search:          crackSearch.options(cfg, cmd.Flags()),
	}

	response, err := crack.Handle(ctx, request)
	if err != nil {
		return err
	}

	return crack.FormatOutput(response, ctx.OutputFormat)
}
