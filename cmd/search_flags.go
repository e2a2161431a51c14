package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/deploymenttheory/go-keysalvage/internal/config"
	"github.com/deploymenttheory/go-keysalvage/internal/search"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/crack"
)

// searchFlags are the passphrase-search flags shared by the crack and
// recover commands. Each command registers its own instance.
type searchFlags struct {
	minLength          int
	maxLength          int
	charset            string
	processes          int
	wordlist           string
	smart              bool
	maxConsecutive     int
	checkpoint         string
	checkpointInterval int
	metricsAddr        string
	showCurrent        bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minLength, "min-length", 4, "shortest passphrase length to try")
	cmd.Flags().IntVar(&f.maxLength, "max-length", 8, "longest passphrase length to try")
	cmd.Flags().StringVar(&f.charset, "charset", search.DefaultCharset, "candidate alphabet")
	cmd.Flags().IntVarP(&f.processes, "processes", "p", 0, "worker count (0 means CPU count)")
	cmd.Flags().StringVar(&f.wordlist, "wordlist", "", `wordlist file, or "bip39" for the built-in list`)
	cmd.Flags().BoolVar(&f.smart, "smart", false, "try heuristic candidates before the exhaustive sweep")
	cmd.Flags().IntVar(&f.maxConsecutive, "max-consecutive", 0, "prune candidates repeating one character more than N times (0 disables)")
	cmd.Flags().StringVar(&f.checkpoint, "checkpoint", "", "checkpoint file for resumable searches")
	cmd.Flags().IntVar(&f.checkpointInterval, "checkpoint-interval", 60, "seconds between checkpoint writes")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&f.showCurrent, "show-current", false, "show the candidate under test in progress output")

	cmd.MarkFlagsMutuallyExclusive("wordlist", "smart")
	cmd.MarkFlagsMutuallyExclusive("wordlist", "charset")
}

// options builds search options, letting configuration-file values stand
// in for flags the user left at their defaults.
func (f *searchFlags) options(cfg *config.Config, flags *pflag.FlagSet) crack.SearchOptions {
	opts := crack.SearchOptions{
		MinLength:          f.minLength,
		MaxLength:          f.maxLength,
		Charset:            f.charset,
		Processes:          f.processes,
		WordlistPath:       f.wordlist,
		Smart:              f.smart,
		MaxConsecutive:     f.maxConsecutive,
		CheckpointPath:     f.checkpoint,
		CheckpointInterval: f.checkpointInterval,
		MetricsAddr:        f.metricsAddr,
		ShowCurrent:        f.showCurrent,
	}

	if cfg != nil {
		if !flags.Changed("min-length") {
			opts.MinLength = cfg.MinLength
		}
		if !flags.Changed("max-length") {
			opts.MaxLength = cfg.MaxLength
		}
		if !flags.Changed("charset") {
			opts.Charset = cfg.Charset
		}
		if !flags.Changed("processes") {
			opts.Processes = cfg.Processes
		}
		if !flags.Changed("max-consecutive") {
			opts.MaxConsecutive = cfg.MaxConsecutive
		}
		if !flags.Changed("checkpoint-interval") {
			opts.CheckpointInterval = cfg.CheckpointInterval
		}
	}
	return opts
}

// appContext builds the application context from the global output flags.
func appContext() *app.Context {
	ctx := app.NewContext()
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	return ctx
}

// signalContext is an application context cancelled by SIGINT or SIGTERM,
// so long-running searches checkpoint and exit cleanly.
func signalContext() (*app.Context, func()) {
	ctx := appContext()
	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	ctx.Context = sigCtx
	return ctx, stop
}
