package crack

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/deploymenttheory/go-keysalvage/internal/bruteforce"
	"github.com/deploymenttheory/go-keysalvage/internal/search"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/scan"
)

// Handle processes a crack request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	master, err := loadMasterKey(req)
	if err != nil {
		return nil, err
	}

	result, space, err := RunSearch(ctx, master, nil, &req.Search)
	if err != nil {
		return nil, err
	}

	response := &Response{
		Outcome:   result.Outcome.String(),
		Password:  result.Password,
		Attempts:  result.Attempts,
		Cursor:    result.Cursor,
		Total:     space.Total(),
		Elapsed:   result.Elapsed,
		MasterKey: master.Fingerprint(),
		Space:     space.Describe(),
	}
	return response, nil
}

// loadMasterKey resolves the request's master key source.
func loadMasterKey(req *Request) (*wallet.MasterKeyRecord, error) {
	if req.WalletDumpPath != "" {
		master, err := scan.ParseDumpMasterKey(req.WalletDumpPath)
		if err != nil {
			return nil, err
		}
		if req.Iterations > 0 {
			master.Iterations = req.Iterations
		}
		return master, nil
	}

	ciphertext, err := hex.DecodeString(req.EncryptedKeyHex)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid hex in field encrypted-key", err)
	}
	salt, err := hex.DecodeString(req.SaltHex)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid hex in field salt", err)
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = wallet.DefaultIterations
	}

	return &wallet.MasterKeyRecord{
		Ciphertext: ciphertext,
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// BuildSpace constructs the candidate space and its checkpoint binding
// for the given options and master key.
func BuildSpace(opts *SearchOptions, master *wallet.MasterKeyRecord) (search.Space, bruteforce.Params, error) {
	params := bruteforce.Params{
		MasterKeyDigest: master.Fingerprint(),
		Iterations:      master.Iterations,
	}

	if opts.WordlistPath != "" {
		list, err := search.LoadWordlist(opts.WordlistPath)
		if err != nil {
			return nil, params, app.NewError(app.ErrCodeInvalidInput, "failed to load wordlist", err)
		}
		params.Mode = "wordlist"
		params.WordlistDigest = list.Digest()
		return list, params, nil
	}

	params.Charset = opts.Charset
	params.MinLength = opts.MinLength
	params.MaxLength = opts.MaxLength
	params.MaxConsecutive = opts.MaxConsecutive

	if opts.Smart {
		params.Mode = "smart"
		space, err := search.NewSmart(opts.Charset, opts.MinLength, opts.MaxLength, opts.MaxConsecutive)
		if err != nil {
			return nil, params, app.NewError(app.ErrCodeInvalidInput, "invalid search space", err)
		}
		return space, params, nil
	}

	params.Mode = "exhaustive"
	space, err := search.NewExhaustive(opts.Charset, opts.MinLength, opts.MaxLength, opts.MaxConsecutive)
	if err != nil {
		return nil, params, app.NewError(app.ErrCodeInvalidInput, "invalid search space", err)
	}
	return space, params, nil
}

// RunSearch builds the space and engine for one master key and runs the
// search to a terminal outcome. The optional pair record strengthens
// match validation. Shared with the recover command's crack fallback.
func RunSearch(ctx *app.Context, master *wallet.MasterKeyRecord, pair *wallet.EncryptedKeyRecord, opts *SearchOptions) (*bruteforce.Result, search.Space, error) {
	space, params, err := BuildSpace(opts, master)
	if err != nil {
		return nil, nil, err
	}

	cfg := bruteforce.Config{
		Workers:            opts.Processes,
		CheckpointInterval: time.Duration(opts.CheckpointInterval) * time.Second,
	}
	if opts.CheckpointPath != "" {
		cfg.Checkpoint = bruteforce.NewCheckpointStore(opts.CheckpointPath, params)
	}

	console := false
	if ctx.ProgressCallback == nil && !ctx.Quiet {
		ctx.SetProgress(app.ConsoleProgress(os.Stderr))
		console = true
	}
	if ctx.ProgressCallback != nil {
		started := time.Now()
		cfg.Progress = func(p bruteforce.Progress) {
			update := app.ProgressUpdate{
				Completed:   int64(p.Cursor),
				Total:       int64(p.Total),
				StartedAt:   started,
				ElapsedTime: p.Elapsed,
			}
			if opts.ShowCurrent {
				update.Message = p.Current
			}
			ctx.Progress(update)
		}
	}

	if opts.MetricsAddr != "" {
		shutdown, errs := bruteforce.ServeMetrics(opts.MetricsAddr)
		defer shutdown()
		go func() {
			if err, ok := <-errs; ok && err != nil {
				ctx.Error(fmt.Sprintf("metrics endpoint: %v", err))
			}
		}()
	}

	engine, err := bruteforce.NewEngine(master, pair, space, cfg)
	if err != nil {
		return nil, nil, app.NewError(app.ErrCodeInvalidInput, "invalid master key", err)
	}

	ctx.Log(fmt.Sprintf("Searching %s with master key %s", space.Describe(), master.Fingerprint()))

	result, err := engine.Run(ctx)
	if console {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		var mismatch *bruteforce.MismatchError
		if errors.As(err, &mismatch) {
			return nil, nil, app.NewError(app.ErrCodeCheckpointMismatch, mismatch.Error(), err)
		}
		return nil, nil, err
	}
	return result, space, nil
}
