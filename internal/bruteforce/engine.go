package bruteforce

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
	"github.com/deploymenttheory/go-keysalvage/internal/search"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
)

// Outcome is the terminal state of a search run.
type Outcome int

const (
	// OutcomeFound means a passphrase validated against the master key.
	OutcomeFound Outcome = iota

	// OutcomeExhausted means every index in the domain was verified with
	// no match. Terminal and non-retriable.
	OutcomeExhausted

	// OutcomeCancelled means the run was interrupted; a checkpoint was
	// persisted before return.
	OutcomeCancelled

	// OutcomeIncomplete means a crashed work unit could not be requeued,
	// so part of the space was not verified.
	OutcomeIncomplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Config tunes one search run.
type Config struct {
	Workers            int           // 0 means runtime.NumCPU()
	ChunkSize          uint64        // candidates per work unit, 0 means 2048
	Checkpoint         *CheckpointStore
	CheckpointInterval time.Duration // 0 means 60s
	Progress           ProgressFunc
	ProgressInterval   time.Duration // 0 means 1s
}

// Result reports how a run ended.
type Result struct {
	Outcome  Outcome
	Password string
	Attempts uint64        // derivation attempts, pruned indexes excluded
	Cursor   uint64        // lowest unverified index
	Elapsed  time.Duration // includes time recorded by a resumed checkpoint
}

const (
	defaultChunkSize          = 2048
	defaultCheckpointInterval = 60 * time.Second
	defaultProgressInterval   = time.Second

	// Workers check for cancellation between candidates at this stride; a
	// single derivation is atomic.
	cancelCheckStride = 64

	// Workers flush count deltas to the coordinator at this stride.
	progressStride = 512
)

// Engine coordinates parallel passphrase search over one master key.
// Workers receive disjoint index ranges into the candidate space and
// report counts by message; the coordinator owns all checkpoint and
// progress state.
type Engine struct {
	validator *crypto.Validator
	space     search.Space
	cfg       Config
}

// NewEngine validates the master key and configuration, failing fast
// with the offending field before any worker starts. The optional paired
// record enables the strong public-key validation check.
func NewEngine(master *wallet.MasterKeyRecord, pair *wallet.EncryptedKeyRecord, space search.Space, cfg Config) (*Engine, error) {
	if master == nil {
		return nil, fmt.Errorf("master key record is required")
	}
	if len(master.Ciphertext) == 0 || len(master.Ciphertext)%crypto.BlockSize != 0 {
		return nil, fmt.Errorf("master key field encrypted_key: length %d is not a positive multiple of %d", len(master.Ciphertext), crypto.BlockSize)
	}
	if len(master.Salt) != wallet.SaltSize {
		return nil, fmt.Errorf("master key field salt: got %d bytes, want %d", len(master.Salt), wallet.SaltSize)
	}
	if master.Iterations < 1 || master.Iterations > wallet.MaxIterations {
		return nil, fmt.Errorf("master key field iterations: %d not in 1..%d", master.Iterations, wallet.MaxIterations)
	}
	if space.Total() == 0 {
		return nil, fmt.Errorf("search space is empty")
	}

	validator := &crypto.Validator{
		Ciphertext: master.Ciphertext,
		Salt:       master.Salt,
		Iterations: master.Iterations,
	}
	if pair != nil && pair.PublicKey != nil {
		validator.PairCiphertext = pair.Ciphertext
		validator.PairPublicKey = pair.PublicKey
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = defaultCheckpointInterval
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}

	return &Engine{validator: validator, space: space, cfg: cfg}, nil
}

type workRange struct {
	start, end uint64 // half-open candidate index range
}

type rangeStatus int

const (
	rangeDone rangeStatus = iota
	rangeMatched
	rangeAborted
	rangeCrashed
)

type rangeReport struct {
	r        workRange
	status   rangeStatus
	password string
	attempts uint64 // attempts not yet reported through deltas
}

type countDelta struct {
	attempts uint64
	current  string
}

// Run executes the search until a match, exhaustion, cancellation, or
// degraded completion. The checkpoint cursor only ever advances over a
// contiguous prefix of verified ranges, so a resume retests nothing that
// was verified and skips nothing that was not.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	cursor := uint64(0)
	attempts := uint64(0)
	baseElapsed := time.Duration(0)

	if e.cfg.Checkpoint != nil {
		cp, err := e.cfg.Checkpoint.Load()
		if err != nil {
			return nil, err
		}
		if cp != nil {
			cursor = cp.Cursor
			attempts = cp.Attempts
			baseElapsed = time.Duration(cp.ElapsedSeconds * float64(time.Second))
		}
	}

	total := e.space.Total()
	elapsed := func() time.Duration { return baseElapsed + time.Since(started) }

	if cursor >= total {
		if e.cfg.Checkpoint != nil {
			e.cfg.Checkpoint.Remove()
		}
		return &Result{Outcome: OutcomeExhausted, Attempts: attempts, Cursor: total, Elapsed: elapsed()}, nil
	}

	if e.cfg.Checkpoint != nil {
		if err := e.cfg.Checkpoint.Save(cursor, attempts, elapsed()); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan workRange)
	reports := make(chan rangeReport, e.cfg.Workers)
	deltas := make(chan countDelta, e.cfg.Workers*4)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				reports <- e.processRange(runCtx, r, deltas)
			}
		}()
	}

	var cpTick, progTick <-chan time.Time
	if e.cfg.Checkpoint != nil {
		t := time.NewTicker(e.cfg.CheckpointInterval)
		defer t.Stop()
		cpTick = t.C
	}
	if e.cfg.Progress != nil {
		t := time.NewTicker(e.cfg.ProgressInterval)
		defer t.Stop()
		progTick = t.C
	}

	// Coordinator state. frontier is the contiguous verified prefix.
	next := cursor
	frontier := cursor
	completed := make(map[uint64]uint64) // range start -> end, verified out of order
	pending := []workRange{}
	retried := make(map[uint64]bool)
	inflight := 0
	incomplete := false
	cancelled := false
	current := ""
	var found *rangeReport

	advanceFrontier := func() {
		for {
			end, ok := completed[frontier]
			if !ok {
				return
			}
			delete(completed, frontier)
			frontier = end
		}
	}

	handleReport := func(rep rangeReport) {
		inflight--
		attempts += rep.attempts
		metricAttempts.Add(float64(rep.attempts))

		switch rep.status {
		case rangeDone:
			completed[rep.r.start] = rep.r.end
			advanceFrontier()
		case rangeMatched:
			if found == nil {
				found = &rep
				metricMatches.Inc()
			}
			cancel()
		case rangeCrashed:
			metricWorkerRestarts.Inc()
			if !retried[rep.r.start] {
				retried[rep.r.start] = true
				pending = append(pending, rep.r)
			} else {
				incomplete = true
			}
		case rangeAborted:
			// Cancelled mid-range; the range stays unverified and the
			// frontier does not cross it.
		}
	}

	for found == nil && !cancelled && (inflight > 0 || len(pending) > 0 || next < total) {
		// A nil channel send is never selected, so dispatch only arms
		// when there is work to hand out.
		var dispatch chan workRange
		var out workRange
		if len(pending) > 0 {
			dispatch, out = work, pending[0]
		} else if next < total {
			end := next + e.cfg.ChunkSize
			if end > total {
				end = total
			}
			dispatch, out = work, workRange{start: next, end: end}
		}

		select {
		case dispatch <- out:
			if len(pending) > 0 {
				pending = pending[1:]
			} else {
				next = out.end
			}
			inflight++
		case rep := <-reports:
			handleReport(rep)
		case d := <-deltas:
			attempts += d.attempts
			metricAttempts.Add(float64(d.attempts))
			if d.current != "" {
				current = d.current
			}
		case <-cpTick:
			if err := e.cfg.Checkpoint.Save(frontier, attempts, elapsed()); err != nil {
				return nil, fmt.Errorf("failed to persist checkpoint: %w", err)
			}
		case <-progTick:
			e.emitProgress(frontier, total, attempts, elapsed(), current)
		case <-runCtx.Done():
			cancelled = true
		}
	}

	// Drain: workers finish their current range once the work channel
	// closes; late reports still count attempts and can carry a match
	// that raced the cancellation.
	cancel()
	close(work)
	go func() {
		wg.Wait()
		close(reports)
		close(deltas)
	}()
	for rep := range reports {
		attempts += rep.attempts
		metricAttempts.Add(float64(rep.attempts))
		if rep.status == rangeMatched && found == nil {
			found = &rep
			metricMatches.Inc()
		}
		if rep.status == rangeDone {
			completed[rep.r.start] = rep.r.end
			advanceFrontier()
		}
	}
	for d := range deltas {
		attempts += d.attempts
		metricAttempts.Add(float64(d.attempts))
	}

	e.emitProgress(frontier, total, attempts, elapsed(), current)

	result := &Result{Attempts: attempts, Cursor: frontier, Elapsed: elapsed()}
	switch {
	case found != nil:
		result.Outcome = OutcomeFound
		result.Password = found.password
		if e.cfg.Checkpoint != nil {
			e.cfg.Checkpoint.Remove()
		}
	case cancelled:
		result.Outcome = OutcomeCancelled
		if e.cfg.Checkpoint != nil {
			if err := e.cfg.Checkpoint.Save(frontier, attempts, elapsed()); err != nil {
				return nil, fmt.Errorf("failed to persist final checkpoint: %w", err)
			}
		}
	case incomplete:
		result.Outcome = OutcomeIncomplete
		if e.cfg.Checkpoint != nil {
			if err := e.cfg.Checkpoint.Save(frontier, attempts, elapsed()); err != nil {
				return nil, fmt.Errorf("failed to persist final checkpoint: %w", err)
			}
		}
	default:
		result.Outcome = OutcomeExhausted
		result.Cursor = total
		if e.cfg.Checkpoint != nil {
			e.cfg.Checkpoint.Remove()
		}
	}
	return result, nil
}

// processRange tests every candidate in one index range. A panic inside
// derivation is reported as a crashed range so the coordinator can
// requeue it.
func (e *Engine) processRange(ctx context.Context, r workRange, deltas chan<- countDelta) (rep rangeReport) {
	rep = rangeReport{r: r, status: rangeDone}
	defer func() {
		if recover() != nil {
			rep.status = rangeCrashed
		}
	}()

	var unreported uint64
	for i := r.start; i < r.end; i++ {
		if i%cancelCheckStride == 0 {
			select {
			case <-ctx.Done():
				rep.status = rangeAborted
				rep.attempts = unreported
				return rep
			default:
			}
		}

		candidate, ok := e.space.At(i)
		if !ok {
			continue // pruned index, not an attempt
		}

		unreported++
		if e.validator.TryPassphrase(candidate) {
			rep.status = rangeMatched
			rep.password = string(candidate)
			rep.attempts = unreported
			return rep
		}

		if unreported >= progressStride {
			// Non-blocking: a full channel just defers the delta to the
			// final range report.
			select {
			case deltas <- countDelta{attempts: unreported, current: string(candidate)}:
				unreported = 0
			default:
			}
		}
	}
	rep.attempts = unreported
	return rep
}

func (e *Engine) emitProgress(cursor, total, attempts uint64, elapsed time.Duration, current string) {
	if total > 0 {
		metricProgress.Set(float64(cursor) / float64(total))
	}
	if e.cfg.Progress == nil {
		return
	}
	e.cfg.Progress(Progress{
		Attempts: attempts,
		Cursor:   cursor,
		Total:    total,
		Elapsed:  elapsed,
		Current:  current,
	})
}
