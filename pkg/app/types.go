package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// ProgressUpdate represents progress information. For the passphrase
// search, Completed and Total count enumeration indexes, so Rate and ETA
// stay consistent with each other when pruning skips candidates.
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// Rate calculates items per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// ETA estimates time to completion at the rate Rate reports
func (p *ProgressUpdate) ETA() time.Duration {
	if p.Completed == 0 || p.Total == 0 {
		return 0
	}
	rate := p.Rate()
	if rate == 0 {
		return 0
	}
	remaining := p.Total - p.Completed
	return time.Duration(float64(remaining)/rate) * time.Second
}

// ConsoleProgress renders updates as a single rewritten status line.
func ConsoleProgress(w io.Writer) func(ProgressUpdate) {
	return func(p ProgressUpdate) {
		line := fmt.Sprintf("\r%3d%%  %d/%d  %.0f/s  elapsed %s  eta %s",
			p.Percent(), p.Completed, p.Total, p.Rate(),
			p.ElapsedTime.Truncate(time.Second), p.ETA().Truncate(time.Second))
		if p.Message != "" {
			line += fmt.Sprintf("  trying %q", p.Message)
		}
		fmt.Fprint(w, line)
	}
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeSourceAccess       = "SOURCE_ACCESS"
	ErrCodeCheckpointMismatch = "CHECKPOINT_MISMATCH"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodePermission         = "PERMISSION_DENIED"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAccessError classifies a file or device access failure, separating
// permission denials from everything else.
func NewAccessError(message string, cause error) *CommonError {
	if errors.Is(cause, fs.ErrPermission) {
		return NewError(ErrCodePermission, message, cause)
	}
	return NewError(ErrCodeSourceAccess, message, cause)
}
