package bruteforce

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is written into every checkpoint file.
const SchemaVersion = 1

// Params are the search-affecting parameters a checkpoint binds to. A
// resume whose parameters differ from the stored ones is rejected naming
// the offending field.
type Params struct {
	Mode            string `json:"mode"`
	Charset         string `json:"charset,omitempty"`
	MinLength       int    `json:"min_length,omitempty"`
	MaxLength       int    `json:"max_length,omitempty"`
	MaxConsecutive  int    `json:"max_consecutive,omitempty"`
	WordlistDigest  string `json:"wordlist_digest,omitempty"`
	MasterKeyDigest string `json:"master_key_digest"`
	Iterations      int    `json:"iterations"`
}

// Fingerprint hashes the canonical JSON form of the parameters.
func (p *Params) Fingerprint() string {
	canonical, _ := json.Marshal(p)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// diff names the first field that differs from other, or "".
func (p *Params) diff(other *Params) string {
	switch {
	case p.Mode != other.Mode:
		return "mode"
	case p.Charset != other.Charset:
		return "charset"
	case p.MinLength != other.MinLength:
		return "min_length"
	case p.MaxLength != other.MaxLength:
		return "max_length"
	case p.MaxConsecutive != other.MaxConsecutive:
		return "max_consecutive"
	case p.WordlistDigest != other.WordlistDigest:
		return "wordlist_digest"
	case p.MasterKeyDigest != other.MasterKeyDigest:
		return "master_key_digest"
	case p.Iterations != other.Iterations:
		return "iterations"
	}
	return ""
}

// Checkpoint is the durable snapshot of search progress.
type Checkpoint struct {
	SchemaVersion  int       `json:"schema_version"`
	SessionID      string    `json:"session_id"`
	Fingerprint    string    `json:"fingerprint"`
	Params         Params    `json:"params"`
	Cursor         uint64    `json:"cursor"`
	Attempts       uint64    `json:"attempts"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MismatchError reports a resume attempt whose configuration differs
// from the one that produced the checkpoint.
type MismatchError struct {
	Field string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checkpoint was produced with a different %s; refusing to resume", e.Field)
}

// CheckpointStore owns one checkpoint file. Only the search coordinator
// writes it; workers never touch it.
type CheckpointStore struct {
	path      string
	params    Params
	sessionID string
}

// NewCheckpointStore binds a checkpoint file to the current parameters.
func NewCheckpointStore(path string, params Params) *CheckpointStore {
	return &CheckpointStore{
		path:      path,
		params:    params,
		sessionID: uuid.NewString(),
	}
}

// Load reads the checkpoint if one exists. A missing file is a fresh
// start, not an error. Parameter or schema mismatches are rejected.
func (s *CheckpointStore) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	if cp.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported checkpoint schema version %d, want %d", cp.SchemaVersion, SchemaVersion)
	}
	if field := s.params.diff(&cp.Params); field != "" {
		return nil, &MismatchError{Field: field}
	}
	if cp.Fingerprint != s.params.Fingerprint() {
		return nil, &MismatchError{Field: "fingerprint"}
	}

	// Resuming continues the recorded session.
	s.sessionID = cp.SessionID
	return &cp, nil
}

// Save writes the checkpoint atomically via a temp file rename.
func (s *CheckpointStore) Save(cursor, attempts uint64, elapsed time.Duration) error {
	cp := Checkpoint{
		SchemaVersion:  SchemaVersion,
		SessionID:      s.sessionID,
		Fingerprint:    s.params.Fingerprint(),
		Params:         s.params,
		Cursor:         cursor,
		Attempts:       attempts,
		ElapsedSeconds: elapsed.Seconds(),
		UpdatedAt:      time.Now().UTC(),
	}

	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Remove deletes the checkpoint after a completed run.
func (s *CheckpointStore) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SessionID identifies the run in logs and progress output.
func (s *CheckpointStore) SessionID() string {
	return s.sessionID
}
