package recover

import (
	"github.com/deploymenttheory/go-keysalvage/pkg/app/crack"
)

// Request represents an end-to-end recovery request: scan the source,
// unlock with a given or cracked passphrase, decrypt every paired key.
type Request struct {
	SourcePath  string
	StartOffset int64
	MaxBytes    int64
	WindowSize  int

	// Passphrase, when set, skips the crack fallback.
	Passphrase string

	Search crack.SearchOptions

	DumpPath string
	QR       bool
	Testnet  bool
}

// Response represents recovery results
type Response struct {
	Source  string `json:"source"`
	Outcome string `json:"outcome"`

	Password string `json:"password,omitempty"`

	Keys     []KeyResult `json:"keys"`
	Unlocked int         `json:"unlocked"`
	Skipped  int         `json:"skipped,omitempty"`

	MasterKeys    int `json:"master_keys"`
	EncryptedKeys int `json:"encrypted_keys"`
}

// Recovery outcomes.
const (
	OutcomePlainOnly = "plain-keys-only" // nothing encrypted was found
	OutcomeUnlocked  = "unlocked"
	OutcomeLocked    = "locked" // encrypted keys present, passphrase not recovered
)

// KeyResult is one recovered key ready for import.
type KeyResult struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key,omitempty"`
	WIF        string `json:"wif,omitempty"`
	Address    string `json:"address,omitempty"`
	Compressed bool   `json:"compressed"`
	Offset     int64  `json:"offset"`
	QR         string `json:"qr,omitempty"` // base64 PNG of the WIF
}
