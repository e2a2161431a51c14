package scan

import (
	"time"

	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
)

// Request represents a raw-media scan request
type Request struct {
	SourcePath  string
	StartOffset int64
	MaxBytes    int64
	WindowSize  int

	// Output shaping
	DumpPath          string
	AddressFilterPath string
	Testnet           bool
}

// Response represents scan results. Serialized as JSON it doubles as the
// wallet dump the crack command consumes.
type Response struct {
	Source       string        `json:"source"`
	BytesScanned int64         `json:"bytes_scanned"`
	Truncated    bool          `json:"truncated"`
	ScanTime     time.Duration `json:"scan_time"`

	RawKeys       []RawKeyResult       `json:"raw_keys"`
	PublicKeys    []PublicKeyResult    `json:"public_keys"`
	EncryptedKeys []EncryptedKeyResult `json:"encrypted_keys"`
	MasterKeys    []MasterKeyResult    `json:"master_keys"`

	repository *wallet.Repository
}

// Repository exposes the deduplicated records for downstream pairing and
// decryption.
func (r *Response) Repository() *wallet.Repository {
	return r.repository
}

// RawKeyResult is one recovered plain key with its encodings.
type RawKeyResult struct {
	PrivateKey   string `json:"private_key"`
	PublicKey    string `json:"public_key,omitempty"`
	WIF          string `json:"wif,omitempty"`
	Address      string `json:"address,omitempty"`
	Compressed   bool   `json:"compressed"`
	ValidCurve   bool   `json:"valid_curve"`
	KnownAddress bool   `json:"known_address,omitempty"`
	Offset       int64  `json:"offset"`
}

// PublicKeyResult is one standalone public key.
type PublicKeyResult struct {
	PublicKey    string `json:"public_key"`
	KeyID        string `json:"key_id"`
	Address      string `json:"address,omitempty"`
	KnownAddress bool   `json:"known_address,omitempty"`
	Offset       int64  `json:"offset"`
}

// EncryptedKeyResult is one encrypted private key awaiting a master key.
type EncryptedKeyResult struct {
	KeyID        string `json:"key_id"`
	EncryptedKey string `json:"encrypted_key"`
	PublicKey    string `json:"public_key,omitempty"`
	Offset       int64  `json:"offset"`
}

// MasterKeyResult is one encrypted master key with its derivation fields.
type MasterKeyResult struct {
	EncryptedKey string `json:"encrypted_key"`
	Salt         string `json:"salt"`
	Iterations   int    `json:"iterations"`
	Method       uint32 `json:"method"`
	Offset       int64  `json:"offset"`
}
