package wallet

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
)

// Record markers as they appear in raw wallet bytes. Key and ckey records
// are keyed by the serialized record-type string the database uses; the
// leading byte is the string length.
var (
	MarkerPrivateKey   = []byte{0x04, 0x01, 0x01, 0x04}
	MarkerPublicKey    = []byte{0x03, 'k', 'e', 'y'}
	MarkerEncryptedKey = []byte{0x04, 'c', 'k', 'e', 'y'}
	MarkerMasterKey    = []byte{0x04, 'm', 'k', 'e', 'y'}
)

const (
	// PrivateKeySize is the length of a raw secp256k1 private key.
	PrivateKeySize = crypto.KeySize

	// KeyIDSize is the length of the SHA-256 public-key identifier carried
	// by encrypted-key records.
	KeyIDSize = 32

	// EncryptedKeySize is the ciphertext length of an encrypted private
	// key: a 32-byte key plus one full block of padding.
	EncryptedKeySize = 48

	// SaltSize is the master-key derivation salt length.
	SaltSize = 8

	// MinMasterCiphertext and MaxMasterCiphertext bound the self-described
	// master-key ciphertext length; both are AES block multiples.
	MinMasterCiphertext = 16
	MaxMasterCiphertext = 96

	// DefaultIterations is assumed when a master key's iteration count
	// cannot be recovered from the source.
	DefaultIterations = 25000

	// MaxIterations rejects absurd iteration counts as corruption.
	MaxIterations = 50_000_000

	// Public-key tag bytes preceding a serialized public key.
	tagCompressed   = 0x21
	tagUncompressed = 0x41
)

// RawKeyRecord is an unencrypted private key found in raw bytes, with the
// public key when one was serialized alongside it.
type RawKeyRecord struct {
	PrivateKey []byte
	PublicKey  []byte // 33 or 65 bytes, nil when absent
	Offset     int64
	ValidCurve bool // non-zero and below the secp256k1 group order
}

// Compressed reports whether the record's public key, or the key that
// would be derived for it, uses the compressed serialization.
func (r *RawKeyRecord) Compressed() bool {
	return len(r.PublicKey) != 65
}

// PublicKeyRecord is a standalone serialized public key.
type PublicKeyRecord struct {
	PublicKey []byte
	Offset    int64
}

// KeyID returns the SHA-256 identifier pairing this public key with
// encrypted-key records.
func (r *PublicKeyRecord) KeyID() []byte {
	sum := sha256.Sum256(r.PublicKey)
	return sum[:]
}

// EncryptedKeyRecord is a passphrase-encrypted private key. PublicKey is
// nil until the repository pairs the record with a public key whose
// SHA-256 matches KeyID.
type EncryptedKeyRecord struct {
	KeyID      []byte // 32 bytes, SHA-256 of the owning public key
	Ciphertext []byte // 48 bytes
	PublicKey  []byte
	Offset     int64
}

// MasterKeyRecord is the wallet-wide encrypted symmetric key together with
// everything needed to reproduce its passphrase derivation.
type MasterKeyRecord struct {
	Ciphertext []byte
	Salt       []byte
	Iterations int
	Method     uint32
	Offset     int64
}

// Fingerprint returns a short hex digest identifying the master key in
// checkpoints and progress output.
func (r *MasterKeyRecord) Fingerprint() string {
	h := sha256.New()
	h.Write(r.Ciphertext)
	h.Write(r.Salt)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// validPublicKey reports whether b is structurally a serialized secp256k1
// public key: correct length with the matching leading byte.
func validPublicKey(b []byte) bool {
	switch len(b) {
	case 33:
		return b[0] == 0x02 || b[0] == 0x03
	case 65:
		return b[0] == 0x04
	default:
		return false
	}
}

// recordSpan returns the longest possible record serialization; the
// scanner derives its window overlap from it.
func recordSpan() int {
	// mkey: marker + length byte + max ciphertext + salt + iterations + method
	mkey := len(MarkerMasterKey) + 1 + MaxMasterCiphertext + SaltSize + 4 + 4
	// key: marker + private key + tag + uncompressed public key
	key := len(MarkerPrivateKey) + PrivateKeySize + 1 + 65
	if key > mkey {
		return key
	}
	return mkey
}

// MaxRecordSpan is the longest serialized record the scanner can emit.
var MaxRecordSpan = recordSpan()
