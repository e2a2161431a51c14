package wallet

import (
	"crypto/sha256"
	"fmt"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
)

// Repository is the in-memory collection of recovered records, partitioned
// by kind and deduplicated by exact content. The same record reached from
// two overlapping scan windows is stored once regardless of offset.
type Repository struct {
	raw       []*RawKeyRecord
	public    []*PublicKeyRecord
	encrypted []*EncryptedKeyRecord
	masters   []*MasterKeyRecord

	seen map[[sha256.Size]byte]struct{}
}

// NewRepository creates an empty record repository.
func NewRepository() *Repository {
	return &Repository{seen: make(map[[sha256.Size]byte]struct{})}
}

// AddRawKey stores a plain key record unless an identical one is present.
func (r *Repository) AddRawKey(record *RawKeyRecord) bool {
	if !r.admit('k', record.PrivateKey, record.PublicKey) {
		return false
	}
	r.raw = append(r.raw, record)
	return true
}

// AddPublicKey stores a standalone public-key record unless present.
func (r *Repository) AddPublicKey(record *PublicKeyRecord) bool {
	if !r.admit('p', record.PublicKey) {
		return false
	}
	r.public = append(r.public, record)
	return true
}

// AddEncryptedKey stores an encrypted key record unless present.
func (r *Repository) AddEncryptedKey(record *EncryptedKeyRecord) bool {
	if !r.admit('c', record.KeyID, record.Ciphertext) {
		return false
	}
	r.encrypted = append(r.encrypted, record)
	return true
}

// AddMasterKey stores a master-key record unless present.
func (r *Repository) AddMasterKey(record *MasterKeyRecord) bool {
	if !r.admit('m', record.Ciphertext, record.Salt) {
		return false
	}
	r.masters = append(r.masters, record)
	return true
}

// admit hashes kind plus payload fields and reports whether the content
// was not seen before, recording it.
func (r *Repository) admit(kind byte, fields ...[]byte) bool {
	h := sha256.New()
	h.Write([]byte{kind})
	for _, f := range fields {
		var n [4]byte
		n[0] = byte(len(f))
		n[1] = byte(len(f) >> 8)
		n[2] = byte(len(f) >> 16)
		n[3] = byte(len(f) >> 24)
		h.Write(n[:])
		h.Write(f)
	}

	var key [sha256.Size]byte
	h.Sum(key[:0])
	if _, dup := r.seen[key]; dup {
		return false
	}
	r.seen[key] = struct{}{}
	return true
}

// RawKeys returns the stored plain key records.
func (r *Repository) RawKeys() []*RawKeyRecord { return r.raw }

// PublicKeys returns the stored standalone public-key records.
func (r *Repository) PublicKeys() []*PublicKeyRecord { return r.public }

// EncryptedKeys returns the stored encrypted key records.
func (r *Repository) EncryptedKeys() []*EncryptedKeyRecord { return r.encrypted }

// MasterKeys returns the stored master-key records.
func (r *Repository) MasterKeys() []*MasterKeyRecord { return r.masters }

// PairRecords attaches public keys to the encrypted records whose key
// identifier matches and returns how many records were paired.
func (r *Repository) PairRecords() int {
	byID := make(map[[sha256.Size]byte][]byte, len(r.public))
	for _, pub := range r.public {
		var id [sha256.Size]byte
		copy(id[:], pub.KeyID())
		byID[id] = pub.PublicKey
	}

	paired := 0
	for _, enc := range r.encrypted {
		if enc.PublicKey != nil {
			paired++
			continue
		}
		var id [sha256.Size]byte
		copy(id[:], enc.KeyID)
		if pub, ok := byID[id]; ok {
			enc.PublicKey = pub
			paired++
		}
	}
	return paired
}

// BestPair returns a paired encrypted record suitable for the strong
// master-key validation check, or nil when none is paired yet.
func (r *Repository) BestPair() *EncryptedKeyRecord {
	r.PairRecords()
	for _, enc := range r.encrypted {
		if enc.PublicKey != nil {
			return enc
		}
	}
	return nil
}

// Unlock decrypts every paired encrypted record under the decrypted
// master key and returns the resulting plain key records. Records that
// fail to decrypt or are unpaired are skipped and counted.
func (r *Repository) Unlock(masterKey []byte) (unlocked []*RawKeyRecord, skipped int, err error) {
	if len(masterKey) != crypto.KeySize {
		return nil, 0, fmt.Errorf("invalid master key length: got %d, want %d", len(masterKey), crypto.KeySize)
	}

	r.PairRecords()
	for _, enc := range r.encrypted {
		if enc.PublicKey == nil {
			skipped++
			continue
		}

		priv, decErr := crypto.DecryptPairedKey(enc.Ciphertext, masterKey, enc.PublicKey)
		if decErr != nil {
			skipped++
			continue
		}

		record := &RawKeyRecord{
			PrivateKey: priv,
			PublicKey:  enc.PublicKey,
			Offset:     enc.Offset,
			ValidCurve: crypto.ValidPrivateKey(priv),
		}
		r.AddRawKey(record)
		unlocked = append(unlocked, record)
	}
	return unlocked, skipped, nil
}

// Counts summarizes the repository contents per kind.
func (r *Repository) Counts() (raw, public, encrypted, masters int) {
	return len(r.raw), len(r.public), len(r.encrypted), len(r.masters)
}
