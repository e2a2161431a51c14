package crypto

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var curveOrder = btcec.S256().N

// Validator tests passphrase candidates against one encrypted master key.
// When a paired encrypted private key and its public key are attached, a
// candidate is accepted only if the pair decrypts to the matching secp256k1
// key, so padding that validates by accident never produces a false match.
type Validator struct {
	Ciphertext []byte
	Salt       []byte
	Iterations int

	// Optional paired record for the strong check.
	PairCiphertext []byte
	PairPublicKey  []byte
}

// TryPassphrase derives a key from the candidate, decrypts the master key
// ciphertext and reports whether the plaintext passes validation.
func (v *Validator) TryPassphrase(passphrase []byte) bool {
	_, err := v.MasterKey(passphrase)
	return err == nil
}

// MasterKey returns the decrypted 32-byte master key when the passphrase
// validates, applying the same checks as TryPassphrase.
func (v *Validator) MasterKey(passphrase []byte) ([]byte, error) {
	derived := DeriveKey(passphrase, v.Salt, v.Iterations)

	plain, err := DecryptMasterKey(v.Ciphertext, derived)
	if err != nil {
		return nil, err
	}

	master, ok := validKeyPlaintext(plain)
	if !ok {
		return nil, fmt.Errorf("passphrase does not validate")
	}

	if len(v.PairCiphertext) > 0 && len(v.PairPublicKey) > 0 {
		if !v.verifyPair(master) {
			return nil, fmt.Errorf("passphrase does not validate against the paired key")
		}
	}
	return master, nil
}

// validKeyPlaintext checks that a decrypted block plausibly holds a 32-byte
// key: intact padding, exact length, not all zeros, and at least three
// distinct values among the first eight bytes.
func validKeyPlaintext(plain []byte) ([]byte, bool) {
	key, err := StripPadding(plain)
	if err != nil || len(key) != KeySize {
		return nil, false
	}

	allZero := true
	for _, b := range key {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, false
	}

	distinct := make(map[byte]struct{}, 8)
	for _, b := range key[:8] {
		distinct[b] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, false
	}

	return key, true
}

// verifyPair decrypts the paired encrypted private key under the candidate
// master key and requires the derived public key to equal the stored one.
func (v *Validator) verifyPair(masterKey []byte) bool {
	priv, err := DecryptPairedKey(v.PairCiphertext, masterKey, v.PairPublicKey)
	if err != nil {
		return false
	}

	pub, err := DerivePublicKey(priv, len(v.PairPublicKey) == btcec.PubKeyBytesLenCompressed)
	if err != nil {
		return false
	}
	return bytes.Equal(pub, v.PairPublicKey)
}

// PairIV derives the AES IV for an encrypted private key from its public
// key, the first 16 bytes of the double SHA-256.
func PairIV(publicKey []byte) []byte {
	return chainhash.DoubleHashB(publicKey)[:BlockSize]
}

// DecryptPairedKey decrypts an encrypted private key under a decrypted
// master key using the public-key-derived IV.
func DecryptPairedKey(ciphertext, masterKey, publicKey []byte) ([]byte, error) {
	plain, err := DecryptCBC(ciphertext, masterKey, PairIV(publicKey))
	if err != nil {
		return nil, err
	}

	priv, err := StripPadding(plain)
	if err != nil {
		return nil, err
	}
	if len(priv) != KeySize {
		return nil, fmt.Errorf("decrypted key length: got %d, want %d", len(priv), KeySize)
	}
	return priv, nil
}

// DerivePublicKey computes the secp256k1 public key for a 32-byte private
// key in the requested serialization.
func DerivePublicKey(privateKey []byte, compressed bool) ([]byte, error) {
	if !ValidPrivateKey(privateKey) {
		return nil, fmt.Errorf("private key is zero or not below the curve order")
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	if compressed {
		return priv.PubKey().SerializeCompressed(), nil
	}
	return priv.PubKey().SerializeUncompressed(), nil
}

// ValidPrivateKey reports whether b is a usable secp256k1 private key:
// exactly 32 bytes, non-zero and below the group order.
func ValidPrivateKey(b []byte) bool {
	if len(b) != KeySize {
		return false
	}
	k := new(big.Int).SetBytes(b)
	return k.Sign() > 0 && k.Cmp(curveOrder) < 0
}
