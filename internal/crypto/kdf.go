package crypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the length in bytes of a derived AES-256 key and of a raw
// wallet private key.
const KeySize = 32

// DeriveKey derives an AES-256 key from a passphrase using
// PBKDF2-HMAC-SHA512, the derivation used for wallet master keys.
func DeriveKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, KeySize, sha512.New)
}
