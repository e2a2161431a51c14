package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// BlockSize is the AES block size used throughout wallet encryption.
const BlockSize = aes.BlockSize

// zeroIV is the initialization vector wallet software uses for master key
// material.
var zeroIV = make([]byte, BlockSize)

// DecryptCBC decrypts ciphertext with AES-256-CBC under the given IV. The
// result still carries PKCS#7 padding; callers strip it with StripPadding.
func DecryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length: got %d, want %d", len(key), KeySize)
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("invalid IV length: got %d, want %d", len(iv), BlockSize)
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a positive multiple of %d", len(ciphertext), BlockSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// EncryptCBC applies PKCS#7 padding and encrypts plaintext with
// AES-256-CBC under the given IV.
func EncryptCBC(plaintext, key, iv []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length: got %d, want %d", len(key), KeySize)
	}
	if len(iv) != BlockSize {
		return nil, fmt.Errorf("invalid IV length: got %d, want %d", len(iv), BlockSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	padLen := BlockSize - len(plaintext)%BlockSize
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptMasterKey decrypts a master key ciphertext with the zero IV
// convention wallet software uses for the mkey record. The returned
// plaintext still carries its padding so callers can validate it.
func DecryptMasterKey(ciphertext, derivedKey []byte) ([]byte, error) {
	return DecryptCBC(ciphertext, derivedKey, zeroIV)
}

// StripPadding validates and removes PKCS#7 padding.
func StripPadding(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("padded data length %d is not a positive multiple of %d", len(data), BlockSize)
	}

	padLen := int(data[len(data)-1])
	if padLen < 1 || padLen > BlockSize {
		return nil, fmt.Errorf("invalid padding value %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("inconsistent padding bytes")
		}
	}
	return data[:len(data)-padLen], nil
}
