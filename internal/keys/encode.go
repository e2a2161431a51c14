package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
)

// Params selects the network parameters used for address and WIF encoding.
func Params(testnet bool) *chaincfg.Params {
	if testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// Address derives the legacy P2PKH address for a serialized public key.
func Address(publicKey []byte, params *chaincfg.Params) (string, error) {
	if len(publicKey) != 33 && len(publicKey) != 65 {
		return "", fmt.Errorf("invalid public key length: got %d, want 33 or 65", len(publicKey))
	}

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(publicKey), params)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// WIF encodes a raw 32-byte private key in wallet import format.
func WIF(privateKey []byte, compressed bool, params *chaincfg.Params) (string, error) {
	if !crypto.ValidPrivateKey(privateKey) {
		return "", fmt.Errorf("private key is zero or not below the curve order")
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	wif, err := btcutil.NewWIF(priv, params, compressed)
	if err != nil {
		return "", fmt.Errorf("failed to encode WIF: %w", err)
	}
	return wif.String(), nil
}

// AddressForPrivateKey derives the P2PKH address directly from a private
// key when no public key was recovered alongside it.
func AddressForPrivateKey(privateKey []byte, compressed bool, params *chaincfg.Params) (string, error) {
	pub, err := crypto.DerivePublicKey(privateKey, compressed)
	if err != nil {
		return "", err
	}
	return Address(pub, params)
}
