package wallet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
)

// Record readers parse one candidate record from a byte window at the
// position of its marker. Each returns the record and the number of bytes
// consumed, or an error when the bytes after the marker are not a
// well-formed record of that kind. Errors here are expected in bulk:
// corrupted media produces marker bytes by chance, and the scanner simply
// moves on.

// ReadRawKeyRecord parses a plain private-key record at data[at:]. A
// public key follows only when its tag byte and leading byte agree; a
// structurally inconsistent public-key blob demotes the record to a bare
// private key rather than rejecting it.
func ReadRawKeyRecord(data []byte, at int) (*RawKeyRecord, int, error) {
	if err := checkMarker(data, at, MarkerPrivateKey); err != nil {
		return nil, 0, err
	}

	pos := at + len(MarkerPrivateKey)
	if len(data)-pos < PrivateKeySize {
		return nil, 0, fmt.Errorf("truncated private key: %d bytes after marker, want %d", len(data)-pos, PrivateKeySize)
	}

	record := &RawKeyRecord{
		PrivateKey: cloneBytes(data[pos : pos+PrivateKeySize]),
	}
	record.ValidCurve = crypto.ValidPrivateKey(record.PrivateKey)
	pos += PrivateKeySize
	consumed := pos - at

	if pub, n := readTaggedPublicKey(data, pos); pub != nil {
		record.PublicKey = pub
		consumed += n
	}

	return record, consumed, nil
}

// ReadPublicKeyRecord parses a standalone public-key record at data[at:].
func ReadPublicKeyRecord(data []byte, at int) (*PublicKeyRecord, int, error) {
	if err := checkMarker(data, at, MarkerPublicKey); err != nil {
		return nil, 0, err
	}

	pos := at + len(MarkerPublicKey)
	pub, n := readTaggedPublicKey(data, pos)
	if pub == nil {
		return nil, 0, fmt.Errorf("no well-formed public key after marker at %d", at)
	}

	return &PublicKeyRecord{PublicKey: pub}, len(MarkerPublicKey) + n, nil
}

// ReadEncryptedKeyRecord parses an encrypted private-key record at
// data[at:]: the key identifier followed by a fixed 48-byte ciphertext.
func ReadEncryptedKeyRecord(data []byte, at int) (*EncryptedKeyRecord, int, error) {
	if err := checkMarker(data, at, MarkerEncryptedKey); err != nil {
		return nil, 0, err
	}

	pos := at + len(MarkerEncryptedKey)
	need := KeyIDSize + EncryptedKeySize
	if len(data)-pos < need {
		return nil, 0, fmt.Errorf("truncated encrypted key: %d bytes after marker, want %d", len(data)-pos, need)
	}

	record := &EncryptedKeyRecord{
		KeyID:      cloneBytes(data[pos : pos+KeyIDSize]),
		Ciphertext: cloneBytes(data[pos+KeyIDSize : pos+need]),
	}
	return record, len(MarkerEncryptedKey) + need, nil
}

// ReadMasterKeyRecord parses a master-key record at data[at:]: a
// self-described ciphertext, the salt, then little-endian iteration count
// and method code. Implausible lengths and iteration counts are rejected
// as corruption.
func ReadMasterKeyRecord(data []byte, at int) (*MasterKeyRecord, int, error) {
	if err := checkMarker(data, at, MarkerMasterKey); err != nil {
		return nil, 0, err
	}

	pos := at + len(MarkerMasterKey)
	if len(data)-pos < 1 {
		return nil, 0, fmt.Errorf("truncated master key: missing length byte")
	}

	ctLen := int(data[pos])
	if ctLen < MinMasterCiphertext || ctLen > MaxMasterCiphertext || ctLen%crypto.BlockSize != 0 {
		return nil, 0, fmt.Errorf("implausible master ciphertext length %d: want a multiple of %d in [%d, %d]",
			ctLen, crypto.BlockSize, MinMasterCiphertext, MaxMasterCiphertext)
	}
	pos++

	need := ctLen + SaltSize + 4 + 4
	if len(data)-pos < need {
		return nil, 0, fmt.Errorf("truncated master key: %d bytes after length, want %d", len(data)-pos, need)
	}

	record := &MasterKeyRecord{
		Ciphertext: cloneBytes(data[pos : pos+ctLen]),
		Salt:       cloneBytes(data[pos+ctLen : pos+ctLen+SaltSize]),
		Iterations: int(binary.LittleEndian.Uint32(data[pos+ctLen+SaltSize:])),
		Method:     binary.LittleEndian.Uint32(data[pos+ctLen+SaltSize+4:]),
	}

	if record.Iterations < 1 || record.Iterations > MaxIterations {
		return nil, 0, fmt.Errorf("implausible iteration count %d: want 1..%d", record.Iterations, MaxIterations)
	}

	return record, len(MarkerMasterKey) + 1 + need, nil
}

// readTaggedPublicKey reads a tag byte plus public-key blob at data[pos:].
// Returns nil when the tag, length, or leading byte is inconsistent.
func readTaggedPublicKey(data []byte, pos int) ([]byte, int) {
	if pos >= len(data) {
		return nil, 0
	}

	var blobLen int
	switch data[pos] {
	case tagCompressed:
		blobLen = 33
	case tagUncompressed:
		blobLen = 65
	default:
		return nil, 0
	}

	if len(data)-pos-1 < blobLen {
		return nil, 0
	}
	blob := data[pos+1 : pos+1+blobLen]
	if !validPublicKey(blob) {
		return nil, 0
	}
	return cloneBytes(blob), 1 + blobLen
}

func checkMarker(data []byte, at int, marker []byte) error {
	if at < 0 || at+len(marker) > len(data) {
		return fmt.Errorf("marker out of range at %d", at)
	}
	if !bytes.Equal(data[at:at+len(marker)], marker) {
		return fmt.Errorf("marker mismatch at %d", at)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
