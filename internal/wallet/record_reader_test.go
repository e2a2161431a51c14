package wallet

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
)

func buildRawKeyRecord(t *testing.T, priv []byte, compressed bool, withPub bool) []byte {
	t.Helper()
	require.Len(t, priv, PrivateKeySize)

	buf := append([]byte{}, MarkerPrivateKey...)
	buf = append(buf, priv...)
	if withPub {
		pub, err := crypto.DerivePublicKey(priv, compressed)
		require.NoError(t, err)
		if compressed {
			buf = append(buf, tagCompressed)
		} else {
			buf = append(buf, tagUncompressed)
		}
		buf = append(buf, pub...)
	}
	return buf
}

func buildMasterKeyRecord(ciphertext, salt []byte, iterations, method uint32) []byte {
	buf := append([]byte{}, MarkerMasterKey...)
	buf = append(buf, byte(len(ciphertext)))
	buf = append(buf, ciphertext...)
	buf = append(buf, salt...)
	buf = binary.LittleEndian.AppendUint32(buf, iterations)
	buf = binary.LittleEndian.AppendUint32(buf, method)
	return buf
}

func TestReadRawKeyRecordWithPublicKey(t *testing.T) {
	priv := bytes.Repeat([]byte{0x42}, PrivateKeySize)
	data := buildRawKeyRecord(t, priv, true, true)

	record, consumed, err := ReadRawKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, priv, record.PrivateKey)
	assert.Len(t, record.PublicKey, 33)
	assert.True(t, record.ValidCurve)
	assert.True(t, record.Compressed())
}

func TestReadRawKeyRecordBareKey(t *testing.T) {
	priv := bytes.Repeat([]byte{0x17}, PrivateKeySize)
	data := buildRawKeyRecord(t, priv, false, false)

	record, consumed, err := ReadRawKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(MarkerPrivateKey)+PrivateKeySize, consumed)
	assert.Nil(t, record.PublicKey)
}

func TestReadRawKeyRecordInconsistentPublicKeyDemotes(t *testing.T) {
	priv := bytes.Repeat([]byte{0x17}, PrivateKeySize)
	data := buildRawKeyRecord(t, priv, false, false)
	// Compressed tag followed by a blob with an uncompressed lead byte.
	data = append(data, tagCompressed)
	data = append(data, 0x04)
	data = append(data, bytes.Repeat([]byte{0xAA}, 32)...)

	record, consumed, err := ReadRawKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Nil(t, record.PublicKey, "bad public key blob must demote to bare key")
	assert.Equal(t, len(MarkerPrivateKey)+PrivateKeySize, consumed)
}

func TestReadRawKeyRecordTruncated(t *testing.T) {
	data := append([]byte{}, MarkerPrivateKey...)
	data = append(data, bytes.Repeat([]byte{0x01}, PrivateKeySize-1)...)

	_, _, err := ReadRawKeyRecord(data, 0)
	assert.Error(t, err)
}

func TestReadRawKeyRecordFlagsOutOfRangeKey(t *testing.T) {
	data := buildRawKeyRecord(t, make([]byte, PrivateKeySize), false, false)

	record, _, err := ReadRawKeyRecord(data, 0)
	require.NoError(t, err, "scanner keeps out-of-range keys, corruption is expected")
	assert.False(t, record.ValidCurve)
}

func TestReadPublicKeyRecord(t *testing.T) {
	priv := bytes.Repeat([]byte{0x09}, PrivateKeySize)
	pub, err := crypto.DerivePublicKey(priv, false)
	require.NoError(t, err)

	data := append([]byte{}, MarkerPublicKey...)
	data = append(data, tagUncompressed)
	data = append(data, pub...)

	record, consumed, err := ReadPublicKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, pub, record.PublicKey)
	assert.Len(t, record.KeyID(), KeyIDSize)

	_, _, err = ReadPublicKeyRecord(append([]byte{}, MarkerPublicKey...), 0)
	assert.Error(t, err, "standalone record requires a well-formed blob")
}

func TestReadEncryptedKeyRecord(t *testing.T) {
	keyID := bytes.Repeat([]byte{0xC1}, KeyIDSize)
	ciphertext := bytes.Repeat([]byte{0xC2}, EncryptedKeySize)

	data := append([]byte{}, MarkerEncryptedKey...)
	data = append(data, keyID...)
	data = append(data, ciphertext...)

	record, consumed, err := ReadEncryptedKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, keyID, record.KeyID)
	assert.Equal(t, ciphertext, record.Ciphertext)
	assert.Nil(t, record.PublicKey)

	_, _, err = ReadEncryptedKeyRecord(data[:len(data)-1], 0)
	assert.Error(t, err)
}

func TestReadMasterKeyRecord(t *testing.T) {
	ciphertext := bytes.Repeat([]byte{0xD0}, 48)
	salt := bytes.Repeat([]byte{0xD1}, SaltSize)
	data := buildMasterKeyRecord(ciphertext, salt, 25000, 0)

	record, consumed, err := ReadMasterKeyRecord(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, ciphertext, record.Ciphertext)
	assert.Equal(t, salt, record.Salt)
	assert.Equal(t, 25000, record.Iterations)
	assert.Equal(t, uint32(0), record.Method)
	assert.NotEmpty(t, record.Fingerprint())
}

func TestReadMasterKeyRecordRejectsCorruption(t *testing.T) {
	ciphertext := bytes.Repeat([]byte{0xD0}, 48)
	salt := bytes.Repeat([]byte{0xD1}, SaltSize)

	_, _, err := ReadMasterKeyRecord(buildMasterKeyRecord(ciphertext, salt, 0, 0), 0)
	assert.Error(t, err, "zero iterations is corruption")

	_, _, err = ReadMasterKeyRecord(buildMasterKeyRecord(ciphertext, salt, MaxIterations+1, 0), 0)
	assert.Error(t, err, "absurd iterations is corruption")

	_, _, err = ReadMasterKeyRecord(buildMasterKeyRecord(ciphertext[:47], salt, 25000, 0), 0)
	assert.Error(t, err, "ciphertext length must be a block multiple")

	data := buildMasterKeyRecord(ciphertext, salt, 25000, 0)
	_, _, err = ReadMasterKeyRecord(data[:len(data)-4], 0)
	assert.Error(t, err, "truncated trailing fields")
}

func TestCheckMarkerBounds(t *testing.T) {
	data := buildRawKeyRecord(t, bytes.Repeat([]byte{0x42}, PrivateKeySize), false, false)

	_, _, err := ReadRawKeyRecord(data, 1)
	assert.Error(t, err)
	_, _, err = ReadRawKeyRecord(data, -1)
	assert.Error(t, err)
	_, _, err = ReadRawKeyRecord(data, len(data))
	assert.Error(t, err)
}
