package recover

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
	"github.com/deploymenttheory/go-keysalvage/pkg/app/crack"
)

const testIterations = 25

var (
	testMaster = []byte("0123456789abcdef0123456789abcdef")
	testSalt   = []byte{0xB5, 0xBA, 0x03, 0xE4, 0x04, 0xF1, 0xD7, 0x9D}
)

// buildImage assembles a synthetic wallet image: a plain key, and when a
// passphrase is given, a master key plus one paired encrypted key.
func buildImage(t *testing.T, passphrase string, withMaster bool) (image []byte, pairedPriv []byte) {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{0x00}, 64)) // leading junk

	plainPriv := bytes.Repeat([]byte{0x42}, wallet.PrivateKeySize)
	buf.Write(wallet.MarkerPrivateKey)
	buf.Write(plainPriv)

	if passphrase == "" {
		return buf.Bytes(), nil
	}

	pairedPriv = bytes.Repeat([]byte{0x21}, wallet.PrivateKeySize)
	pub, err := crypto.DerivePublicKey(pairedPriv, true)
	require.NoError(t, err)
	id := sha256.Sum256(pub)

	pairCiphertext, err := crypto.EncryptCBC(pairedPriv, testMaster, crypto.PairIV(pub))
	require.NoError(t, err)

	buf.Write(bytes.Repeat([]byte{0xFF}, 32))
	buf.Write(wallet.MarkerPublicKey)
	buf.WriteByte(0x21)
	buf.Write(pub)

	buf.Write(wallet.MarkerEncryptedKey)
	buf.Write(id[:])
	buf.Write(pairCiphertext)

	if withMaster {
		derived := crypto.DeriveKey([]byte(passphrase), testSalt, testIterations)
		masterCiphertext, err := crypto.EncryptCBC(testMaster, derived, make([]byte, crypto.BlockSize))
		require.NoError(t, err)

		buf.Write(wallet.MarkerMasterKey)
		buf.WriteByte(byte(len(masterCiphertext)))
		buf.Write(masterCiphertext)
		buf.Write(testSalt)
		var word [4]byte
		binary.LittleEndian.PutUint32(word[:], testIterations)
		buf.Write(word[:])
		binary.LittleEndian.PutUint32(word[:], 0)
		buf.Write(word[:])
	}

	buf.Write(bytes.Repeat([]byte{0x00}, 64))
	return buf.Bytes(), pairedPriv
}

func writeImage(t *testing.T, image []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.img")
	require.NoError(t, os.WriteFile(path, image, 0o600))
	return path
}

func quietContext() *app.Context {
	ctx := app.NewContext()
	ctx.Quiet = true
	return ctx
}

func TestHandleWithPassphrase(t *testing.T) {
	image, pairedPriv := buildImage(t, "letmein", true)

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Passphrase: "letmein",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnlocked, response.Outcome)
	assert.Equal(t, 1, response.Unlocked)
	assert.Zero(t, response.Skipped)
	assert.Empty(t, response.Password, "a supplied passphrase is not echoed back")

	// Plain key from the scan plus the unlocked one.
	require.Len(t, response.Keys, 2)
	unlocked := response.Keys[1]
	assert.Equal(t, hex.EncodeToString(pairedPriv), unlocked.PrivateKey)
	assert.NotEmpty(t, unlocked.WIF)
	assert.NotEmpty(t, unlocked.Address)
	assert.True(t, unlocked.Compressed)
}

func TestHandleRejectsWrongPassphrase(t *testing.T) {
	image, _ := buildImage(t, "letmein", true)

	_, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Passphrase: "wrong",
	})
	require.Error(t, err)

	var common *app.CommonError
	require.ErrorAs(t, err, &common)
	assert.Equal(t, app.ErrCodeInvalidInput, common.Code)
}

func TestHandleCrackFallback(t *testing.T) {
	image, _ := buildImage(t, "73", true)

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Search: crack.SearchOptions{
			MinLength: 2,
			MaxLength: 2,
			Charset:   "0123456789",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnlocked, response.Outcome)
	assert.Equal(t, "73", response.Password)
	assert.Equal(t, 1, response.Unlocked)
}

func TestHandleCrackFallbackExhausted(t *testing.T) {
	image, _ := buildImage(t, "no-such", true)

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Search: crack.SearchOptions{
			MinLength: 2,
			MaxLength: 2,
			Charset:   "01",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeLocked, response.Outcome)
	assert.Empty(t, response.Password)
	assert.Zero(t, response.Unlocked)
	// The plain key is still reported.
	require.Len(t, response.Keys, 1)
}

func TestHandlePlainKeysOnly(t *testing.T) {
	image, _ := buildImage(t, "", false)

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomePlainOnly, response.Outcome)
	require.Len(t, response.Keys, 1)
	assert.NotEmpty(t, response.Keys[0].WIF)
}

func TestHandleLockedWithoutMasterKey(t *testing.T) {
	image, _ := buildImage(t, "letmein", false)

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Passphrase: "letmein",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeLocked, response.Outcome)
	assert.Equal(t, 1, response.EncryptedKeys)
	assert.Zero(t, response.MasterKeys)
}

func TestHandleQRAndDump(t *testing.T) {
	image, _ := buildImage(t, "letmein", true)
	dump := filepath.Join(t.TempDir(), "recovered.json")

	response, err := Handle(quietContext(), &Request{
		SourcePath: writeImage(t, image),
		Passphrase: "letmein",
		QR:         true,
		DumpPath:   dump,
	})
	require.NoError(t, err)

	for _, key := range response.Keys {
		png, err := base64.StdEncoding.DecodeString(key.QR)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	}

	data, err := os.ReadFile(dump)
	require.NoError(t, err)

	var parsed Response
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, OutcomeUnlocked, parsed.Outcome)
	assert.Len(t, parsed.Keys, len(response.Keys))
}

func TestValidateRequiresSource(t *testing.T) {
	err := (&Request{}).Validate()
	assert.Error(t, err)

	err = (&Request{SourcePath: filepath.Join(t.TempDir(), "missing")}).Validate()
	assert.Error(t, err)
}
