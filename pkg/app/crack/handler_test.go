package crack

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-keysalvage/internal/crypto"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
	"github.com/deploymenttheory/go-keysalvage/pkg/app"
)

const testIterations = 25

func testMasterHex(t *testing.T, passphrase string) (encryptedKey, salt string) {
	t.Helper()

	saltBytes := []byte{0xB5, 0xBA, 0x03, 0xE4, 0x04, 0xF1, 0xD7, 0x9D}
	master := []byte("0123456789abcdef0123456789abcdef")

	derived := crypto.DeriveKey([]byte(passphrase), saltBytes, testIterations)
	ciphertext, err := crypto.EncryptCBC(master, derived, make([]byte, crypto.BlockSize))
	require.NoError(t, err)

	return hex.EncodeToString(ciphertext), hex.EncodeToString(saltBytes)
}

func quietContext() *app.Context {
	ctx := app.NewContext()
	ctx.Quiet = true
	return ctx
}

func TestHandleFindsPassword(t *testing.T) {
	encryptedKey, salt := testMasterHex(t, "731")

	response, err := Handle(quietContext(), &Request{
		EncryptedKeyHex: encryptedKey,
		SaltHex:         salt,
		Iterations:      testIterations,
		Search: SearchOptions{
			MinLength: 3,
			MaxLength: 3,
			Charset:   "0123456789",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "found", response.Outcome)
	assert.Equal(t, "731", response.Password)
	assert.Equal(t, uint64(1000), response.Total)
	assert.NotEmpty(t, response.MasterKey)
}

func TestHandleExhaustsSpace(t *testing.T) {
	encryptedKey, salt := testMasterHex(t, "zzz")

	response, err := Handle(quietContext(), &Request{
		EncryptedKeyHex: encryptedKey,
		SaltHex:         salt,
		Iterations:      testIterations,
		Search: SearchOptions{
			MinLength: 2,
			MaxLength: 2,
			Charset:   "0123456789",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "exhausted", response.Outcome)
	assert.Equal(t, uint64(100), response.Attempts)
	assert.Empty(t, response.Password)
}

func TestHandleWordlistMode(t *testing.T) {
	encryptedKey, salt := testMasterHex(t, "correct horse")

	list := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(list, []byte("hunter2\ncorrect horse\n"), 0o600))

	response, err := Handle(quietContext(), &Request{
		EncryptedKeyHex: encryptedKey,
		SaltHex:         salt,
		Iterations:      testIterations,
		Search:          SearchOptions{WordlistPath: list},
	})
	require.NoError(t, err)

	assert.Equal(t, "found", response.Outcome)
	assert.Equal(t, "correct horse", response.Password)
	assert.Equal(t, uint64(2), response.Total)
}

func TestHandleWalletDumpSource(t *testing.T) {
	encryptedKey, salt := testMasterHex(t, "42")

	dump := filepath.Join(t.TempDir(), "dump.json")
	doc := `{"master_keys":[{"encrypted_key":"` + encryptedKey + `","salt":"` + salt + `","iterations":25}]}`
	require.NoError(t, os.WriteFile(dump, []byte(doc), 0o600))

	response, err := Handle(quietContext(), &Request{
		WalletDumpPath: dump,
		Search: SearchOptions{
			MinLength: 2,
			MaxLength: 2,
			Charset:   "0123456789",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "found", response.Outcome)
	assert.Equal(t, "42", response.Password)
}

func TestHandleForwardsProgress(t *testing.T) {
	encryptedKey, salt := testMasterHex(t, "no-such")

	ctx := quietContext()
	var updates []app.ProgressUpdate
	ctx.SetProgress(func(update app.ProgressUpdate) {
		updates = append(updates, update)
	})

	_, err := Handle(ctx, &Request{
		EncryptedKeyHex: encryptedKey,
		SaltHex:         salt,
		Iterations:      testIterations,
		Search: SearchOptions{
			MinLength: 2,
			MaxLength: 2,
			Charset:   "01",
		},
	})
	require.NoError(t, err)

	// The coordinator emits a final snapshot even on short runs.
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, int64(4), last.Total)
	assert.Equal(t, last.Total, last.Completed)
	assert.Empty(t, last.Message, "candidates only appear when requested")
}

func TestValidateRequest(t *testing.T) {
	base := SearchOptions{MinLength: 4, MaxLength: 8, Charset: "abc"}

	err := (&Request{Search: base}).Validate()
	assert.Error(t, err, "a master key source is required")

	err = (&Request{WalletDumpPath: "x", EncryptedKeyHex: "aa", Search: base}).Validate()
	assert.Error(t, err, "sources are mutually exclusive")

	err = (&Request{EncryptedKeyHex: "aa", Search: base}).Validate()
	assert.Error(t, err, "salt missing")

	err = (&Request{EncryptedKeyHex: "zz", SaltHex: "aa", Search: base}).Validate()
	assert.Error(t, err, "bad hex")

	err = (&Request{EncryptedKeyHex: "aa", SaltHex: "bb", Search: SearchOptions{MinLength: 0, MaxLength: 4, Charset: "abc"}}).Validate()
	assert.Error(t, err, "min length")

	err = (&Request{EncryptedKeyHex: "aa", SaltHex: "bb", Search: SearchOptions{MinLength: 4, MaxLength: 2, Charset: "abc"}}).Validate()
	assert.Error(t, err, "max below min")

	err = (&Request{EncryptedKeyHex: "aa", SaltHex: "bb", Search: SearchOptions{WordlistPath: "bip39", Smart: true}}).Validate()
	assert.Error(t, err, "wordlist and smart conflict")

	err = (&Request{EncryptedKeyHex: "aa", SaltHex: "bb", Search: SearchOptions{MinLength: 1, MaxLength: 64, Charset: "abcdefghijklmnopqrstuvwxyz"}}).Validate()
	assert.Error(t, err, "space beyond 64-bit indexes")

	err = (&Request{EncryptedKeyHex: "aa", SaltHex: "bb", Search: base}).Validate()
	assert.NoError(t, err)
}

func TestBuildSpaceCheckpointParams(t *testing.T) {
	master := &wallet.MasterKeyRecord{
		Ciphertext: make([]byte, 48),
		Salt:       make([]byte, wallet.SaltSize),
		Iterations: 25000,
	}

	space, params, err := BuildSpace(&SearchOptions{MinLength: 2, MaxLength: 3, Charset: "ab"}, master)
	require.NoError(t, err)
	assert.Equal(t, "exhaustive", params.Mode)
	assert.Equal(t, "ab", params.Charset)
	assert.Equal(t, master.Fingerprint(), params.MasterKeyDigest)
	assert.Equal(t, uint64(4+8), space.Total())

	space, params, err = BuildSpace(&SearchOptions{MinLength: 2, MaxLength: 3, Charset: "ab", Smart: true}, master)
	require.NoError(t, err)
	assert.Equal(t, "smart", params.Mode)
	assert.GreaterOrEqual(t, space.Total(), uint64(12))
}
