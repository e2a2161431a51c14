package bruteforce

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		Mode:            "exhaustive",
		Charset:         "0123456789",
		MinLength:       4,
		MaxLength:       4,
		MasterKeyDigest: "abcd1234",
		Iterations:      25000,
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.checkpoint")
	store := NewCheckpointStore(path, testParams())

	cp, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cp, "missing checkpoint is a fresh start")

	require.NoError(t, store.Save(4200, 3900, 90*time.Second))

	resumed := NewCheckpointStore(path, testParams())
	cp, err = resumed.Load()
	require.NoError(t, err)
	require.NotNil(t, cp)

	assert.Equal(t, uint64(4200), cp.Cursor, "cursor must round-trip exactly")
	assert.Equal(t, uint64(3900), cp.Attempts)
	assert.Equal(t, float64(90), cp.ElapsedSeconds)
	assert.Equal(t, SchemaVersion, cp.SchemaVersion)
	assert.Equal(t, store.SessionID(), resumed.SessionID(), "resume continues the recorded session")
}

func TestCheckpointRejectsParameterMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.checkpoint")
	store := NewCheckpointStore(path, testParams())
	require.NoError(t, store.Save(100, 90, time.Minute))

	changed := testParams()
	changed.Charset = "abcdef"
	_, err := NewCheckpointStore(path, changed).Load()
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "charset", mismatch.Field, "the error names the offending field")

	changed = testParams()
	changed.MaxLength = 6
	_, err = NewCheckpointStore(path, changed).Load()
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "max_length", mismatch.Field)

	changed = testParams()
	changed.MasterKeyDigest = "ffff0000"
	_, err = NewCheckpointStore(path, changed).Load()
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "master_key_digest", mismatch.Field)
}

func TestCheckpointRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.checkpoint")
	store := NewCheckpointStore(path, testParams())

	require.NoError(t, store.Remove(), "removing a missing checkpoint is fine")
	require.NoError(t, store.Save(1, 1, time.Second))
	require.NoError(t, store.Remove())

	cp, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestParamsFingerprint(t *testing.T) {
	a := testParams()
	b := testParams()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Iterations = 1000
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
