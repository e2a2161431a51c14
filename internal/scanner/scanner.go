package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
)

// DefaultWindowSize is the scan window size in bytes.
const DefaultWindowSize = 1 << 20

// Options bounds a scan.
type Options struct {
	StartOffset int64
	MaxBytes    int64 // 0 means scan to the end of the source
	WindowSize  int   // 0 means DefaultWindowSize
}

// Result collects everything one scan found. The repository carries the
// same records with content deduplication already applied and is what
// downstream pairing and decryption consume.
type Result struct {
	RawKeys       []*wallet.RawKeyRecord
	PublicKeys    []*wallet.PublicKeyRecord
	EncryptedKeys []*wallet.EncryptedKeyRecord
	MasterKeys    []*wallet.MasterKeyRecord

	BytesScanned int64
	Truncated    bool

	Repository *wallet.Repository
}

// Scan reads the source in overlapping windows and applies the four
// record matchers to each. The overlap is one byte short of the longest
// record span, so a record split across a window boundary is always seen
// whole in the following window. Unreadable regions and end-of-stream
// truncate the scan gracefully: everything found so far is returned with
// Truncated set. Scanning is sequential and single-threaded by design.
func Scan(source io.ReaderAt, size int64, opts Options) (*Result, error) {
	windowSize := opts.WindowSize
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	overlap := wallet.MaxRecordSpan - 1
	if windowSize <= overlap {
		return nil, fmt.Errorf("window size %d must exceed the record overlap %d", windowSize, overlap)
	}
	if opts.StartOffset < 0 {
		return nil, fmt.Errorf("start offset %d must not be negative", opts.StartOffset)
	}
	if opts.MaxBytes < 0 {
		return nil, fmt.Errorf("max bytes %d must not be negative", opts.MaxBytes)
	}

	start := opts.StartOffset
	if start > size {
		start = size
	}
	limit := size
	if opts.MaxBytes > 0 && start+opts.MaxBytes < limit {
		limit = start + opts.MaxBytes
	}

	repo := wallet.NewRepository()
	result := &Result{Repository: repo}
	window := make([]byte, windowSize)

	pos := start
	for pos < limit {
		want := int64(windowSize)
		if pos+want > limit {
			want = limit - pos
		}

		n, err := source.ReadAt(window[:want], pos)
		if n > 0 {
			// A read error or short EOF means no further window will
			// cover these bytes, so parse right up to the end.
			final := pos+int64(n) >= limit || err != nil
			scanWindow(repo, window[:n], pos, final)
			result.BytesScanned = pos + int64(n) - start
		}
		if err != nil && !errors.Is(err, io.EOF) {
			// Unreadable region: return what was found rather than failing.
			result.Truncated = true
			break
		}
		if errors.Is(err, io.EOF) && int64(n) < want {
			result.Truncated = pos+int64(n) < limit
			break
		}

		if int64(n) <= int64(overlap) {
			break
		}
		pos += int64(n) - int64(overlap)
	}

	result.RawKeys = repo.RawKeys()
	result.PublicKeys = repo.PublicKeys()
	result.EncryptedKeys = repo.EncryptedKeys()
	result.MasterKeys = repo.MasterKeys()
	return result, nil
}

// scanWindow applies all four matchers to one window. Markers too close
// to the end of a non-final window are left for the next window, which
// starts early enough to contain the whole record.
func scanWindow(repo *wallet.Repository, window []byte, base int64, final bool) {
	cutoff := len(window) - wallet.MaxRecordSpan

	forEachMarker(window, wallet.MarkerPrivateKey, func(at int) {
		if !final && at > cutoff {
			return
		}
		if record, _, err := wallet.ReadRawKeyRecord(window, at); err == nil {
			record.Offset = base + int64(at)
			repo.AddRawKey(record)
		}
	})

	forEachMarker(window, wallet.MarkerPublicKey, func(at int) {
		if !final && at > cutoff {
			return
		}
		if record, _, err := wallet.ReadPublicKeyRecord(window, at); err == nil {
			record.Offset = base + int64(at)
			repo.AddPublicKey(record)
		}
	})

	forEachMarker(window, wallet.MarkerEncryptedKey, func(at int) {
		if !final && at > cutoff {
			return
		}
		if record, _, err := wallet.ReadEncryptedKeyRecord(window, at); err == nil {
			record.Offset = base + int64(at)
			repo.AddEncryptedKey(record)
		}
	})

	forEachMarker(window, wallet.MarkerMasterKey, func(at int) {
		if !final && at > cutoff {
			return
		}
		if record, _, err := wallet.ReadMasterKeyRecord(window, at); err == nil {
			record.Offset = base + int64(at)
			repo.AddMasterKey(record)
		}
	})
}

// forEachMarker calls fn with the index of every occurrence of marker.
func forEachMarker(window, marker []byte, fn func(at int)) {
	from := 0
	for {
		idx := bytes.Index(window[from:], marker)
		if idx < 0 {
			return
		}
		fn(from + idx)
		from += idx + 1
	}
}

// ScanPath opens path and scans it with the given options.
func ScanPath(path string, opts Options) (*Result, error) {
	source, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	return Scan(source, source.Size(), opts)
}
