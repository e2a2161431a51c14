package search

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// BuiltinWordlistName selects the embedded BIP-39 English wordlist
// instead of a file path.
const BuiltinWordlistName = "bip39"

// Wordlist enumerates lines of a list verbatim, one candidate per line,
// in list order. Empty lines are dropped at load time.
type Wordlist struct {
	words  [][]byte
	source string
	digest string
}

// LoadWordlist reads one candidate per line from path, skipping empty
// lines. The name "bip39" loads the embedded BIP-39 English list.
func LoadWordlist(path string) (*Wordlist, error) {
	if path == BuiltinWordlistName {
		return NewWordlist(wordlists.English, BuiltinWordlistName), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer file.Close()

	var words []string
	lines := bufio.NewScanner(file)
	for lines.Scan() {
		if line := lines.Text(); line != "" {
			words = append(words, line)
		}
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("wordlist %s contains no candidates", path)
	}

	return NewWordlist(words, path), nil
}

// NewWordlist wraps an in-memory list of candidates.
func NewWordlist(words []string, source string) *Wordlist {
	w := &Wordlist{source: source}
	h := sha256.New()
	for _, word := range words {
		w.words = append(w.words, []byte(word))
		h.Write([]byte(word))
		h.Write([]byte{'\n'})
	}
	w.digest = hex.EncodeToString(h.Sum(nil))
	return w
}

// Total returns the number of candidates.
func (w *Wordlist) Total() uint64 {
	return uint64(len(w.words))
}

// At returns the candidate at the given line index.
func (w *Wordlist) At(index uint64) ([]byte, bool) {
	if index >= uint64(len(w.words)) {
		return nil, false
	}
	return w.words[index], true
}

// Describe names the space for progress output.
func (w *Wordlist) Describe() string {
	return fmt.Sprintf("wordlist %s (%d candidates)", w.source, len(w.words))
}

// Digest identifies the list contents in checkpoint fingerprints, so a
// resume against a changed list is rejected.
func (w *Wordlist) Digest() string {
	return w.digest
}
