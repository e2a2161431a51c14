package search

import (
	"fmt"
)

// Exhaustive enumerates every string over an alphabet within a length
// range, shortest length first, lexicographic by alphabet position within
// a length. The index decodes as a fixed-width base-len(alphabet) number,
// so the order is deterministic and any suffix of the enumeration can be
// reproduced from a cursor.
type Exhaustive struct {
	alphabet       []byte
	minLength      int
	maxLength      int
	maxConsecutive int

	// lengthStart[i] is the first index of length minLength+i.
	lengthStart []uint64
	total       uint64
}

// NewExhaustive builds the exhaustive space. maxConsecutive > 0 prunes
// candidates containing a longer run of identical adjacent characters;
// pruned indexes still occupy their place in the domain.
func NewExhaustive(charset string, minLength, maxLength, maxConsecutive int) (*Exhaustive, error) {
	if len(charset) == 0 {
		return nil, fmt.Errorf("charset must not be empty")
	}
	seen := make(map[byte]struct{}, len(charset))
	for i := 0; i < len(charset); i++ {
		if _, dup := seen[charset[i]]; dup {
			return nil, fmt.Errorf("charset contains duplicate character %q", charset[i])
		}
		seen[charset[i]] = struct{}{}
	}
	if minLength < 1 {
		return nil, fmt.Errorf("min-length %d must be at least 1", minLength)
	}
	if maxLength < minLength {
		return nil, fmt.Errorf("max-length %d must not be below min-length %d", maxLength, minLength)
	}
	if maxConsecutive < 0 {
		return nil, fmt.Errorf("max-consecutive %d must not be negative", maxConsecutive)
	}

	total := TotalCandidates(len(charset), minLength, maxLength)
	if !fitsUint64(total) {
		return nil, fmt.Errorf("search space for max-length %d does not fit a 64-bit index domain", maxLength)
	}

	e := &Exhaustive{
		alphabet:       []byte(charset),
		minLength:      minLength,
		maxLength:      maxLength,
		maxConsecutive: maxConsecutive,
		total:          total.Uint64(),
	}

	start := uint64(0)
	size := uint64(len(charset))
	block := uint64(1)
	for l := 1; l <= maxLength; l++ {
		block *= size
		if l >= minLength {
			e.lengthStart = append(e.lengthStart, start)
			start += block
		}
	}
	return e, nil
}

// Total returns the unpruned domain size.
func (e *Exhaustive) Total() uint64 {
	return e.total
}

// At decodes the candidate at index. ok is false when the candidate is
// pruned by the consecutive-run limit.
func (e *Exhaustive) At(index uint64) ([]byte, bool) {
	if index >= e.total {
		return nil, false
	}

	// Locate the length block.
	length := e.minLength
	offset := index
	for i := len(e.lengthStart) - 1; i >= 0; i-- {
		if index >= e.lengthStart[i] {
			length = e.minLength + i
			offset = index - e.lengthStart[i]
			break
		}
	}

	candidate := make([]byte, length)
	size := uint64(len(e.alphabet))
	for i := length - 1; i >= 0; i-- {
		candidate[i] = e.alphabet[offset%size]
		offset /= size
	}

	if e.maxConsecutive > 0 && longestRun(candidate) > e.maxConsecutive {
		return nil, false
	}
	return candidate, true
}

// Describe names the space for progress output.
func (e *Exhaustive) Describe() string {
	return fmt.Sprintf("exhaustive length %d-%d over %d characters", e.minLength, e.maxLength, len(e.alphabet))
}

// longestRun returns the longest run of identical adjacent bytes.
func longestRun(b []byte) int {
	longest, run := 1, 1
	for i := 1; i < len(b); i++ {
		if b[i] == b[i-1] {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}
