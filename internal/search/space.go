package search

import (
	"math"
	"math/big"
)

// DefaultCharset covers lowercase, uppercase, digits and the common
// symbols wallet passphrases use.
const DefaultCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+"

// Space is a deterministic, finite, index-addressable candidate
// enumeration. At returns the candidate for an index, or ok=false when
// the index is pruned: pruned indexes advance the cursor but are not
// attempts, so checkpoints stay valid across parameter-compatible
// resumes. Workers are handed disjoint index ranges, never iterators.
type Space interface {
	// Total is the size of the index domain, including pruned indexes.
	Total() uint64

	// At returns the candidate at the given index. ok is false for a
	// pruned index. The mapping is pure: the same index always yields
	// the same candidate.
	At(index uint64) (candidate []byte, ok bool)

	// Describe names the space for progress output.
	Describe() string
}

// TotalCandidates computes Σ alphabetSize^L for L in [minLength,
// maxLength] without enumerating the space.
func TotalCandidates(alphabetSize, minLength, maxLength int) *big.Int {
	total := new(big.Int)
	size := big.NewInt(int64(alphabetSize))
	for l := minLength; l <= maxLength; l++ {
		total.Add(total, new(big.Int).Exp(size, big.NewInt(int64(l)), nil))
	}
	return total
}

// Fits reports whether an exhaustive space over the given parameters can
// address a uint64 index domain, required for worker partitioning.
func Fits(alphabetSize, minLength, maxLength int) bool {
	return fitsUint64(TotalCandidates(alphabetSize, minLength, maxLength))
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// fitsUint64 reports whether a space total can address a uint64 index
// domain, required for worker partitioning.
func fitsUint64(total *big.Int) bool {
	return total.Cmp(maxUint64) <= 0
}
