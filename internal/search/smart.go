package search

import (
	"fmt"
)

// frequencyRank orders characters by how often they appear in leaked
// human-chosen passwords, most frequent first. Characters missing from
// the table sort after it in their original charset order.
const frequencyRank = "ae1ionrls02t9mc8dy3hu5bk4g67pjvfwzxqAEIONRLSTMCDYHUBKGPJVFWZXQ!@#$%^&*()-_=+"

// seedWords are common passphrase stems for the heuristic phase.
var seedWords = []string{
	"password", "bitcoin", "wallet", "secret", "letmein", "qwerty",
	"dragon", "monkey", "master", "shadow", "freedom", "money",
	"love", "god", "admin", "welcome", "ninja", "sunshine",
}

// seedSuffixes are appended to each seed-word shape.
var seedSuffixes = []string{"", "1", "12", "123", "1234", "!", "1!", "123!"}

// Smart wraps an exhaustive space with a deterministic heuristic phase:
// seed-word shapes, repeated single characters, and two-character
// alternations come first, then the exhaustive domain reordered by
// character frequency. A candidate already emitted by the heuristic
// phase is pruned in the fallback, so every candidate is enumerated
// exactly once and coverage matches the plain exhaustive space. The
// heuristic phase is not bound to the charset: seed words and suffixes
// are tried as-is even when they use characters the charset lacks.
type Smart struct {
	heuristics [][]byte
	emitted    map[string]struct{}
	fallback   *Exhaustive
}

// NewSmart builds the smart space over the same parameters as
// NewExhaustive.
func NewSmart(charset string, minLength, maxLength, maxConsecutive int) (*Smart, error) {
	fallback, err := NewExhaustive(orderByFrequency(charset), minLength, maxLength, maxConsecutive)
	if err != nil {
		return nil, err
	}

	s := &Smart{
		emitted:  make(map[string]struct{}),
		fallback: fallback,
	}
	s.buildHeuristics(charset, minLength, maxLength, maxConsecutive)

	if s.fallback.total > s.fallback.total+uint64(len(s.heuristics)) {
		return nil, fmt.Errorf("search space for max-length %d does not fit a 64-bit index domain", maxLength)
	}
	return s, nil
}

// buildHeuristics assembles the finite heuristic phase in a fixed order.
// Entries outside the length bounds or violating the consecutive-run
// limit are not emitted; duplicates are kept once.
func (s *Smart) buildHeuristics(charset string, minLength, maxLength, maxConsecutive int) {
	add := func(candidate string) {
		if len(candidate) < minLength || len(candidate) > maxLength {
			return
		}
		if maxConsecutive > 0 && longestRun([]byte(candidate)) > maxConsecutive {
			return
		}
		if _, dup := s.emitted[candidate]; dup {
			return
		}
		s.emitted[candidate] = struct{}{}
		s.heuristics = append(s.heuristics, []byte(candidate))
	}

	// Seed-word shapes: word, Capitalized, UPPER, each with suffixes.
	for _, word := range seedWords {
		for _, shape := range []string{word, capitalize(word), upper(word)} {
			for _, suffix := range seedSuffixes {
				add(shape + suffix)
			}
		}
	}

	// Repeated single characters at every length in range.
	for i := 0; i < len(charset); i++ {
		for l := minLength; l <= maxLength; l++ {
			add(repeat(charset[i], l))
		}
	}

	// Two-character alternations, frequency order on both positions.
	ordered := orderByFrequency(charset)
	for i := 0; i < len(ordered); i++ {
		for j := 0; j < len(ordered); j++ {
			if i == j {
				continue
			}
			for l := minLength; l <= maxLength; l++ {
				add(alternate(ordered[i], ordered[j], l))
			}
		}
	}
}

// Total returns the heuristic phase plus the unpruned fallback domain.
func (s *Smart) Total() uint64 {
	return uint64(len(s.heuristics)) + s.fallback.Total()
}

// At returns the heuristic candidate for a phase-one index, or the
// frequency-ordered fallback candidate with heuristic repeats pruned.
func (s *Smart) At(index uint64) ([]byte, bool) {
	if index < uint64(len(s.heuristics)) {
		return s.heuristics[index], true
	}

	candidate, ok := s.fallback.At(index - uint64(len(s.heuristics)))
	if !ok {
		return nil, false
	}
	if _, dup := s.emitted[string(candidate)]; dup {
		return nil, false
	}
	return candidate, true
}

// Describe names the space for progress output.
func (s *Smart) Describe() string {
	return fmt.Sprintf("smart (%d heuristics, then %s)", len(s.heuristics), s.fallback.Describe())
}

// orderByFrequency reorders charset most-frequent-first per the rank
// table; unranked characters follow in their original order.
func orderByFrequency(charset string) string {
	rank := func(c byte) int {
		for i := 0; i < len(frequencyRank); i++ {
			if frequencyRank[i] == c {
				return i
			}
		}
		return len(frequencyRank)
	}

	ordered := []byte(charset)
	// Insertion sort keeps the original order for equal ranks.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && rank(ordered[j]) < rank(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return string(ordered)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	b := []byte(word)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func upper(word string) string {
	b := []byte(word)
	for i := range b {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

func repeat(c byte, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func alternate(a, b byte, length int) string {
	out := make([]byte, length)
	for i := range out {
		if i%2 == 0 {
			out[i] = a
		} else {
			out[i] = b
		}
	}
	return string(out)
}
