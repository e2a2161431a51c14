package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartEmitsHeuristicsFirst(t *testing.T) {
	space, err := NewSmart("abc123", 4, 6, 0)
	require.NoError(t, err)

	first, ok := space.At(0)
	require.True(t, ok)
	assert.Equal(t, "password", string(first), "seed words lead the heuristic phase")

	assert.Greater(t, space.Total(), TotalCandidates(6, 4, 6).Uint64(),
		"domain covers heuristics plus the exhaustive fallback")
}

func TestSmartCoverageMatchesExhaustive(t *testing.T) {
	smart, err := NewSmart("ab1", 2, 3, 0)
	require.NoError(t, err)
	plain, err := NewExhaustive("ab1", 2, 3, 0)
	require.NoError(t, err)

	smartSet := make(map[string]int)
	for _, c := range collect(t, smart) {
		smartSet[c]++
	}

	// Every exhaustive candidate appears exactly once; nothing from the
	// charset-only domain is emitted twice across the two phases.
	for _, c := range collect(t, plain) {
		assert.Equal(t, 1, smartSet[c], "candidate %q must appear exactly once", c)
	}
}

func TestSmartHeuristicsRespectBounds(t *testing.T) {
	space, err := NewSmart("ab", 3, 4, 2)
	require.NoError(t, err)

	for i := uint64(0); i < space.Total(); i++ {
		candidate, ok := space.At(i)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, len(candidate), 3)
		assert.LessOrEqual(t, len(candidate), 4)
		assert.LessOrEqual(t, longestRun(candidate), 2)
		if i > 1000 {
			break
		}
	}
}

func TestSmartDeterministic(t *testing.T) {
	a, err := NewSmart("abc", 2, 3, 0)
	require.NoError(t, err)
	b, err := NewSmart("abc", 2, 3, 0)
	require.NoError(t, err)

	require.Equal(t, a.Total(), b.Total())
	for i := uint64(0); i < a.Total(); i++ {
		ca, oka := a.At(i)
		cb, okb := b.At(i)
		require.Equal(t, oka, okb, "index %d", i)
		assert.Equal(t, ca, cb, "index %d", i)
	}
}

func TestOrderByFrequency(t *testing.T) {
	ordered := orderByFrequency("zae")
	assert.Equal(t, "aez", ordered, "most frequent characters move first")

	// Unranked characters keep their original order after the ranked ones.
	assert.Equal(t, "ae\x01\x02", orderByFrequency("\x01a\x02e"))
}
