package penta

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreFromResult(t *testing.T) {
	is := is.New(t)
	is.Equal(ScoreFromResult("1-0"), ScoreWin)
	is.Equal(ScoreFromResult("0-1"), ScoreLoss)
	is.Equal(ScoreFromResult("1/2-1/2"), ScoreDraw)
	is.Equal(ScoreFromResult("*"), ScoreUnknown)
	is.Equal(ScoreFromResult(""), ScoreUnknown)
}

func TestPairFolding(t *testing.T) {
	acc := NewAccumulator()

	// Round 1: the candidate draws with White; round 2 is the reversed
	// replay, won by White (the base engine).
	require.NoError(t, acc.AddGame(1, Round{White: "New-abc", Black: "Base-xyz", Result: ScoreDraw}))
	require.NoError(t, acc.AddGame(2, Round{White: "Base-xyz", Black: "New-abc", Result: ScoreWin}))

	assert.Equal(t, [5]int{0, 1, 0, 0, 0}, acc.Pentanomial())
	assert.Equal(t, [3]int{0, 0, 0}, acc.Trinomial())
	assert.Equal(t, 1, acc.CompletedPairs())
	assert.Equal(t, 0, acc.PendingRounds())
}

func TestReorderedRoundsStillPair(t *testing.T) {
	acc := NewAccumulator()

	// The even round arriving first must not confuse the pairing.
	require.NoError(t, acc.AddGame(2, Round{White: "Base-xyz", Black: "New-abc", Result: ScoreLoss}))
	assert.Equal(t, [3]int{0, 0, 1}, acc.Trinomial())

	require.NoError(t, acc.AddGame(1, Round{White: "New-abc", Black: "Base-xyz", Result: ScoreWin}))
	assert.Equal(t, [5]int{0, 0, 0, 0, 1}, acc.Pentanomial())
	assert.Equal(t, 0, acc.PendingRounds())
}

func TestUnknownResultsAreNotFolded(t *testing.T) {
	acc := NewAccumulator()

	require.NoError(t, acc.AddGame(1, Round{White: "New-abc", Black: "Base-xyz", Result: ScoreUnknown}))
	require.NoError(t, acc.AddGame(2, Round{White: "Base-xyz", Black: "New-abc", Result: ScoreDraw}))

	// The pair cannot complete while one result is unknown.
	assert.Equal(t, 0, acc.CompletedPairs())
	assert.Equal(t, [3]int{0, 1, 0}, acc.Trinomial())
	assert.Equal(t, 2, acc.PendingRounds())
}

func TestPairingIdentityViolations(t *testing.T) {
	t.Run("candidate must have White in the odd round", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "Base-xyz", Black: "New-abc", Result: ScoreWin}))
		err := acc.AddGame(2, Round{White: "New-abc", Black: "Base-xyz", Result: ScoreLoss})
		assert.Error(t, err)
	})

	t.Run("colors must be swapped between partner rounds", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "New-abc", Black: "Base-xyz", Result: ScoreWin}))
		err := acc.AddGame(2, Round{White: "Base-OTHER", Black: "New-abc", Result: ScoreLoss})
		assert.Error(t, err)
	})
}

// Any sequence of round results must keep the trinomial counts non-negative
// and preserve: sum(trinomial) + 2*sum(pentanomial) == scored games consumed.
func TestCountInvariant(t *testing.T) {
	is := is.New(t)

	type game struct {
		round int
		rec   Round
	}
	seq := []game{
		{1, Round{"New-a", "Base-b", ScoreWin}},
		{3, Round{"New-a", "Base-b", ScoreDraw}},
		{2, Round{"Base-b", "New-a", ScoreLoss}},
		{5, Round{"New-a", "Base-b", ScoreUnknown}},
		{4, Round{"Base-b", "New-a", ScoreDraw}},
		{6, Round{"Base-b", "New-a", ScoreWin}},
		{7, Round{"New-a", "Base-b", ScoreLoss}},
		{8, Round{"Base-b", "New-a", ScoreWin}},
	}

	acc := NewAccumulator()
	scored := 0
	for _, g := range seq {
		is.NoErr(acc.AddGame(g.round, g.rec))
		if g.rec.Result != ScoreUnknown {
			scored++
		}
		tri := acc.Trinomial()
		total := 0
		for _, n := range tri {
			is.True(n >= 0)
			total += n
		}
		is.Equal(total+2*acc.CompletedPairs(), scored)
	}
	// Rounds 5/6 can never pair because round 5's result is unknown.
	is.Equal(acc.CompletedPairs(), 3)
	is.Equal(acc.PendingRounds(), 2)
}

func TestValidate(t *testing.T) {
	t.Run("accepts a single drawn pair in progress", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "New-a", Black: "Base-b", Result: ScoreDraw}))
		assert.Equal(t, [3]int{0, 1, 0}, acc.Trinomial())
		assert.NoError(t, acc.Validate(0, 0, 1))
	})

	t.Run("rejects diverging score computations", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "New-a", Black: "Base-b", Result: ScoreDraw}))
		// One game played, but the runner claims it was a win.
		assert.Error(t, acc.Validate(1, 0, 0))
	})

	t.Run("rejects game count mismatch", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "New-a", Black: "Base-b", Result: ScoreDraw}))
		assert.Error(t, acc.Validate(0, 0, 2))
	})

	t.Run("accepts a completed pair", func(t *testing.T) {
		acc := NewAccumulator()
		require.NoError(t, acc.AddGame(1, Round{White: "New-a", Black: "Base-b", Result: ScoreWin}))
		require.NoError(t, acc.AddGame(2, Round{White: "Base-b", Black: "New-a", Result: ScoreLoss}))
		assert.NoError(t, acc.Validate(2, 0, 0))
	})
}
