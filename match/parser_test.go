package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairnchess/worker/penta"
)

func TestClassifyGameFinished(t *testing.T) {
	events := Classify("Finished game 4 (Base-5446e6f vs New-1a68b26): 1/2-1/2 {Draw by adjudication}")
	require.Len(t, events, 1)
	assert.Equal(t, GameFinished{
		Round:  4,
		White:  "Base-5446e6f",
		Black:  "New-1a68b26",
		Result: penta.ScoreDraw,
	}, events[0])
}

func TestClassifyScore(t *testing.T) {
	events := Classify("Score of New-1a68b26 vs Base-5446e6f: 3 - 1 - 6  [0.600] 10")
	require.Len(t, events, 1)
	assert.Equal(t, ScoreUpdate{Wins: 3, Losses: 1, Draws: 6}, events[0])
}

func TestClassifyMatchFinished(t *testing.T) {
	events := Classify("Finished match")
	require.Len(t, events, 1)
	assert.Equal(t, MatchFinished{}, events[0])
}

// A game decided by a disconnection or flag fall yields both the bookkeeping
// event and the game result.
func TestClassifyCompoundLines(t *testing.T) {
	events := Classify("Finished game 1 (New-1a68b26 vs Base-5446e6f): 0-1 {White disconnects}")
	require.Len(t, events, 2)
	assert.Equal(t, EngineCrash{}, events[0])
	assert.Equal(t, GameFinished{
		Round: 1, White: "New-1a68b26", Black: "Base-5446e6f", Result: penta.ScoreLoss,
	}, events[1])

	events = Classify("Finished game 2 (Base-5446e6f vs New-1a68b26): 1-0 {Black loses on time}")
	require.Len(t, events, 2)
	assert.Equal(t, TimeLoss{}, events[0])

	events = Classify("Finished game 3 (New-1a68b26 vs Base-5446e6f): * {connection stalls}")
	require.Len(t, events, 2)
	assert.Equal(t, EngineCrash{}, events[0])
	assert.Equal(t, penta.ScoreUnknown, events[1].(GameFinished).Result)
}

func TestClassifyIgnoresNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"Started game 5 of 100 (New-1a68b26 vs Base-5446e6f)",
		"Elo difference: 12.5 +/- 30.1",
		"Finished game x (New-a vs Base-b): 1-0 {}",
		"Score of New-a vs Base-b: x - y - z",
	} {
		assert.Empty(t, Classify(line), line)
	}
}
