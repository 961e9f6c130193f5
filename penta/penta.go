// Package penta accumulates paired-game (trinomial/pentanomial) match
// statistics. Games are played in same-opening pairs with colors reversed
// between the odd and even round; scoring a pair as a single 5-class outcome
// reduces result variance compared to scoring the games independently.
package penta

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// Score is a single game's result from White's perspective.
type Score int

const (
	ScoreLoss Score = 0
	ScoreDraw Score = 1
	ScoreWin  Score = 2

	// ScoreUnknown marks a result string we could not interpret.
	ScoreUnknown Score = -1
)

// ScoreFromResult converts a PGN-style result string to a Score.
func ScoreFromResult(result string) Score {
	switch result {
	case "1-0":
		return ScoreWin
	case "0-1":
		return ScoreLoss
	case "1/2-1/2":
		return ScoreDraw
	}
	return ScoreUnknown
}

// Round is one game's outcome, recorded until its reversed-color partner
// round arrives and the two can be folded into a pentanomial bucket.
type Round struct {
	White  string
	Black  string
	Result Score
}

// Accumulator tracks not-yet-paired rounds in trinomial buckets and
// completed pairs in pentanomial buckets. It is only valid for the duration
// of one match-runner invocation; rounds are keyed by the runner's 1-based
// round number, where even rounds replay the previous odd round with colors
// reversed.
type Accumulator struct {
	rounds      map[int]Round
	trinomial   [3]int
	pentanomial [5]int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{rounds: make(map[int]Round)}
}

// AddGame records the result of one round and, if its partner round has
// already been seen with a known result, folds the pair into a pentanomial
// bucket. The returned errors are internal-consistency violations and must
// be treated as fatal by the caller.
func (a *Accumulator) AddGame(round int, rec Round) error {
	a.rounds[round] = rec

	var odd, even int
	if round%2 == 0 {
		// Even rounds are the reversed-color replay of the previous round,
		// so the score folds in mirrored.
		if rec.Result != ScoreUnknown {
			a.trinomial[2-rec.Result]++
		}
		odd, even = round-1, round
	} else {
		if rec.Result != ScoreUnknown {
			a.trinomial[rec.Result]++
		}
		odd, even = round, round+1
	}

	oddRec, ok := a.rounds[odd]
	if !ok {
		return nil
	}
	evenRec, ok := a.rounds[even]
	if !ok {
		return nil
	}

	if !strings.HasPrefix(oddRec.White, "New") {
		return fmt.Errorf("round %d: expected the candidate engine to play White, got %q",
			odd, oddRec.White)
	}
	if oddRec.White != evenRec.Black || oddRec.Black != evenRec.White {
		return fmt.Errorf("rounds %d/%d: colors not swapped consistently (%s vs %s, then %s vs %s)",
			odd, even, oddRec.White, oddRec.Black, evenRec.White, evenRec.Black)
	}

	i, j := oddRec.Result, evenRec.Result
	if i == ScoreUnknown || j == ScoreUnknown {
		return nil
	}

	a.pentanomial[int(i)+2-int(j)]++
	delete(a.rounds, odd)
	delete(a.rounds, even)
	a.trinomial[i]--
	a.trinomial[2-j]--
	if a.trinomial[i] < 0 || a.trinomial[2-j] < 0 {
		return fmt.Errorf("rounds %d/%d: trinomial count went negative after pairing", odd, even)
	}
	return nil
}

// Epsilon is the tolerance for comparing the two independent expected-score
// computations in Validate.
const Epsilon = 1e-4

// Validate cross-checks the match runner's cumulative win/loss/draw totals
// against our own pairing bookkeeping: the expected score computed from the
// raw totals must agree with the one computed from the pentanomial and
// trinomial buckets, and the game counts must match exactly. A failure here
// means the accumulator and the match runner have diverged and is fatal.
func (a *Accumulator) Validate(wins, losses, draws int) error {
	ldw := [3]int{losses, draws, wins}

	var score3, score5 float64
	for k, n := range ldw {
		score3 += float64(n) * float64(k) / 2
	}
	for k, n := range a.pentanomial {
		score5 += float64(n) * float64(k) / 2
	}
	for k, n := range a.trinomial {
		score5 += float64(n) * float64(k) / 2
	}

	if games := wins + losses + draws; games != 2*a.CompletedPairs()+lo.Sum(a.trinomial[:]) {
		return fmt.Errorf("game count mismatch: runner reports %d games, pairing bookkeeping has %d",
			games, 2*a.CompletedPairs()+lo.Sum(a.trinomial[:]))
	}
	if math.Abs(score5-score3) >= Epsilon {
		return fmt.Errorf("score mismatch: %.5f from W-L-D totals vs %.5f from pentanomial buckets",
			score3, score5)
	}
	return nil
}

// Trinomial returns the per-result counts of rounds not yet paired.
func (a *Accumulator) Trinomial() [3]int {
	return a.trinomial
}

// Pentanomial returns the paired-outcome bucket counts.
func (a *Accumulator) Pentanomial() [5]int {
	return a.pentanomial
}

// CompletedPairs is the number of fully paired game pairs so far.
func (a *Accumulator) CompletedPairs() int {
	return lo.Sum(a.pentanomial[:])
}

// PendingRounds is the number of rounds still waiting for a partner.
func (a *Accumulator) PendingRounds() int {
	return len(a.rounds)
}
