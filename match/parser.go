package match

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cairnchess/worker/penta"
)

// Event is one structured fact extracted from a match-runner output line.
type Event interface {
	event()
}

// MatchFinished is the terminal sentinel: the match completed cleanly.
type MatchFinished struct{}

// EngineCrash marks a game decided by an engine disconnecting or stalling.
type EngineCrash struct{}

// TimeLoss marks a game lost on time.
type TimeLoss struct{}

// GameFinished carries one round's outcome, scored from White's perspective.
type GameFinished struct {
	Round  int
	White  string
	Black  string
	Result penta.Score
}

// ScoreUpdate carries the runner's cumulative win/loss/draw totals for the
// whole match so far.
type ScoreUpdate struct {
	Wins   int
	Losses int
	Draws  int
}

func (MatchFinished) event() {}
func (EngineCrash) event()   {}
func (TimeLoss) event()      {}
func (GameFinished) event()  {}
func (ScoreUpdate) event()   {}

// These two literal patterns are the wire grammar of the match runner:
//
//	Finished game 4 (Base-5446e6f vs New-1a68b26): 1/2-1/2 {Draw by adjudication}
//	Score of New-1a68b26 vs Base-5446e6f: 0 - 0 - 1  [0.500] 1
var (
	gameFinishedRe = regexp.MustCompile(`^Finished game (\d+) \((\S+) vs (\S+)\): (\S+)`)
	scoreRe        = regexp.MustCompile(`^Score of \S+ vs \S+: (\d+) - (\d+) - (\d+)`)
)

// Classify turns one raw output line into zero or more events. A single
// line can yield several: a game decided by a disconnection produces both an
// EngineCrash and a GameFinished. Unrecognized or malformed lines yield
// nothing; they must never take the worker down.
func Classify(line string) []Event {
	if strings.Contains(line, "Finished match") {
		return []Event{MatchFinished{}}
	}

	var events []Event
	if strings.Contains(line, "disconnects") || strings.Contains(line, "connection stalls") {
		events = append(events, EngineCrash{})
	}
	if strings.Contains(line, "on time") {
		events = append(events, TimeLoss{})
	}

	if m := gameFinishedRe.FindStringSubmatch(line); m != nil {
		round, err := strconv.Atoi(m[1])
		if err == nil {
			events = append(events, GameFinished{
				Round:  round,
				White:  m[2],
				Black:  m[3],
				Result: penta.ScoreFromResult(m[4]),
			})
		}
	} else if m := scoreRe.FindStringSubmatch(line); m != nil {
		wins, err1 := strconv.Atoi(m[1])
		losses, err2 := strconv.Atoi(m[2])
		draws, err3 := strconv.Atoi(m[3])
		if err1 == nil && err2 == nil && err3 == nil {
			events = append(events, ScoreUpdate{Wins: wins, Losses: losses, Draws: draws})
		}
	}
	return events
}
