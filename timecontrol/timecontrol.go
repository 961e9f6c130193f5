// Package timecontrol normalizes a nominal time control to the speed of the
// local machine, so that games played on heterogeneous hardware search
// roughly the same number of nodes.
package timecontrol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ReferenceNPS is the nodes/second of the machine the nominal time
	// controls are calibrated for.
	ReferenceNPS = 1600000.0

	// MinimumNPS is the slowest machine we are willing to run games on.
	MinimumNPS = 700000.0
)

// ErrMachineTooSlow is returned when the measured engine speed is below
// MinimumNPS. It is fatal for the whole worker invocation.
var ErrMachineTooSlow = errors.New("this machine is too slow to run tests effectively")

// Scaled is a time control adjusted to local CPU speed.
type Scaled struct {
	// TC is the scaled time control in cutechess format, preserving the
	// shape of the nominal one (moves prefix and increment if present).
	TC string

	// LimitSeconds bounds one game's wall-clock budget. The batch deadline
	// is derived from it by the orchestrator.
	LimitSeconds float64

	// Factor is ReferenceNPS divided by the measured speed.
	Factor float64
}

// Adjust scales the nominal time control tc by the ratio of the reference
// speed to measuredNPS. tc is in cutechess format: "moves/time+increment",
// "moves/time", "time+increment" or "time", with time in seconds or "mm:ss".
func Adjust(tc string, measuredNPS float64) (*Scaled, error) {
	if measuredNPS < MinimumNPS {
		return nil, ErrMachineTooSlow
	}
	factor := ReferenceNPS / measuredNPS

	base := tc
	increment := 0.0
	if before, after, found := strings.Cut(tc, "+"); found {
		inc, err := strconv.ParseFloat(after, 64)
		if err != nil {
			return nil, fmt.Errorf("bad increment in time control %q: %w", tc, err)
		}
		base = before
		increment = inc
	}

	numMoves := 0
	if before, after, found := strings.Cut(base, "/"); found {
		moves, err := strconv.Atoi(before)
		if err != nil {
			return nil, fmt.Errorf("bad move count in time control %q: %w", tc, err)
		}
		base = after
		numMoves = moves
	}

	seconds, err := parseClock(base)
	if err != nil {
		return nil, fmt.Errorf("bad time in time control %q: %w", tc, err)
	}

	scaledTC := fmt.Sprintf("%.3f", seconds*factor)
	limit := seconds * factor * 3
	if increment > 0 {
		scaledTC += fmt.Sprintf("+%.3f", increment*factor)
		limit += increment * factor * 200
	}
	if numMoves > 0 {
		scaledTC = fmt.Sprintf("%d/%s", numMoves, scaledTC)
		limit *= 100.0 / float64(numMoves)
	}

	return &Scaled{TC: scaledTC, LimitSeconds: limit, Factor: factor}, nil
}

// parseClock reads a clock value as plain seconds or "mm:ss".
func parseClock(s string) (float64, error) {
	if mins, secs, found := strings.Cut(s, ":"); found {
		m, err := strconv.ParseFloat(mins, 64)
		if err != nil {
			return 0, err
		}
		sec, err := strconv.ParseFloat(secs, 64)
		if err != nil {
			return 0, err
		}
		return m*60 + sec, nil
	}
	return strconv.ParseFloat(s, 64)
}
