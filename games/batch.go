package games

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cairnchess/worker/api"
	"github.com/cairnchess/worker/match"
	"github.com/cairnchess/worker/penta"
)

type batchOutcome int

const (
	// batchFinished: the match ran to its end (clean sentinel or deadline);
	// the baseline advances.
	batchFinished batchOutcome = iota
	// batchCancelled: the coordinator no longer wants the task.
	batchCancelled
	// batchReportFailed: every update attempt failed; the batch is
	// discarded and the baseline stays put.
	batchReportFailed
	// batchProcessExited: the runner died before the deadline; treated as a
	// normal batch end with an unchanged baseline.
	batchProcessExited
)

// pollInterval is how long the control loop sleeps when the line queue is
// empty and the process is still alive.
const pollInterval = time.Second

// runBatch supervises one match-runner invocation: it drains output lines
// in emission order, feeds game results to the pairing accumulator, and
// reports to the coordinator whenever a new pair completes. Returned errors
// are fatal consistency failures; everything else is an outcome.
func (r *Runner) runBatch(ctx context.Context, runnerArgv, matchArgs []string,
	limitSeconds float64, spsaObs *api.SPSAObservation) (batchOutcome, api.Stats, error) {

	argv := append(slices.Clone(runnerArgv[1:]), matchArgs...)
	sup, err := match.Start(runnerArgv[0], argv, r.cfg.TestingDir)
	if err != nil {
		return batchProcessExited, r.baseline, fmt.Errorf("launching match runner: %w", err)
	}

	acc := penta.NewAccumulator()
	stats := r.baseline

	deadline := time.Now().Add(time.Duration(limitSeconds * float64(time.Second)))
	log.Info().Float64("tc-limit", limitSeconds).Time("deadline", deadline).
		Msg("batch deadline set")

	reportedPairs := 0
	for time.Now().Before(deadline) {
		line, ok := sup.Poll()
		if !ok {
			if !sup.Alive() {
				sup.Terminate()
				return batchProcessExited, stats, nil
			}
			time.Sleep(pollInterval)
			continue
		}

		// Pass the runner's output through for observability, recognized
		// or not.
		fmt.Println(line)

		for _, ev := range match.Classify(line) {
			switch ev := ev.(type) {
			case match.MatchFinished:
				log.Info().Msg("finished match cleanly")
				sup.Terminate()
				return batchFinished, stats, nil

			case match.EngineCrash:
				stats.Crashes++

			case match.TimeLoss:
				stats.TimeLosses++

			case match.GameFinished:
				rec := penta.Round{White: ev.White, Black: ev.Black, Result: ev.Result}
				if err := acc.AddGame(ev.Round, rec); err != nil {
					sup.Terminate()
					return batchFinished, stats, fmt.Errorf("pairing bookkeeping: %w", err)
				}
				stats.Pentanomial = mergePentanomial(acc.Pentanomial(), r.baseline.Pentanomial)

			case match.ScoreUpdate:
				if err := acc.Validate(ev.Wins, ev.Losses, ev.Draws); err != nil {
					sup.Terminate()
					return batchFinished, stats, err
				}
				tri := acc.Trinomial()
				if spsaObs != nil {
					// Variance reduction is not the goal in tuning mode:
					// report the raw batch outcome.
					stats.Wins = ev.Wins + r.baseline.Wins
					stats.Losses = ev.Losses + r.baseline.Losses
					stats.Draws = ev.Draws + r.baseline.Draws
					spsaObs.Wins, spsaObs.Losses, spsaObs.Draws = ev.Wins, ev.Losses, ev.Draws
				} else {
					// Subtract not-yet-paired games so reported totals only
					// ever reflect complete pairs.
					stats.Wins = ev.Wins - tri[2] + r.baseline.Wins
					stats.Losses = ev.Losses - tri[0] + r.baseline.Losses
					stats.Draws = ev.Draws - tri[1] + r.baseline.Draws
				}

				// Update the coordinator when a pair finishes, not after
				// every game.
				if acc.CompletedPairs() > reportedPairs {
					err := r.report(ctx, stats, spsaObs)
					switch {
					case errors.Is(err, errTaskDead):
						sup.Terminate()
						return batchCancelled, stats, nil
					case err != nil:
						sup.Terminate()
						return batchReportFailed, stats, nil
					}
					reportedPairs = acc.CompletedPairs()
				}
			}
		}
	}

	log.Info().Time("deadline", deadline).Msg("batch deadline expired")
	sup.Terminate()
	return batchFinished, stats, nil
}

func mergePentanomial(batch, baseline [5]int) [5]int {
	var merged [5]int
	for k := range merged {
		merged[k] = batch[k] + baseline[k]
	}
	return merged
}
