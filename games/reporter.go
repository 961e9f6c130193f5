package games

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/cairnchess/worker/api"
)

// errTaskDead signals that the coordinator reported the task as no longer
// needed; the current batch should be cancelled, not retried.
var errTaskDead = errors.New("task no longer needed by coordinator")

// updateAttempts bounds how often a single coordinator call is tried before
// the batch is given up on.
const updateAttempts = 5

// report pushes the current cumulative result to the coordinator. Transient
// failures are retried with a fixed delay equal to the request timeout; a
// dead-task response is terminal.
func (r *Runner) report(ctx context.Context, stats api.Stats, spsa *api.SPSAObservation) error {
	result := r.taskResult(stats, spsa)
	return retry.Do(func() error {
		start := time.Now()
		status, err := r.client.UpdateTask(ctx, result)
		if err != nil {
			return err
		}
		log.Info().Dur("took", time.Since(start)).Int("wins", stats.Wins).
			Int("losses", stats.Losses).Int("draws", stats.Draws).
			Msg("task updated")
		if !status.TaskAlive {
			return retry.Unrecoverable(errTaskDead)
		}
		return nil
	}, r.retryOptions(ctx)...)
}

// fetchSPSA asks the coordinator for the next batch's tuning parameters,
// under the same retry policy as result updates.
func (r *Runner) fetchSPSA(ctx context.Context) (*api.SPSAParams, error) {
	var params *api.SPSAParams
	err := retry.Do(func() error {
		var err error
		params, err = r.client.RequestSPSA(ctx, r.taskResult(r.baseline, nil))
		return err
	}, r.retryOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	return params, nil
}

func (r *Runner) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Attempts(updateAttempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("coordinator call failed")
		}),
	}
}
