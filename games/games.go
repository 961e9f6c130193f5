// Package games is the top-level match orchestrator: it verifies the engine
// binaries, normalizes the time control to local speed, then runs batches of
// paired games through the match runner until the task is done or the
// coordinator cancels it.
package games

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/cairnchess/worker/api"
	"github.com/cairnchess/worker/bench"
	"github.com/cairnchess/worker/config"
	"github.com/cairnchess/worker/match"
	"github.com/cairnchess/worker/timecontrol"
)

// Runner executes one task: a slice of a run's games, assigned to this
// worker by the coordinator.
type Runner struct {
	cfg    *config.Config
	client *api.Client
	run    *api.Run
	taskID int

	// baseline is the immutable per-batch snapshot of cumulative stats.
	// It has a single writer: the batch loop, between batches.
	baseline api.Stats
	nps      float64

	retryDelay time.Duration
}

// NewRunner creates a runner for the given task assignment.
func NewRunner(cfg *config.Config, client *api.Client, run *api.Run, taskID int) *Runner {
	return &Runner{
		cfg:        cfg,
		client:     client,
		run:        run,
		taskID:     taskID,
		retryDelay: api.RequestTimeout,
	}
}

// Run plays the task's remaining games and reports results as pairs
// complete. It returns nil both on normal completion and on coordinator
// cancellation; errors are either fatal consistency failures or environment
// problems (missing binaries, machine too slow).
func (r *Runner) Run(ctx context.Context) error {
	args := &r.run.Args

	r.baseline = r.run.Task.Stats
	remaining := r.run.Task.NumGames - r.baseline.Games()
	if remaining <= 0 {
		return fmt.Errorf("no games remaining: task wants %d, %d already played",
			r.run.Task.NumGames, r.baseline.Games())
	}

	threads := args.Threads
	if threads < 1 {
		threads = 1
	}
	// Integer division: a worker with fewer CPUs than one engine instance
	// wants still runs a single game at a time.
	gamesConcurrency := r.cfg.Concurrency / threads
	if gamesConcurrency < 1 {
		gamesConcurrency = 1
	}

	cleanupOldEngines(r.cfg.TestingDir)

	newEngine := enginePath(r.cfg.TestingDir, args.ResolvedNew)
	baseEngine := enginePath(r.cfg.TestingDir, args.ResolvedBase)

	engineConcurrency := gamesConcurrency * threads
	if _, err := r.verify(ctx, newEngine, args.NewSignature, engineConcurrency); err != nil {
		return err
	}
	nps, err := r.verify(ctx, baseEngine, args.BaseSignature, engineConcurrency)
	if err != nil {
		return err
	}
	r.nps = nps

	scaled, err := timecontrol.Adjust(args.TC, nps)
	if err != nil {
		return err
	}
	log.Info().Float64("cpu-factor", scaled.Factor).Str("tc", scaled.TC).
		Float64("nps", nps).Msg("time control adjusted to local speed")

	runnerArgv, err := shellquote.Split(r.cfg.MatchRunner)
	if err != nil {
		return fmt.Errorf("bad match_runner command %q: %w", r.cfg.MatchRunner, err)
	}
	if len(runnerArgv) == 0 {
		return errors.New("empty match_runner command")
	}

	newOptions := match.ParseEngineOptions(args.NewOptions)
	baseOptions := match.ParseEngineOptions(args.BaseOptions)
	allOptions := slices.Concat(newOptions, baseOptions)

	openingArgs, bookOptions := bookArgs(args.Book, args.BookDepth)

	threadsOpt := threads
	if anyOptionContains(allOptions, "Threads") {
		threadsOpt = 0
	}
	// With nodestime in play, extra grace time makes time losses
	// effectively impossible.
	timeMargin := anyOptionContains(allOptions, "nodestime")

	pgnOut := ""
	limit := scaled.LimitSeconds
	if args.SPSA {
		limit *= 2
	} else {
		pgnOut = "results-" + r.cfg.UniqueKey + ".pgn"
		// Stale output from a previous invocation.
		os.Remove(filepath.Join(r.cfg.TestingDir, pgnOut))
	}

	log.Info().Str("new", args.NewTag).Str("base", args.BaseTag).
		Int("remaining", remaining).Int("concurrency", gamesConcurrency).
		Msg("running match")

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		gamesToPlay := remaining
		if args.SPSA {
			gamesToPlay = 2 * gamesConcurrency
		}

		batch := &match.Batch{
			GamesToPlay: gamesToPlay,
			Concurrency: gamesConcurrency,
			SiteURL:     r.cfg.CoordinatorURL + "/tests/view/" + r.run.ID,
			Event: fmt.Sprintf("Batch %d: %s vs %s",
				r.taskID, firstWord(args.NewTag), firstWord(args.BaseTag)),
			Seed:        frand.Uint64n(1 << 32),
			PGNOut:      pgnOut,
			OpeningArgs: openingArgs,
			BookOptions: bookOptions,
			NewName:     "New-" + shortSHA(args.ResolvedNew),
			NewCmd:      engineName(args.ResolvedNew),
			NewOptions:  newOptions,
			BaseName:    "Base-" + shortSHA(args.ResolvedBase),
			BaseCmd:     engineName(args.ResolvedBase),
			BaseOptions: baseOptions,
			TC:          scaled.TC,
			TimeMargin:  timeMargin,
			Threads:     threadsOpt,
		}
		argv := batch.Args()

		var spsaObs *api.SPSAObservation
		if args.SPSA {
			params, err := r.fetchSPSA(ctx)
			if err != nil {
				return fmt.Errorf("fetching tuning parameters: %w", err)
			}
			argv = match.InjectSPSA(argv, spsaOptions(params.WParams), spsaOptions(params.BParams))
			spsaObs = &api.SPSAObservation{NumGames: gamesToPlay}
		} else {
			argv = match.InjectSPSA(argv, nil, nil)
		}

		batchLimit := limit * float64(gamesToPlay) / float64(min(gamesToPlay, gamesConcurrency))

		outcome, finalStats, err := r.runBatch(ctx, runnerArgv, argv, batchLimit, spsaObs)
		if err != nil {
			return err
		}

		switch outcome {
		case batchCancelled:
			log.Info().Msg("coordinator no longer needs this task")
			return nil
		case batchReportFailed:
			log.Warn().Msg("too many failed update attempts; batch discarded")
		case batchProcessExited:
			log.Warn().Msg("match runner exited early; batch discarded")
		case batchFinished:
			r.baseline = finalStats
			remaining -= gamesToPlay
		}
	}
	return nil
}

// verify checks one engine's bench signature, telling the coordinator to
// stop the run if the binary turns out to be wrong.
func (r *Runner) verify(ctx context.Context, engine string, signature int64, concurrency int) (float64, error) {
	nps, err := bench.Verify(ctx, engine, signature, concurrency)
	var mismatch *bench.SignatureMismatchError
	if errors.As(err, &mismatch) {
		if stopErr := r.client.StopRun(ctx, r.taskResult(r.baseline, nil), mismatch.Error()); stopErr != nil {
			log.Error().Err(stopErr).Msg("failed to notify coordinator of bad signature")
		}
	}
	return nps, err
}

// taskResult builds the update payload for the given cumulative stats.
func (r *Runner) taskResult(stats api.Stats, spsa *api.SPSAObservation) *api.TaskResult {
	return &api.TaskResult{
		Username:  r.cfg.Username,
		Password:  r.cfg.Password,
		RunID:     r.run.ID,
		TaskID:    r.taskID,
		UniqueKey: r.cfg.UniqueKey,
		Stats:     stats,
		NPS:       r.nps,
		MaxMemory: memory.TotalMemory() >> 20,
		SPSA:      spsa,
	}
}

func spsaOptions(params []api.SPSAParam) []string {
	return lo.Map(params, func(p api.SPSAParam, _ int) string {
		return fmt.Sprintf("option.%s=%d", p.Name, int(math.Round(p.Value)))
	})
}

func anyOptionContains(options []string, substr string) bool {
	return lo.SomeBy(options, func(opt string) bool {
		return strings.Contains(opt, substr)
	})
}

// bookArgs translates the run's opening book settings into match-runner
// arguments: pgn/epd books are passed globally via -openings, anything else
// becomes per-engine book options. Depth zero disables openings entirely.
func bookArgs(book string, depth int) (openingArgs, bookOptions []string) {
	if depth <= 0 || book == "" {
		return nil, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(book), ".")
	if ext == "pgn" || ext == "epd" {
		return []string{
			"-openings", "file=" + book, "format=" + ext, "order=random",
			fmt.Sprintf("plies=%d", 2*depth),
		}, nil
	}
	return nil, []string{"book=" + book, fmt.Sprintf("bookdepth=%d", depth)}
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
