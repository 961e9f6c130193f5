package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cairnchess/worker/api"
	"github.com/cairnchess/worker/config"
	"github.com/cairnchess/worker/games"
	"github.com/cairnchess/worker/timecontrol"
)

// assignment is the task handed to us by the bootstrap layer: the run
// description fetched from the coordinator plus our task id within it.
type assignment struct {
	Run    *api.Run `json:"run"`
	TaskID int      `json:"task_id"`
}

func main() {
	taskFile := flag.String("task", "task.json", "path to the task assignment file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	data, err := os.ReadFile(*taskFile)
	if err != nil {
		log.Fatal().Err(err).Str("task-file", *taskFile).Msg("failed to read task assignment")
	}
	var task assignment
	if err := json.Unmarshal(data, &task); err != nil {
		log.Fatal().Err(err).Msg("failed to parse task assignment")
	}
	if task.Run == nil {
		log.Fatal().Msg("task assignment has no run")
	}

	log.Info().
		Str("coordinator", cfg.CoordinatorURL).
		Str("run", task.Run.ID).
		Int("task", task.TaskID).
		Str("new", task.Run.Args.NewTag).
		Str("base", task.Run.Args.BaseTag).
		Msg("starting match worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	client := api.NewClient(cfg.CoordinatorURL)
	runner := games.NewRunner(cfg, client, task.Run, task.TaskID)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, timecontrol.ErrMachineTooSlow) {
			log.Fatal().Err(err).Msg("machine below minimum speed")
		}
		log.Fatal().Err(err).Msg("worker failed")
	}

	log.Info().Msg("match worker stopped")
}
