// Package bench verifies that an engine binary is the build we expect and
// measures its speed on this machine. The engine's built-in benchmark
// reports a deterministic node count (the "signature") for a fixed set of
// positions; a mismatch means the binary does not correspond to the source
// revision under test.
package bench

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// SignatureMismatchError reports a benchmark node count that does not match
// the expected one. It is fatal for the whole worker invocation.
type SignatureMismatchError struct {
	Engine   string
	Expected int64
	Got      int64
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("wrong bench in %s expected: %d got: %d",
		filepath.Base(e.Engine), e.Expected, e.Got)
}

// Verify runs the engine's benchmark command and checks the reported
// signature against expectedSignature. When concurrency > 1, a second
// instance of the engine is kept busy on concurrency-1 threads for the
// duration, so the measurement reflects the contention games will actually
// run under. Returns the measured nodes/second.
func Verify(ctx context.Context, enginePath string, expectedSignature int64, concurrency int) (float64, error) {
	if concurrency > 1 {
		stop, err := startBusyEngine(enginePath, concurrency-1)
		if err != nil {
			return 0, fmt.Errorf("starting busy engine instance: %w", err)
		}
		defer stop()
	}

	log.Info().Str("engine", filepath.Base(enginePath)).Msg("verifying bench signature")

	cmd := exec.CommandContext(ctx, enginePath, "bench")
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("bench stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting bench: %w", err)
	}

	signature, nps := readDiagnostics(stderr)

	if err := cmd.Wait(); err != nil {
		return 0, fmt.Errorf("bench exited abnormally: %w", err)
	}
	if signature != expectedSignature {
		return 0, &SignatureMismatchError{Engine: enginePath, Expected: expectedSignature, Got: signature}
	}
	return nps, nil
}

// readDiagnostics scans the engine's diagnostic stream for the node-count
// and nodes-per-second fields. Lines look like "Nodes searched  : 4291335".
func readDiagnostics(r io.Reader) (signature int64, nps float64) {
	signature = -1
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		_, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if strings.Contains(line, "Nodes searched") {
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				signature = n
			}
		}
		if strings.Contains(line, "Nodes/second") {
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				nps = f
			}
		}
	}
	return signature, nps
}

// startBusyEngine launches an engine instance searching indefinitely on the
// given number of threads. The returned function tears it down; teardown
// failures are logged, never escalated.
func startBusyEngine(enginePath string, threads int) (stop func(), err error) {
	cmd := exec.Command(enginePath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	fmt.Fprintf(stdin, "setoption name Threads value %d\n", threads)
	fmt.Fprintf(stdin, "go infinite\n")

	return func() {
		fmt.Fprintf(stdin, "quit\n")
		stdin.Close()
		if err := cmd.Wait(); err != nil {
			log.Warn().Err(err).Msg("busy engine instance did not exit cleanly")
		}
	}, nil
}
