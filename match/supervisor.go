// Package match runs and supervises the external match-runner process,
// assembles its command line, and parses its output into events.
package match

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// lineQueueSize bounds the number of output lines buffered between the
// background reader and the poll loop.
const lineQueueSize = 4096

// Supervisor owns one running match-runner process. A background reader
// drains its stdout into a line queue; the caller polls the queue without
// ever blocking on process I/O.
type Supervisor struct {
	cmd   *exec.Cmd
	lines chan string
	done  chan struct{}
}

// Start launches the match runner in dir and begins draining its output.
func Start(name string, args []string, dir string) (*Supervisor, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	s := &Supervisor{
		cmd:   cmd,
		lines: make(chan string, lineQueueSize),
		done:  make(chan struct{}),
	}
	go s.drain(stdout)

	log.Info().Int("pid", cmd.Process.Pid).Str("runner", name).Msg("match runner started")
	return s, nil
}

// drain copies process output into the line queue until the stream closes.
// Read errors simply stop the reader; the poll loop notices process death
// through Alive. Reaps the process once the stream is gone.
func (s *Supervisor) drain(r io.Reader) {
	defer close(s.done)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	if err := s.cmd.Wait(); err != nil {
		log.Debug().Err(err).Msg("match runner exited")
	}
}

// Poll returns the next queued output line, if any, without blocking.
func (s *Supervisor) Poll() (string, bool) {
	select {
	case line := <-s.lines:
		return line, true
	default:
		return "", false
	}
}

// Alive reports whether the process is still running. It only turns false
// once the output stream has been fully drained by the reader, so no queued
// line is ever lost to an early exit.
func (s *Supervisor) Alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Terminate forcibly stops the match runner and waits for it to be reaped.
// Failures are logged, never escalated: the process may well have exited on
// its own already.
func (s *Supervisor) Terminate() {
	if err := terminate(s.cmd.Process); err != nil {
		log.Warn().Err(err).Int("pid", s.cmd.Process.Pid).
			Msg("terminating match runner (possibly already exited)")
	}
	// Discard whatever the reader is still holding so it can reach EOF and
	// reap the process.
	for {
		select {
		case <-s.done:
			return
		case <-s.lines:
		}
	}
}
