//go:build windows

package match

import (
	"os"
	"os/exec"
	"strconv"
)

// Kill alone does not take the engine subprocesses down on Windows, so ask
// taskkill to remove the whole process tree by pid.
func terminate(p *os.Process) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(p.Pid)).Run()
}
