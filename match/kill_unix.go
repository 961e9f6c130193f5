//go:build !windows

package match

import "os"

func terminate(p *os.Process) error {
	return p.Kill()
}
