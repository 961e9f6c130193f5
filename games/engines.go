package games

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// keepEngines is how many recently used engine binaries survive cleanup.
const keepEngines = 25

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// engineName is the deterministic binary name the build layer stages an
// engine under, keyed by its source commit hash.
func engineName(sha string) string {
	return "engine_" + sha + exeSuffix()
}

func enginePath(dir, sha string) string {
	return filepath.Join(dir, engineName(sha))
}

// cleanupOldEngines removes all but the most recently modified engine
// binaries from the testing dir. Housekeeping only: failures are logged and
// ignored.
func cleanupOldEngines(dir string) {
	paths, err := filepath.Glob(filepath.Join(dir, "engine_*"+exeSuffix()))
	if err != nil || len(paths) <= keepEngines {
		return
	}
	sort.Slice(paths, func(i, j int) bool {
		return mtime(paths[i]).Before(mtime(paths[j]))
	})
	for _, p := range paths[:len(paths)-keepEngines] {
		if err := os.Remove(p); err != nil {
			log.Warn().Err(err).Str("engine", p).Msg("failed to remove old engine binary")
		}
	}
}

func mtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
