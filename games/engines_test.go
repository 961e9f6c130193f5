package games

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnginePath(t *testing.T) {
	p := enginePath("testing", "1a68b26")
	assert.Equal(t, filepath.Join("testing", "engine_1a68b26"+exeSuffix()), p)
}

func TestCleanupOldEngines(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < keepEngines+5; i++ {
		p := filepath.Join(dir, fmt.Sprintf("engine_%03d%s", i, exeSuffix()))
		require.NoError(t, os.WriteFile(p, []byte("bin"), 0o755))
		require.NoError(t, os.Chtimes(p, base, base.Add(time.Duration(i)*time.Minute)))
	}

	cleanupOldEngines(dir)

	remaining, err := filepath.Glob(filepath.Join(dir, "engine_*"))
	require.NoError(t, err)
	assert.Len(t, remaining, keepEngines)
	// The five oldest are the ones that went.
	for i := 0; i < 5; i++ {
		assert.NoFileExists(t, filepath.Join(dir, fmt.Sprintf("engine_%03d%s", i, exeSuffix())))
	}
}

func TestCleanupLeavesSmallSetsAlone(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "engine_abc"+exeSuffix())
	require.NoError(t, os.WriteFile(p, []byte("bin"), 0o755))

	cleanupOldEngines(dir)
	assert.FileExists(t, p)
}

func TestBookArgs(t *testing.T) {
	openings, book := bookArgs("openings.pgn", 8)
	assert.Equal(t, []string{"-openings", "file=openings.pgn", "format=pgn", "order=random", "plies=16"}, openings)
	assert.Nil(t, book)

	openings, book = bookArgs("varied.epd", 4)
	assert.Contains(t, openings, "format=epd")
	assert.Nil(t, book)

	openings, book = bookArgs("performance.bin", 6)
	assert.Nil(t, openings)
	assert.Equal(t, []string{"book=performance.bin", "bookdepth=6"}, book)

	openings, book = bookArgs("anything.pgn", 0)
	assert.Nil(t, openings)
	assert.Nil(t, book)
}
