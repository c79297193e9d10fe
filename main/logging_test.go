package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logger := newLogger(false)
	lf, err := initLogging(logger, dir)
	require.NoError(t, err)
	defer lf.Close()

	// Pretend nine generations exist already.
	for i := 1; i <= maxLogGeneration; i++ {
		name := filepath.Join(dir, debugLogFile+"."+strconv.Itoa(i))
		require.NoError(t, os.WriteFile(name, []byte(strconv.Itoa(i)), 0644))
	}
	logger.Info("before rotation")
	require.NoError(t, lf.rotate())
	logger.Info("after rotation")

	gens := lf.generations()
	require.Len(t, gens, maxLogGeneration)
	assert.Equal(t, filepath.Join(dir, debugLogFile+".1"), gens[0])

	prev, err := os.ReadFile(gens[0])
	require.NoError(t, err)
	assert.Contains(t, string(prev), "before rotation")

	// .8 became .9, the old .9 is gone.
	last, err := os.ReadFile(filepath.Join(dir, debugLogFile+".9"))
	require.NoError(t, err)
	assert.Equal(t, "8", string(last))

	cur, err := os.ReadFile(filepath.Join(dir, debugLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(cur), "after rotation")
	assert.NotContains(t, string(cur), "before rotation")
}

func TestGenerationsSortNumerically(t *testing.T) {
	dir := t.TempDir()
	lf := &logFile{dir: dir, path: filepath.Join(dir, debugLogFile)}
	for _, suffix := range []string{"10", "2", "1"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, debugLogFile+"."+suffix), []byte(suffix), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log.1"), nil, 0644))

	gens := lf.generations()
	require.Len(t, gens, 3)
	assert.Equal(t, filepath.Join(dir, debugLogFile+".10"), gens[2])

	assert.Equal(t, int64(0), (&logFile{dir: t.TempDir()}).deleteOldest())
	assert.Equal(t, int64(2), lf.deleteOldest(), "removes .10")
	assert.Len(t, lf.generations(), 2)
}

func TestLoggingDisabledWithoutDir(t *testing.T) {
	lf, err := initLogging(newLogger(true), "")
	assert.NoError(t, err)
	assert.Nil(t, lf)
}
