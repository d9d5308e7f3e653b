//go:build !windows

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock_Success(t *testing.T) {
	t.Parallel()
	lockPath := filepath.Join(t.TempDir(), "run", "sift.lock")

	f, err := acquireLock(lockPath)
	require.NoError(t, err)
	defer releaseLock(f)

	_, err = os.Stat(lockPath)
	assert.NoError(t, err, "lock file should be created along with its directory")
}

func TestAcquireLock_SecondInstanceFails(t *testing.T) {
	t.Parallel()
	lockPath := filepath.Join(t.TempDir(), "sift.lock")

	f1, err := acquireLock(lockPath)
	require.NoError(t, err)

	f2, err := acquireLock(lockPath)
	if err == nil {
		releaseLock(f2)
		releaseLock(f1)
		t.Fatal("expected second acquireLock to fail")
	}
	assert.ErrorIs(t, err, errAlreadyRunning)

	releaseLock(f1)

	f3, err := acquireLock(lockPath)
	require.NoError(t, err, "lock should be free after release")
	releaseLock(f3)
}

func TestReleaseLock_Nil(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { releaseLock(nil) })
}
