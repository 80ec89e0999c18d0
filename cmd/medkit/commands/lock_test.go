package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medkit/internal/configdir"
	"medkit/internal/gpulock"
	"medkit/internal/logging"
)

func testLockManager() *gpulock.Manager {
	return gpulock.NewManager(configdir.StateDir(), logging.NewLogger(logging.LevelError))
}

func TestExecCmd_LockHeldDuringRun(t *testing.T) {
	requireShell(t)
	isolate(t)

	check := `test -f "$MEDKIT_STATE_DIR/gpu0.lock.json" && test -f "$MEDKIT_STATE_DIR/gpu2.lock.json"`
	tc, _, _ := newTestCmd("test_exec", "exec", "--devices", "0,2", "--lock", "--", "sh", "-c", check)
	require.NoError(t, tc.Execute())

	locks, err := testLockManager().Status()
	require.NoError(t, err)
	assert.Empty(t, locks, "locks must be released after the command exits")
}

func TestExecCmd_LockReleasedOnFailure(t *testing.T) {
	requireShell(t)
	isolate(t)

	tc, _, _ := newTestCmd("test_exec", "exec", "--devices", "1", "--lock", "--", "sh", "-c", "exit 2")
	require.Error(t, tc.Execute())

	locks, err := testLockManager().Status()
	require.NoError(t, err)
	assert.Empty(t, locks)
}

func TestExecCmd_LockConflict(t *testing.T) {
	isolate(t)
	require.NoError(t, testLockManager().Acquire(gpulock.Owner{Holder: "other", PID: 1}, 1))

	marker := filepath.Join(t.TempDir(), "ran")
	tc, _, _ := newTestCmd("test_exec", "exec", "--devices", "0,1", "--lock", "--", "touch", marker)
	err := tc.Execute()

	require.ErrorIs(t, err, gpulock.ErrDeviceLocked)
	assert.NoFileExists(t, marker)

	locks, err := testLockManager().Status()
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "other", locks[0].Holder)
}

func TestExecCmd_LockWithoutDevices(t *testing.T) {
	isolate(t)

	tc, _, _ := newTestCmd("test_exec", "exec", "--lock", "--", "true")
	assert.Error(t, tc.Execute())
}

func TestGPUUnlockCmd(t *testing.T) {
	isolate(t)
	manager := testLockManager()
	require.NoError(t, manager.Acquire(gpulock.Owner{Holder: "train", PID: os.Getpid()}, 0, 3))

	tc, stdout, _ := newTestCmd("test_gpu_unlock", "gpu-unlock", "3")
	require.NoError(t, tc.Execute())
	assert.Contains(t, stdout.String(), "Unlocked GPU 3 (was held by train")

	locks, err := manager.Status()
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, 0, locks[0].Device)

	tc, stdout, _ = newTestCmd("test_gpu_unlock", "gpu-unlock")
	require.NoError(t, tc.Execute())
	assert.Contains(t, stdout.String(), "Unlocked GPU 0")

	tc, stdout, _ = newTestCmd("test_gpu_unlock", "gpu-unlock")
	require.NoError(t, tc.Execute())
	assert.Contains(t, stdout.String(), "No device locks to remove")
}

func TestGPUUnlockCmd_InvalidDevices(t *testing.T) {
	isolate(t)

	tc, _, _ := newTestCmd("test_gpu_unlock", "gpu-unlock", "zero")
	assert.Error(t, tc.Execute())
}

func TestLockCmds_EmptyLockFile(t *testing.T) {
	isolate(t)
	stateDir := configdir.StateDir()
	require.NoError(t, os.MkdirAll(stateDir, 0o750))
	lockPath := filepath.Join(stateDir, "gpu0.lock.json")
	require.NoError(t, os.WriteFile(lockPath, nil, 0o600))

	marker := filepath.Join(t.TempDir(), "ran")
	tc, _, _ := newTestCmd("test_exec", "exec", "--devices", "0", "--lock", "--", "touch", marker)
	require.ErrorIs(t, tc.Execute(), gpulock.ErrDeviceLocked)
	assert.NoFileExists(t, marker)

	tc, stdout, _ := newTestCmd("test_gpu_check", "gpu-check")
	require.NoError(t, tc.Execute())
	assert.Contains(t, stdout.String(), "GPU 0: unreadable lock file")

	tc, stdout, _ = newTestCmd("test_gpu_unlock", "gpu-unlock")
	require.NoError(t, tc.Execute())
	assert.Contains(t, stdout.String(), "Unlocked GPU 0 (was held by unreadable lock file)")
	assert.NoFileExists(t, lockPath)
}
