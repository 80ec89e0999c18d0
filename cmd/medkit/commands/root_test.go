package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medkit/cmd/medkit/commands"
	"medkit/internal/build"
	"medkit/internal/configdir"
	"medkit/internal/deviceconfig"
)

// isolate points the system and user config locations at empty temp dirs
// and restores CUDA_VISIBLE_DEVICES afterwards.
func isolate(t *testing.T) (systemDir, homeDir string) {
	t.Helper()

	systemDir = t.TempDir()
	homeDir = t.TempDir()
	t.Setenv(configdir.EnvConfigDir, systemDir)
	t.Setenv(configdir.EnvStateDir, filepath.Join(homeDir, "state"))
	t.Setenv("HOME", homeDir)
	t.Setenv(deviceconfig.VisibleDevicesEnv, "")
	require.NoError(t, os.Unsetenv(deviceconfig.VisibleDevicesEnv))

	return systemDir, homeDir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestCmd(name string, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	tc := commands.NewRootCmd(name, "", "")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	tc.SetArgs(args)
	tc.SetOut(stdout)
	tc.SetErr(stderr)

	return tc, stdout, stderr
}

func TestRootCmd_NoArgsPrintsReportWhenNotATerminal(t *testing.T) {
	isolate(t)

	tc, stdout, _ := newTestCmd("test_root")
	require.NoError(t, tc.Execute())

	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "MedKit version: "+build.Short(), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Go version: go"), lines[1])
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	isolate(t)

	tc, _, _ := newTestCmd("test_root", "nonsense")
	assert.Error(t, tc.Execute())
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	systemDir, _ := isolate(t)
	writeConfig(t, systemDir, "logging:\n  level: loud\n")

	tc, stdout, _ := newTestCmd("test_root", "print-config")
	err := tc.Execute()

	require.ErrorIs(t, err, commands.ErrConfigLoad)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Empty(t, stdout.String())
}

func TestRootCmd_LogFlagsOverrideConfig(t *testing.T) {
	isolate(t)

	tc, _, stderr := newTestCmd("test_root", "--log-level", "debug", "--log-format", "json", "version")
	require.NoError(t, tc.Execute())

	assert.Contains(t, stderr.String(), "cli.ready")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	isolate(t)

	tc, stdout, _ := newTestCmd("test_root", "--version")
	require.NoError(t, tc.Execute())

	assert.Contains(t, stdout.String(), build.Short())
}

func TestVersionCmd(t *testing.T) {
	isolate(t)

	tc, stdout, stderr := newTestCmd("test_version", "version")
	require.NoError(t, tc.Execute())

	assert.Contains(t, stdout.String(), "medkit "+build.Version)
	assert.Empty(t, stderr.String())
}
