package configdir

import (
	"os"
	"path/filepath"
)

const defaultConfigDir = "/etc/medkit"

const (
	// EnvConfigDir overrides the system configuration directory.
	EnvConfigDir = "MEDKIT_CONFIG_DIR"
	// EnvStateDir overrides the directory for runtime state (UI state, device locks).
	EnvStateDir = "MEDKIT_STATE_DIR"
)

// ConfigDir resolves the configuration directory respecting overrides
func ConfigDir() string {
	if env := os.Getenv(EnvConfigDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}

// StateDir returns $MEDKIT_STATE_DIR, or ~/.medkit/state when unset.
// It returns an absolute path when possible and "" when no home directory
// can be determined.
func StateDir() string {
	if env := os.Getenv(EnvStateDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".medkit", "state")
}
