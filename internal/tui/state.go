package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"medkit/internal/logging"
)

const (
	// StateFileName is the viewer state file inside the medkit state directory
	StateFileName = "viewer.json"

	stateSchema = 1
)

// viewerState is what the viewer remembers between runs
type viewerState struct {
	Schema     int       `json:"schema"`
	Screen     Screen    `json:"screen"`
	Selection  int       `json:"selection"`
	LastBundle string    `json:"last_bundle,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Saved      time.Time `json:"saved"`
}

func defaultViewerState() viewerState {
	return viewerState{Schema: stateSchema, Screen: ScreenMenu}
}

// stateStore persists viewerState in the state directory. A nil store
// keeps nothing.
type stateStore struct {
	path   string
	logger *logging.Logger
	now    func() time.Time
}

// newStateStore returns nil when stateDir is empty
func newStateStore(stateDir string, logger *logging.Logger) *stateStore {
	if stateDir == "" {
		return nil
	}
	return &stateStore{
		path:   filepath.Join(stateDir, StateFileName),
		logger: logger,
		now:    time.Now,
	}
}

// load returns the saved state. A missing, unreadable, or foreign file
// yields the defaults so the viewer always opens.
func (s *stateStore) load() viewerState {
	if s == nil {
		return defaultViewerState()
	}

	state, err := s.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("tui.state.ignored", "Ignoring saved viewer state", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return defaultViewerState()
	}

	if state.Selection < 0 || state.Selection >= len(DefaultMenuItems()) {
		state.Selection = 0
	}
	return state
}

func (s *stateStore) read() (viewerState, error) {
	var state viewerState

	data, err := os.ReadFile(s.path)
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to decode state: %w", err)
	}
	if state.Schema != stateSchema {
		return state, fmt.Errorf("unsupported state schema %d", state.Schema)
	}
	if !state.Screen.valid() {
		return state, fmt.Errorf("unknown screen %q", state.Screen)
	}

	return state, nil
}

func (s *stateStore) save(state viewerState) error {
	if s == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	state.Schema = stateSchema
	state.Saved = s.now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	s.logger.Debug("tui.state.saved", "Viewer state saved", map[string]interface{}{
		"screen":    state.Screen,
		"selection": state.Selection,
	})

	return nil
}
