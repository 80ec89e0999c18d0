package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
	"medkit/internal/logging"
)

// Model represents the TUI application state
type Model struct {
	startTime time.Time
	quitting  bool

	logger  *logging.Logger
	sources Sources

	// UI State
	currentScreen Screen
	selection     int
	lastError     string
	store         *stateStore

	// Versions Screen State
	versions    deviceconfig.Values
	tensorTuple string

	// GPU Screen State
	gpuReport    gpu.GPUReport
	hasGPUReport bool
	gpuError     string

	// Diagnostics Screen State
	diagInProgress bool
	diagResult     string
	lastBundle     string

	statusMessage string
}

const down = "down"

// diagDoneMsg carries the result of an asynchronous diagnostic run
type diagDoneMsg struct {
	path string
	err  error
}

// NewModel creates a new TUI model. stateDir may be empty to disable
// persisting the UI state.
func NewModel(logger *logging.Logger, sources Sources, stateDir string) Model {
	m := Model{
		startTime:     time.Now(),
		logger:        logger,
		sources:       sources,
		currentScreen: ScreenMenu,
	}

	m.store = newStateStore(stateDir, logger)
	state := m.store.load()
	m.currentScreen = state.Screen
	m.selection = state.Selection
	m.lastError = state.LastError
	m.lastBundle = state.LastBundle

	m.loadVersions()
	m.loadGPU()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case diagDoneMsg:
		return m.finishDiag(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if next, handled, cmd := m.handleQuitKeys(key); handled {
		return next, cmd
	}

	if next, handled := m.handleEscapeKey(key); handled {
		return next, nil
	}

	if next, handled := m.handleMenuNavigationKeys(key); handled {
		return next, nil
	}

	if next, handled := m.handleMenuSelectionKey(key); handled {
		return next, nil
	}

	if next, handled := m.handleShortcutKeys(key); handled {
		return next, nil
	}

	if next, handled := m.handleTabKey(key); handled {
		return next, nil
	}

	if next, handled := m.handleRefreshKey(key); handled {
		return next, nil
	}

	if next, handled, cmd := m.handleDiagnosticsKeys(key); handled {
		return next, cmd
	}

	return m, nil
}

func (m Model) handleQuitKeys(key string) (tea.Model, bool, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		m.saveState()
		return m, true, tea.Quit
	}
	return m, false, nil
}

func (m Model) handleEscapeKey(key string) (tea.Model, bool) {
	if key == "esc" && m.currentScreen != ScreenMenu {
		m = m.returnToMenu()
		m.saveState()
		return m, true
	}
	return m, false
}

func (m Model) handleMenuNavigationKeys(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenMenu {
		return m, false
	}

	switch key {
	case "up", "k":
		return m.navigateUp(), true
	case down, "j":
		return m.navigateDown(), true
	}
	return m, false
}

func (m Model) handleMenuSelectionKey(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenMenu {
		return m, false
	}

	if key == "enter" || key == " " {
		updated := m.selectMenuItem()
		updated.saveState()
		return updated, true
	}
	return m, false
}

func (m Model) handleShortcutKeys(key string) (tea.Model, bool) {
	switch key {
	case "1", "2", "3", "?":
		updated := m.selectMenuByKey(key)
		updated.saveState()
		return updated, true
	}
	return m, false
}

// handleTabKey flips between the versions and GPU screens
func (m Model) handleTabKey(key string) (tea.Model, bool) {
	if key != "tab" {
		return m, false
	}

	switch m.currentScreen {
	case ScreenVersions:
		m.currentScreen = ScreenGPU
	case ScreenGPU:
		m.currentScreen = ScreenVersions
	default:
		return m, false
	}
	m.saveState()
	return m, true
}

func (m Model) handleRefreshKey(key string) (tea.Model, bool) {
	if key != "r" {
		return m, false
	}

	switch m.currentScreen {
	case ScreenVersions, ScreenGPU:
		return m.refresh(), true
	}
	return m, false
}

func (m Model) handleDiagnosticsKeys(key string) (tea.Model, bool, tea.Cmd) {
	if m.currentScreen != ScreenDiagnostics || key != "c" {
		return m, false, nil
	}

	// Ignore repeated presses while a package is being written
	if m.diagInProgress {
		return m, true, nil
	}

	if m.sources.Diag == nil {
		m.diagResult = "Diagnostics unavailable"
		return m, true, nil
	}

	m.diagInProgress = true
	m.diagResult = ""
	return m, true, m.runDiag()
}

func (m Model) runDiag() tea.Cmd {
	create := m.sources.Diag
	return func() tea.Msg {
		path, err := create(context.Background())
		return diagDoneMsg{path: path, err: err}
	}
}

func (m Model) finishDiag(msg diagDoneMsg) Model {
	m.diagInProgress = false
	if msg.err != nil {
		m.diagResult = fmt.Sprintf("Failed: %v", msg.err)
		m.lastError = m.diagResult
		m.saveState()
		m.logger.Error("tui.diag.failed", "Diagnostic package failed", map[string]interface{}{
			"error": msg.err.Error(),
		})
		return m
	}
	m.diagResult = "Package written to " + msg.path
	m.lastBundle = msg.path
	m.lastError = ""
	m.saveState()
	return m
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentScreen {
	case ScreenMenu:
		return m.renderMenu()
	case ScreenVersions:
		return m.renderVersionsScreen()
	case ScreenGPU:
		return m.renderGPUScreen()
	case ScreenDiagnostics:
		return m.renderDiagnosticsScreen()
	case ScreenHelp:
		return m.renderHelpScreen()
	default:
		return m.renderMenu()
	}
}

// saveState persists the current viewer state
func (m *Model) saveState() {
	err := m.store.save(viewerState{
		Screen:     m.currentScreen,
		Selection:  m.selection,
		LastBundle: m.lastBundle,
		LastError:  m.lastError,
	})
	if err != nil {
		m.logger.Warn("tui.state.save_failed", "Failed to save viewer state", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// loadVersions collects the version report and the tensor version tuple
func (m *Model) loadVersions() {
	m.versions = nil
	m.tensorTuple = ""

	if m.sources.Versions != nil {
		m.versions = m.sources.Versions()
	}

	if m.sources.TensorTuple != nil {
		tuple, err := m.sources.TensorTuple()
		if err != nil {
			m.tensorTuple = err.Error()
		} else {
			m.tensorTuple = tuple.String()
		}
	}
}

// loadGPU loads GPU information
func (m *Model) loadGPU() {
	if m.sources.GPU == nil {
		m.hasGPUReport = false
		m.gpuError = "GPU scan disabled"
		return
	}

	report := m.sources.GPU()
	m.gpuReport = report
	m.hasGPUReport = true

	if report.ErrorMessage != "" {
		m.gpuError = report.ErrorMessage
		return
	}

	if !report.NVMLOk {
		m.gpuError = "NVML unavailable or failed to initialize"
		return
	}

	m.gpuError = ""
}

// refresh reloads the version report and GPU state
func (m Model) refresh() Model {
	m.loadVersions()
	m.loadGPU()
	m.statusMessage = "Refreshed at " + time.Now().Format("15:04:05")
	m.lastError = ""
	return m
}
