package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"medkit/internal/deviceconfig"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700")).MarginTop(1)
)

// renderMenu renders the main menu screen
func (m Model) renderMenu() string {
	var b strings.Builder

	menuItemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	menuItemSelectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00d7ff")).Bold(true)
	descStyle := mutedStyle.PaddingLeft(2)

	b.WriteString(titleStyle.Render("medkit: Main Menu"))
	b.WriteString("\n\n")

	for i, item := range DefaultMenuItems() {
		prefix := fmt.Sprintf("[%s] ", item.Key)

		if i == m.selection {
			b.WriteString(menuItemSelectedStyle.Render(prefix + item.Label))
		} else {
			b.WriteString(menuItemStyle.Render(prefix + item.Label))
		}
		b.WriteString("\n")
		b.WriteString(descStyle.Render(item.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Navigate: ↑/↓ or numbers | Select: Enter/Space | Back: Esc | Quit: q"))
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Bold(true).Render("⚠ " + m.lastError))
		b.WriteString("\n")
	}

	return b.String()
}

// renderVersionsScreen renders the version report with aligned labels
func (m Model) renderVersionsScreen() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Versions"))
	b.WriteString("\n\n")

	if len(m.versions) == 0 {
		b.WriteString(errorStyle.Render("Version report unavailable"))
		b.WriteString("\n")
	}

	width := 0
	for _, rec := range m.versions {
		width = max(width, len(rec.Label))
	}

	for _, rec := range m.versions {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s  ", width+1, rec.Label+":")))
		style := valueStyle
		if rec.Version == deviceconfig.NotInstalled || rec.Version == deviceconfig.Unknown {
			style = mutedStyle
		}
		b.WriteString(style.Render(rec.Version))
		b.WriteString("\n")
	}

	if m.tensorTuple != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Tensor API level: "))
		b.WriteString(valueStyle.Render(m.tensorTuple))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString(hintStyle.Render("Tab: GPUs | r: refresh | Esc: menu | q: quit"))
	b.WriteString("\n")

	return b.String()
}

// renderGPUScreen renders detected devices and CUDA visibility
func (m Model) renderGPUScreen() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("GPUs"))
	b.WriteString("\n\n")

	visibility := m.gpuReport.Visibility
	b.WriteString(labelStyle.Render(deviceconfig.VisibleDevicesEnv + ": "))
	if visibility.Set {
		b.WriteString(valueStyle.Render(visibility.String()))
	} else {
		b.WriteString(mutedStyle.Render(visibility.String()))
	}
	b.WriteString("\n")

	b.WriteString(m.renderGPUSection())
	b.WriteString(m.renderStatusLine())
	b.WriteString(hintStyle.Render("Tab: versions | r: refresh | Esc: menu | q: quit"))
	b.WriteString("\n")

	return b.String()
}

// renderGPUSection renders the GPU list
func (m Model) renderGPUSection() string {
	if m.gpuError != "" {
		return errorStyle.Render(m.gpuError) + "\n"
	}

	if !m.hasGPUReport || len(m.gpuReport.GPUs) == 0 {
		return valueStyle.Render("No GPUs detected") + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Driver: "))
	b.WriteString(valueStyle.Render(m.gpuReport.DriverVersion))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("CUDA: "))
	b.WriteString(valueStyle.Render(m.gpuReport.CUDAVersionString()))
	b.WriteString("\n")

	for _, info := range m.gpuReport.GPUs {
		marker := "◦"
		style := mutedStyle
		if info.Visible {
			marker = "•"
			style = valueStyle
		}
		fmt.Fprintf(&b, "  %s [%d] %s (%d MB) %s\n", marker, info.Index, style.Render(info.Name), info.MemoryMB, mutedStyle.Render(info.UUID))
	}

	if unresolved := m.gpuReport.Visibility.Unresolved; len(unresolved) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Ignored from %q on: no matching device", unresolved[0])))
		b.WriteString("\n")
	}

	return b.String()
}

// renderDiagnosticsScreen renders the diagnostic package screen
func (m Model) renderDiagnosticsScreen() string {
	var b strings.Builder

	textStyle := valueStyle.MarginTop(1)

	b.WriteString(titleStyle.Render("Diagnostics"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render("Bundle the version report, GPU report, system info, and redacted config into a ZIP."))
	b.WriteString("\n")

	switch {
	case m.diagInProgress:
		b.WriteString(labelStyle.Render("Creating package..."))
		b.WriteString("\n")
	case m.diagResult != "":
		style := valueStyle
		if m.lastError != "" {
			style = errorStyle
		}
		b.WriteString(style.Render(m.diagResult))
		b.WriteString("\n")
	case m.lastBundle != "":
		b.WriteString(mutedStyle.Render("Last package: " + m.lastBundle))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("c: create package | Esc: menu | q: quit"))
	b.WriteString("\n")

	return b.String()
}

// renderHelpScreen renders the help screen
func (m Model) renderHelpScreen() string {
	var b strings.Builder

	keyStyle := labelStyle.Bold(true)

	b.WriteString(titleStyle.Render("Help: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	rows := []struct{ section, key, desc string }{
		{"Navigation", "1-3, ?      ", "Quick menu selection"},
		{"", "↑ / ↓       ", "Navigate menu items"},
		{"", "Enter/Space ", "Select highlighted item"},
		{"", "Esc         ", "Return to main menu"},
		{"", "q / Ctrl+C  ", "Quit medkit"},
		{"Versions & GPUs", "Tab         ", "Switch between versions and GPUs"},
		{"", "r           ", "Refresh"},
		{"Diagnostics", "c           ", "Create diagnostic package"},
	}

	for _, row := range rows {
		if row.section != "" {
			b.WriteString(headerStyle.Render(row.section))
			b.WriteString("\n")
		}
		b.WriteString(keyStyle.Render(row.key))
		b.WriteString(valueStyle.Render(row.desc))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press Esc to return to menu"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderStatusLine() string {
	if m.statusMessage == "" {
		return ""
	}
	return "\n" + mutedStyle.Render(m.statusMessage) + "\n"
}

// navigateUp moves selection up in the menu
func (m Model) navigateUp() Model {
	if m.selection > 0 {
		m.selection--
	} else {
		// Wrap to bottom
		m.selection = len(DefaultMenuItems()) - 1
	}
	return m
}

// navigateDown moves selection down in the menu
func (m Model) navigateDown() Model {
	maxIndex := len(DefaultMenuItems()) - 1
	if m.selection < maxIndex {
		m.selection++
	} else {
		// Wrap to top
		m.selection = 0
	}
	return m
}

// selectMenuItem handles menu item selection
func (m Model) selectMenuItem() Model {
	menuItems := DefaultMenuItems()
	if m.selection >= 0 && m.selection < len(menuItems) {
		m.currentScreen = menuItems[m.selection].Screen
		m.lastError = ""
	}
	return m
}

// selectMenuByKey handles direct menu selection by key press
func (m Model) selectMenuByKey(key string) Model {
	for i, item := range DefaultMenuItems() {
		if item.Key == key {
			m.selection = i
			m.currentScreen = item.Screen
			m.lastError = ""
			break
		}
	}
	return m
}

// returnToMenu returns to the main menu
func (m Model) returnToMenu() Model {
	m.currentScreen = ScreenMenu
	m.lastError = ""
	return m
}
