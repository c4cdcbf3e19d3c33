package tui

import "github.com/charmbracelet/lipgloss"

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)

	statusStyles = map[string]lipgloss.Style{
		"IDLE":      lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Bold(true),
		"FALLING":   lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true),
		"RESTORING": lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true),
		"PAUSED":    lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true),
	}
)
