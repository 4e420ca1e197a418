package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/logshard/logshard/cli/scan"
	"github.com/logshard/logshard/manifest"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_days":
		content = m.renderStatsDays()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsDays() string {
	data, ok := m.data.(*scan.Summary)
	if !ok {
		return "Invalid data type for stats_days"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Target Statistics"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Prefix:"),
		ValueStyle.Render(data.Prefix)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Source:"),
		ValueStyle.Render(data.Source)))
	b.WriteString("\n")

	var days, records, diverted, bursts int64
	for _, d := range data.Days {
		if d.Day == manifest.ErrorDay {
			diverted += d.Records
			continue
		}
		days++
		records += d.Records
		bursts += d.Bursts
	}

	// Create stat boxes
	boxes := []string{
		m.renderStatBox("Days", fmt.Sprintf("%d", days), highlightColor),
		m.renderStatBox("Records", fmt.Sprintf("%d", records), successColor),
		m.renderStatBox("Diverted", fmt.Sprintf("%d", diverted), errorColor),
		m.renderStatBox("Bursts", fmt.Sprintf("%d", bursts), warningColor),
	}

	// Join boxes horizontally
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	if len(data.Days) > 0 {
		b.WriteString("\n\n")
		for _, d := range data.Days {
			label := DayStyle(d.Day).Render(fmt.Sprintf("%-12s", d.Day))
			detail := fmt.Sprintf("%d records, %s", d.Records, formatBytes(d.Bytes))
			if d.Bursts > 0 {
				detail += fmt.Sprintf(", %d bursts", d.Bursts)
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", label, ValueStyle.Render(detail)))
		}
	}

	return b.String()
}

func (m StatsModel) renderStatBox(label, value string, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(value)
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
