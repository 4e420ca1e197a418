package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/logshard/logshard/cli/scan"
)

// InspectModel is a Bubble Tea model for inspect views. Target lines
// live in a viewport so large days stay scrollable.
type InspectModel struct {
	viewType string
	data     any
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if data, ok := m.data.(*scan.Inspection); ok {
			body := msg.Height - lipgloss.Height(m.renderHeader(data)) - lipgloss.Height(m.helpView())
			if body < 1 {
				body = 1
			}
			if !m.ready {
				m.viewport = viewport.New(msg.Width, body)
				m.viewport.SetContent(m.renderLines(data))
				m.ready = true
			} else {
				m.viewport.Width = msg.Width
				m.viewport.Height = body
			}
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	// Everything else scrolls.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_day", "inspect_errors":
		content = m.renderInspection()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	return content + "\n" + m.helpView()
}

func (m InspectModel) helpView() string {
	return HelpStyle.Render("Arrow keys scroll. Press q or Ctrl+C to quit")
}

func (m InspectModel) renderInspection() string {
	data, ok := m.data.(*scan.Inspection)
	if !ok {
		return fmt.Sprintf("Invalid data type for %s", m.viewType)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(data))
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderLines(data))
	}
	return b.String()
}

func (m InspectModel) renderHeader(data *scan.Inspection) string {
	title := "Day Target"
	if m.viewType == "inspect_errors" {
		title = "Error Target"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Day:"),
		DayStyle(data.Day).Render(data.Day)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Target:"),
		ValueStyle.Render(data.Target)))

	count := fmt.Sprintf("%d", len(data.Lines))
	if data.Truncated {
		count += " (truncated)"
	}
	b.WriteString(fmt.Sprintf("%s %s",
		LabelStyle.Render("Lines:"),
		ValueStyle.Render(count)))

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderLines(data *scan.Inspection) string {
	if len(data.Lines) == 0 {
		return ValueStyle.Render("(no records)")
	}

	gutter := len(fmt.Sprintf("%d", len(data.Lines)))
	var b strings.Builder
	for i, line := range data.Lines {
		num := LabelStyle.Width(gutter).Render(fmt.Sprintf("%*d", gutter, i+1))
		b.WriteString(fmt.Sprintf("%s  %s\n", num, ValueStyle.Render(line)))
	}
	if data.Truncated {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("(stopped after %d lines)", len(data.Lines))))
	}
	return b.String()
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
