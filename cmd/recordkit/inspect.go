package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/recordkit"
	"github.com/wippyai/recordkit/accessor"
	"github.com/wippyai/recordkit/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Browse contracts and edit records interactively",
	Args:  args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, paths []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return usageError{fmt.Errorf("inspect needs a terminal; use layout or demo instead")}
		}
		m := newInspectModel(cmd.Context(), paths[0])
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		m.close()
		if err != nil {
			return err
		}
		return m.loadErr
	},
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	recordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectState int

const (
	stateSelectSchema inspectState = iota
	stateRecord
	stateInput
)

type inspectModel struct {
	ctx      context.Context
	err      error // last failed action, shown until the next key
	loadErr  error
	reg      *recordkit.Registry
	closer   func()
	record   *accessor.Cursor
	filename string
	schemas  []*schema.Schema
	input    textinput.Model
	selected int
	field    int
	state    inspectState
}

type loadedMsg struct {
	err    error
	reg    *recordkit.Registry
	closer func()
}

func newInspectModel(ctx context.Context, filename string) *inspectModel {
	return &inspectModel{ctx: ctx, filename: filename, state: stateSelectSchema}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.load
}

func (m *inspectModel) load() tea.Msg {
	reg, closer, err := openRegistry(m.ctx, cfg, schema.DeclarationOrder, m.filename)
	return loadedMsg{reg: reg, closer: closer, err: err}
}

func (m *inspectModel) close() {
	if m.closer != nil {
		m.closer()
		m.closer = nil
	}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, tea.Quit
		}
		m.reg = msg.reg
		m.closer = msg.closer
		m.schemas = msg.reg.Schemas()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateInput {
			return m.updateInput(msg)
		}
		m.err = nil
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter":
			switch m.state {
			case stateSelectSchema:
				if len(m.schemas) > 0 {
					m.create()
				}
			case stateRecord:
				m.edit()
			}

		case "n":
			if m.state == stateRecord {
				m.create()
			}

		case "esc":
			if m.state == stateRecord {
				m.state = stateSelectSchema
				m.record = nil
			}
		}
	}
	return m, nil
}

func (m *inspectModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateRecord
		return m, nil
	case "enter":
		m.err = m.apply(m.input.Value())
		m.state = stateRecord
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inspectModel) move(delta int) {
	switch m.state {
	case stateSelectSchema:
		m.selected = clamp(m.selected+delta, len(m.schemas))
	case stateRecord:
		m.field = clamp(m.field+delta, len(m.record.Schema().Fields()))
	}
}

func clamp(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *inspectModel) create() {
	c, err := m.reg.Create(m.schemas[m.selected].ID())
	if err != nil {
		m.err = err
		return
	}
	m.record = c
	m.field = 0
	m.state = stateRecord
}

func (m *inspectModel) edit() {
	f := m.record.Schema().Fields()[m.field]
	if at, single := setters(m.record.Schema(), f); f.Nested != nil || (at == nil && single == nil) {
		m.err = fmt.Errorf("%s has no setter", f.Name)
		return
	}
	ti := textinput.New()
	ti.Prompt = f.Name + ": "
	ti.Placeholder = f.Type().String()
	if f.IsArray() {
		ti.Placeholder = fmt.Sprintf("up to %d comma separated %s values", f.ElementCount, f.Type())
	}
	ti.Width = 40
	ti.Focus()
	m.input = ti
	m.state = stateInput
}

// apply writes text into the selected field of the current record.
func (m *inspectModel) apply(text string) error {
	s := m.record.Schema()
	f := s.Fields()[m.field]
	values, err := parseElements(f.Kind, text, f.ElementCount)
	if err != nil {
		return err
	}
	at, single := setters(s, f)
	if at == nil {
		if len(values) > 1 {
			return fmt.Errorf("%s only has a setter for its first element", f.Name)
		}
		return m.record.Set(single.Name, values[0])
	}
	for i, v := range values {
		if err := m.record.SetAt(at.Name, i, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *inspectModel) View() string {
	if m.reg == nil {
		return "Loading " + m.filename + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("recordkit"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSchema:
		b.WriteString("Select a contract:\n\n")
		for i, s := range m.schemas {
			line := fmt.Sprintf("%s %s", nameStyle.Render(s.Name()),
				typeStyle.Render(fmt.Sprintf("id %d, %d bytes", s.ID(), s.Size())))
			writeItem(&b, line, i == m.selected)
		}
		b.WriteString("\n")
		m.writeError(&b)
		b.WriteString(helpStyle.Render("↑/↓ select • enter create record • q quit"))

	case stateRecord, stateInput:
		s := m.record.Schema()
		b.WriteString(fmt.Sprintf("%s @%#x\n\n", nameStyle.Render(s.Name()), m.record.Address()))
		for i, f := range s.Fields() {
			writeItem(&b, formatField(f), i == m.field)
		}
		b.WriteString("\n")
		b.WriteString(recordStyle.Render(m.record.String()))
		b.WriteString("\n\n")
		if m.state == stateInput {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter write • esc cancel"))
			break
		}
		m.writeError(&b)
		b.WriteString(helpStyle.Render("↑/↓ select • enter set • n new record • esc back • q quit"))
	}
	return b.String()
}

func (m *inspectModel) writeError(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}
}

func writeItem(b *strings.Builder, line string, selected bool) {
	if selected {
		b.WriteString(selectedStyle.Render("> " + line))
	} else {
		b.WriteString("  " + line)
	}
	b.WriteString("\n")
}

func formatField(f *schema.Field) string {
	t := f.Type().String()
	if f.IsArray() {
		t = fmt.Sprintf("%s[%d]", t, f.ElementCount)
	}
	return fmt.Sprintf("%-16s %s @%d", nameStyle.Render(f.Name), typeStyle.Render(t), f.Offset)
}
