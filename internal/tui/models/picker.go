package models

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/balancelog/internal/tui/components"
	"github.com/allbin/balancelog/internal/tui/keys"
	"github.com/allbin/balancelog/internal/tui/styles"
	"github.com/allbin/balancelog/registry"
)

// ErrCancelled is returned when the user quits the picker without choosing
var ErrCancelled = errors.New("selection cancelled")

// PickerModel lets the user choose one of several balances
type PickerModel struct {
	balances []registry.Descriptor
	table    table.Model
	keys     keys.PickerKeys
	help     help.Model

	chosen    int
	cancelled bool
}

func NewPickerModel(balances []registry.Descriptor) *PickerModel {
	return &PickerModel{
		balances: balances,
		table:    components.NewBalanceTable(balances).Focused(true),
		keys:     keys.NewPickerKeys(),
		help:     help.New(),
		chosen:   -1,
	}
}

func (m *PickerModel) Init() tea.Cmd {
	return nil
}

func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Select):
			if len(m.balances) > 0 {
				m.chosen = m.table.GetHighlightedRowIndex()
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *PickerModel) View() string {
	if m.chosen >= 0 || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Balances available"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Choice returns the selected balance, if any
func (m *PickerModel) Choice() (registry.Descriptor, bool) {
	if m.cancelled || m.chosen < 0 || m.chosen >= len(m.balances) {
		return registry.Descriptor{}, false
	}
	return m.balances[m.chosen], true
}

// Pick runs the picker on in/out and returns the chosen balance
func Pick(balances []registry.Descriptor, in io.Reader, out io.Writer) (registry.Descriptor, error) {
	p := tea.NewProgram(NewPickerModel(balances), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return registry.Descriptor{}, err
	}

	m, ok := final.(*PickerModel)
	if !ok {
		return registry.Descriptor{}, ErrCancelled
	}
	d, ok := m.Choice()
	if !ok {
		return registry.Descriptor{}, ErrCancelled
	}
	return d, nil
}
