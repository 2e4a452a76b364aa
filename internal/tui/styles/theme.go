package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/balancelog/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Status line styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Mauve).
			Bold(true)

	ElapsedStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext1)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	StableStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	UnstableStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	// Info styles
	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Blue)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Text)

	TableHighlightStyle = lipgloss.NewStyle().
				Foreground(colors.Text).
				Background(colors.Surface1)

	TableBaseStyle = lipgloss.NewStyle().
			BorderForeground(colors.Surface2).
			Align(lipgloss.Left)
)

// RecordState is how a measurement record should be highlighted
type RecordState int

const (
	RecordStable RecordState = iota
	RecordUnstable
	RecordError
)

func GetRecordStyle(state RecordState) lipgloss.Style {
	switch state {
	case RecordStable:
		return StableStyle
	case RecordUnstable:
		return UnstableStyle
	case RecordError:
		return ErrorStyle
	default:
		return StableStyle
	}
}
