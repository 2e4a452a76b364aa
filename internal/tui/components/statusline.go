package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/internal/tui/styles"
)

const (
	columnGap = "    "
	missing   = "--"
)

// StatusLine renders one console line per measurement record:
//
//	Mass Damon:    1h 05m 00s    06/15/24 11:05:00    95.0g
type StatusLine struct {
	label string
}

func NewStatusLine(label string) *StatusLine {
	return &StatusLine{label: label}
}

// Render formats rec. Unstable readings and incomplete frames are highlighted.
func (sl *StatusLine) Render(rec balance.Record) string {
	label := styles.LabelStyle.Render(sl.label + ":")
	elapsed := styles.ElapsedStyle.Render(FormatElapsed(rec.Elapsed))

	timestamp := missing
	if rec.Timestamp != nil {
		timestamp = *rec.Timestamp
	}
	ts := styles.TimestampStyle.Render(timestamp)

	net := missing
	if rec.Net != nil {
		net = formatMass(*rec.Net)
	}
	mass := styles.GetRecordStyle(recordState(rec)).Render(net + "g")

	line := strings.Join([]string{label, elapsed, ts, mass}, columnGap)
	switch {
	case rec.Error:
		line += " " + styles.ErrorStyle.Render("(incomplete frame)")
	case rec.Unstable:
		line += " " + styles.UnstableStyle.Render("(unstable)")
	}
	return line
}

func recordState(rec balance.Record) styles.RecordState {
	switch {
	case rec.Error:
		return styles.RecordError
	case rec.Unstable:
		return styles.RecordUnstable
	default:
		return styles.RecordStable
	}
}

// FormatElapsed renders seconds as "Hh MMm SSs"
func FormatElapsed(secs *float64) string {
	if secs == nil {
		return fmt.Sprintf("%sh %sm %ss", missing, missing, missing)
	}
	hours := math.Floor(*secs / 3600)
	rem := *secs - hours*3600
	mins := math.Floor(rem / 60)
	s := int(rem - mins*60)
	return fmt.Sprintf("%dh %02dm %02ds", int(hours), int(mins), s)
}

func formatMass(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Banner is printed once recording starts
func Banner(label, identity, device, path string, interval int) string {
	title := styles.TitleStyle.Render(label)
	details := styles.MutedStyle.Render(fmt.Sprintf(" %s on %s, every %ds", identity, device, interval))
	return lipgloss.JoinHorizontal(lipgloss.Left, title, details) + "\n" +
		styles.InfoStyle.Render("Recording balance measurements to "+path)
}

// Summary is printed when recording stops
func Summary(stats balance.StatsSnapshot, rows int, took time.Duration) string {
	parts := []string{
		fmt.Sprintf("%d frames", stats.Frames),
		fmt.Sprintf("%d rows written", rows),
	}

	errs := fmt.Sprintf("%d incomplete", stats.Errors)
	if stats.Errors > 0 {
		errs = styles.ErrorStyle.Render(errs)
	}
	unstable := fmt.Sprintf("%d unstable", stats.Unstable)
	if stats.Unstable > 0 {
		unstable = styles.UnstableStyle.Render(unstable)
	}
	parts = append(parts, errs, unstable)

	return fmt.Sprintf("Recording stopped after %s: %s",
		took.Round(time.Second), strings.Join(parts, ", "))
}
