/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/internal/tui/colors"
	"github.com/allbin/balancelog/serial"
)

// portsCmd represents the ports command
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and their USB adapters",
	Long: `List all serial ports on the system with the USB adapter behind each one.

Ports whose adapter is one balances are connected through are marked, as are
ports held in the lock file by a running recorder. Nothing is opened, so this
is safe to run while recording.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := serial.ListPortInfo()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(infos) == 0 {
			fmt.Fprintln(out, "No serial ports found")
			return nil
		}

		adapters := make(map[string]bool, len(a.cfg.Adapters))
		for _, id := range a.cfg.Adapters {
			adapters[id] = true
		}

		locks := a.locks()
		rows := make([]portRow, 0, len(infos))
		for _, info := range infos {
			locked, err := locks.IsLocked(info.Path)
			if err != nil {
				return err
			}
			rows = append(rows, portRow{
				info:     info,
				balance:  info.IsUSB() && adapters[info.USBID()],
				locked:   locked,
				portType: getPortType(info.Name),
			})
		}

		renderPorts(out, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

type portRow struct {
	info     serial.PortInfo
	balance  bool
	locked   bool
	portType string
}

// renderPorts renders the port list in a styled static table format
func renderPorts(out io.Writer, rows []portRow) {
	fmt.Fprintf(out, "Found %d serial port(s):\n\n", len(rows))

	// Define column widths
	portWidth := 15
	typeWidth := 16
	usbWidth := 11
	stateWidth := 16

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(colors.Mauve).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colors.Surface2)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)
	balanceStyle := cellStyle.Foreground(colors.Green)
	lockedStyle := cellStyle.Foreground(colors.Peach)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		portWidth, "Port",
		typeWidth, "Type",
		usbWidth, "USB ID",
		stateWidth, "State",
		"Description")
	fmt.Fprintln(out, headerStyle.Render(header))

	for _, r := range rows {
		state := ""
		style := cellStyle
		switch {
		case r.locked:
			state = "recording"
			style = lockedStyle
		case r.balance:
			state = "balance adapter"
			style = balanceStyle
		}

		usbID := r.info.USBID()
		if usbID == "" {
			usbID = "-"
		}

		row := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
			portWidth, r.info.Name,
			typeWidth, r.portType,
			usbWidth, usbID,
			stateWidth, state,
			r.info.Description)
		fmt.Fprintln(out, style.Render(row))
	}
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
