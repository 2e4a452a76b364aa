/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/internal/tui/colors"
	"github.com/allbin/balancelog/serial"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <command> <port>",
	Short: "Send a command to a balance",
	Long: `Send one command to the balance on a port, terminated with CR LF.

Useful commands:
  PSN   print the balance's serial number
  0P    stop streaming
  <N>P  print a frame every N seconds (1-3600)

With --reply the next frame the balance prints is shown. The port is locked
for the duration of the command and refused if a recorder holds it.

Example usage:
  balancelog send PSN /dev/ttyUSB0 --reply
  balancelog send 0P /dev/ttyUSB0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		command := strings.TrimSpace(args[0])
		portPath := args[1]
		reply, _ := cmd.Flags().GetBool("reply")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		sigCtx, stop := signalContext(cmd.Context())
		defer stop()

		lease, err := a.locks().Acquire(portPath)
		if err != nil {
			return err
		}
		defer releaseLease(a.log, lease)

		port, err := serial.Open(portPath, a.portOptions()...)
		if err != nil {
			return fmt.Errorf("failed to open port: %w", err)
		}
		defer port.Close()

		session := balance.NewSession(port, portPath,
			balance.WithIdleGap(a.cfg.IdleGap),
			balance.WithLogger(a.log),
		)

		ctx, cancel := context.WithTimeout(sigCtx, timeout)
		defer cancel()

		if err := session.SendCommand(ctx, command); err != nil {
			return err
		}

		successStyle := lipgloss.NewStyle().Foreground(colors.Green).Bold(true)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Sent %q to %s", command, portPath)))

		if !reply {
			return nil
		}

		lines, err := session.ReadFrame(ctx)
		if err != nil {
			if sigCtx.Err() != nil {
				return sigCtx.Err()
			}
			if ctx.Err() != nil {
				return fmt.Errorf("no reply within %s", timeout)
			}
			return err
		}

		replyStyle := lipgloss.NewStyle().Foreground(colors.Subtext1)
		for _, line := range lines {
			fmt.Fprintln(out, replyStyle.Render("  "+line))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("reply", "r", false, "Wait for and print the next frame")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "How long to wait for a reply")
}
