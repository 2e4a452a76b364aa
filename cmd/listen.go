/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/internal/tui/components"
	"github.com/allbin/balancelog/internal/tui/styles"
	"github.com/allbin/balancelog/serial"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Show a balance's frames without recording them",
	Long: `Start the measurement stream on a port and print every frame as it is
decoded, without writing a log. Use --raw to see the lines the balance sent,
e.g. to check the date order of an unfamiliar firmware. The date order and
time zone are read from the configuration (BALANCELOG_DATE_ORDER, ...).

Runs until interrupted (Ctrl+C).

Example usage:
  balancelog listen /dev/ttyUSB0 --interval 2
  BALANCELOG_DATE_ORDER=dmy balancelog listen /dev/ttyUSB0 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath := args[0]
		interval, _ := cmd.Flags().GetInt("interval")
		raw, _ := cmd.Flags().GetBool("raw")

		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()
		cfg := a.cfg

		if err := balance.ValidateInterval(interval); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
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

		out := cmd.OutOrStdout()
		status := components.NewStatusLine(portPath)
		session := balance.NewSession(port, portPath,
			balance.WithDecoder(balance.NewDecoder(cfg.DateOrder, cfg.Location)),
			balance.WithIdleGap(cfg.IdleGap),
			balance.WithSettle(cfg.Settle),
			balance.WithLogger(a.log),
		)

		if err := session.StartStream(ctx, interval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "Listening on %s, a frame every %ds. Press Ctrl+C to stop\n\n", portPath, interval)

		started := time.Now()
		err = session.Run(ctx, balance.SinkFunc(func(rec balance.Record) error {
			fmt.Fprintln(out, status.Render(rec))
			if raw {
				for _, line := range rec.Lines {
					fmt.Fprintln(out, styles.MutedStyle.Render("    | "+line))
				}
			}
			return nil
		}))

		snap := session.Stats().Snapshot()
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.InfoStyle.Render(fmt.Sprintf("Stopped after %s: %d frames, %d incomplete, %d unstable",
			time.Since(started).Round(time.Second), snap.Frames, snap.Errors, snap.Unstable)))
		return err
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().IntP("interval", "i", 5, "Seconds between frames (1-3600)")
	listenCmd.Flags().Bool("raw", false, "Also print the raw frame lines")
}
