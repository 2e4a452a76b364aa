/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/internal/config"
	"github.com/allbin/balancelog/internal/tui/components"
	"github.com/allbin/balancelog/internal/tui/models"
	"github.com/allbin/balancelog/recordlog"
	"github.com/allbin/balancelog/registry"
	"github.com/allbin/balancelog/serial"
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record measurements from a balance to a CSV log",
	Long: `Find the connected balances, pick one and record every frame it streams
to "<label> YYYY-mm-dd_HH-MM-SS.csv" in the output directory.

With a single balance connected it is selected automatically; with several a
picker is shown unless --device names one by port, serial number or label.
Recording runs until interrupted (Ctrl+C). The balance is told to stop
streaming on exit and its entry in the lock file is released.

Examples:
  balancelog record
  balancelog record --interval 60
  balancelog record --device C105085062 --output-dir /data/balances`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		device, _ := cmd.Flags().GetString("device")

		a, err := loadApp(v)
		if err != nil {
			return err
		}
		defer a.Close()

		return runRecord(cmd, a, device)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)

	f := recordCmd.Flags()
	f.IntP(config.KeyInterval, "i", 600, "Seconds between measurements (1-3600)")
	f.StringP(config.KeyOutputDir, "o", ".", "Directory the CSV log is written to")
	f.Duration(config.KeyIdleGap, balance.DefaultIdleGap, "Silence that ends a frame")
	f.Duration(config.KeySettle, balance.DefaultSettle, "Pause after stopping the stream before starting it again")
	f.String(config.KeyDateOrder, "mdy", "Order of the balance's date fields: mdy or dmy")
	f.String(config.KeyTimezone, "Local", "Time zone of the balance's clock")
	f.StringP("device", "d", "", "Balance to record from: port, serial number or label")

	bindFlags(f, config.KeyInterval, config.KeyOutputDir, config.KeyIdleGap, config.KeySettle,
		config.KeyDateOrder, config.KeyTimezone)
}

func runRecord(cmd *cobra.Command, a *app, device string) error {
	cfg := a.cfg
	out := cmd.OutOrStdout()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	reg, err := a.registry()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seconds between measurements: %d\n", cfg.Interval)
	balances, err := reg.Discover(ctx)
	if errors.Is(err, registry.ErrNoDevices) {
		fmt.Fprintln(out, "  - No balances connected - ")
		return err
	}
	if err != nil {
		return err
	}

	chosen, err := selectBalance(balances, device, func(ds []registry.Descriptor) (registry.Descriptor, error) {
		return models.Pick(ds, cmd.InOrStdin(), out)
	})
	if err != nil {
		return err
	}
	log := a.log.WithField("device", chosen.Path)
	fmt.Fprintf(out, "%s balance selected\n", chosen.Label)

	lease, err := a.locks().Acquire(chosen.Path)
	if err != nil {
		return fmt.Errorf("locking %s: %w", chosen.Path, err)
	}
	defer releaseLease(log, lease)

	port, err := serial.Open(chosen.Path, a.portOptions()...)
	if err != nil {
		return fmt.Errorf("opening %s: %w", chosen.Path, err)
	}
	defer port.Close()

	started := time.Now()
	sink, path, err := recordlog.Create(cfg.OutputDir, chosen.Label, started)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Error("closing log")
		}
	}()

	status := components.NewStatusLine(chosen.Label)
	session := balance.NewSession(port, chosen.Path,
		balance.WithDecoder(balance.NewDecoder(cfg.DateOrder, cfg.Location)),
		balance.WithIdleGap(cfg.IdleGap),
		balance.WithSettle(cfg.Settle),
		balance.WithLogger(a.log),
		balance.WithObserver(func(rec balance.Record) {
			fmt.Fprintln(out, status.Render(rec))
		}),
	)

	if err := session.StartStream(ctx, cfg.Interval); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	fmt.Fprintln(out, components.Banner(chosen.Label, chosen.Identity, chosen.Path, path, cfg.Interval))
	log.WithFields(logrus.Fields{
		"identity": chosen.Identity,
		"interval": cfg.Interval,
		"log":      path,
	}).Info("recording started")

	runErr := session.Run(ctx, sink)

	fmt.Fprintln(out)
	fmt.Fprintln(out, components.Summary(session.Stats().Snapshot(), sink.Rows(), time.Since(started)))
	if runErr != nil {
		return fmt.Errorf("recording from %s: %w", chosen.Path, runErr)
	}
	return nil
}
