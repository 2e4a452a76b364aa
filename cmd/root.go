/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/allbin/balancelog/internal/config"
	"github.com/allbin/balancelog/internal/logging"
	"github.com/allbin/balancelog/lock"
	"github.com/allbin/balancelog/registry"
	"github.com/allbin/balancelog/serial"
)

var (
	cfgFile string
	v       = config.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "balancelog",
	Short: "Record mass measurements from laboratory balances",
	Long: `balancelog records the measurements a laboratory balance streams over its
USB serial cable into a CSV log, one row per frame.

Settings come from flags, BALANCELOG_* environment variables (BALANCELOG_OUTPUT_DIR,
BALANCELOG_INTERVAL, ...) and balancelog.yaml in the user config directory.

Examples:
  balancelog record
  balancelog record --interval 60 --output-dir ~/Desktop
  balancelog record --device "Mass Damon"
  balancelog balances`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, cfgFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/balancelog/balancelog.yaml)")

	pf.String(config.KeyLogLevel, "info", "Log level: trace, debug, info, warn, error")
	pf.String(config.KeyLogFormat, "text", "Log format: text, json")
	pf.String(config.KeyLogFile, "", "Write logs to this file instead of stderr")
	pf.String(config.KeyLockFile, "", "Lock file shared by all recorders (default <user config dir>/balancelog/devices.lock)")
	pf.String(config.KeyLabelsFile, "", "YAML file mapping balance serial numbers to labels")
	pf.StringSlice(config.KeyAdapters, registry.DefaultAdapters, "USB adapter ids (vvvv:pppp) balances are connected through")
	pf.IntP(config.KeyBaud, "b", 9600, "Baud rate")
	pf.Duration(config.KeyReadTimeout, v.GetDuration(config.KeyReadTimeout), "Serial read timeout")
	pf.Bool(config.KeySyncWrite, false, "Block on every command until the adapter has sent it (O_SYNC)")
	pf.Duration(config.KeyIdentifyTimeout, v.GetDuration(config.KeyIdentifyTimeout), "How long to wait for a balance to report its serial number")

	bindFlags(pf, config.KeyLogLevel, config.KeyLogFormat, config.KeyLogFile, config.KeyLockFile,
		config.KeyLabelsFile, config.KeyAdapters, config.KeyBaud, config.KeyReadTimeout, config.KeySyncWrite, config.KeyIdentifyTimeout)
}

// bindFlags binds flags to the viper keys of the same name
func bindFlags(fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", key, err))
		}
	}
}

// app is what every command needs once the configuration is resolved
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	closeLog func() error
}

func loadApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, closeLog: closeLog}, nil
}

func (a *app) Close() {
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}

func (a *app) locks() *lock.File {
	return lock.New(a.cfg.LockFile, lock.WithLogger(a.log))
}

// portOptions are the serial settings every command opens a balance with
func (a *app) portOptions() []serial.Option {
	opts := []serial.Option{
		serial.WithBaudRate(a.cfg.Baud),
		serial.WithReadTimeout(a.cfg.ReadTimeout),
	}
	if a.cfg.SyncWrite {
		opts = append(opts, serial.WithSyncWrite())
	}
	return opts
}

func (a *app) registry() (*registry.Registry, error) {
	labels, err := registry.LoadLabels(a.cfg.LabelsFile)
	if err != nil {
		return nil, err
	}

	prober := &registry.SerialProber{
		Baud:        a.cfg.Baud,
		ReadTimeout: a.cfg.ReadTimeout,
		SyncWrite:   a.cfg.SyncWrite,
		Settle:      a.cfg.Settle,
		IdleGap:     a.cfg.IdleGap,
		Log:         a.log,
	}

	return registry.New(
		registry.WithLabels(labels),
		registry.WithAdapters(a.cfg.Adapters),
		registry.WithLocks(a.locks()),
		registry.WithProber(prober),
		registry.WithIdentifyTimeout(a.cfg.IdentifyTimeout),
		registry.WithLogger(a.log),
	), nil
}
