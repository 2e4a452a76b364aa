package registry

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/serial"
)

// SerialProber opens the port and runs the PSN handshake. Zero fields take
// the balance defaults: 9600 baud, 100ms read timeout, 200ms settle and a
// 100ms idle gap.
type SerialProber struct {
	Baud        int
	ReadTimeout time.Duration
	SyncWrite   bool
	Settle      time.Duration
	IdleGap     time.Duration
	Log         logrus.FieldLogger
}

// Identify implements Prober
func (p *SerialProber) Identify(ctx context.Context, path string) (string, error) {
	opts := []serial.Option{}
	if p.Baud > 0 {
		opts = append(opts, serial.WithBaudRate(p.Baud))
	}
	if p.ReadTimeout > 0 {
		opts = append(opts, serial.WithReadTimeout(p.ReadTimeout))
	}
	if p.SyncWrite {
		opts = append(opts, serial.WithSyncWrite())
	}

	port, err := serial.Open(path, opts...)
	if err != nil {
		return "", err
	}
	defer port.Close()

	sessionOpts := []balance.Option{}
	if p.Settle > 0 {
		sessionOpts = append(sessionOpts, balance.WithSettle(p.Settle))
	}
	if p.IdleGap > 0 {
		sessionOpts = append(sessionOpts, balance.WithIdleGap(p.IdleGap))
	}
	if p.Log != nil {
		sessionOpts = append(sessionOpts, balance.WithLogger(p.Log))
	}

	s := balance.NewSession(port, path, sessionOpts...)
	return s.Identify(ctx)
}

var _ Prober = (*SerialProber)(nil)

// discardLogger is used when no logger was configured
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
