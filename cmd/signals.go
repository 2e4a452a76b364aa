/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/allbin/balancelog/lock"
)

// exitSignals end a command through its normal return path, so deferred
// cleanup such as releasing the device lock still runs. SIGHUP covers a
// closed terminal during an unattended run.
var exitSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// signalContext returns a context cancelled by any of exitSignals. Register
// it before acquiring a lease.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, exitSignals...)
}

// releaseLease gives the device back, logging rather than returning failures
// since it runs from defer
func releaseLease(log logrus.FieldLogger, lease *lock.Lease) {
	if err := lease.Release(); err != nil {
		log.WithError(err).WithField("device", lease.Path()).Error("releasing device lock")
	}
}
