/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"

	"github.com/allbin/balancelog/lock"
	"github.com/allbin/balancelog/registry"
)

// pickFunc asks the user to choose among several balances
type pickFunc func([]registry.Descriptor) (registry.Descriptor, error)

// selectBalance honours --device, auto-selects a lone balance and otherwise
// defers to pick.
func selectBalance(balances []registry.Descriptor, device string, pick pickFunc) (registry.Descriptor, error) {
	if device != "" {
		d, err := registry.Find(balances, device)
		if !errors.Is(err, registry.ErrNotFound) {
			return d, err
		}
		// --device may be a symlink such as /dev/serial/by-id/...
		want := lock.Canonical(device)
		for _, d := range balances {
			if lock.Canonical(d.Path) == want {
				return d, nil
			}
		}
		return registry.Descriptor{}, err
	}

	switch len(balances) {
	case 0:
		return registry.Descriptor{}, registry.ErrNoDevices
	case 1:
		return balances[0], nil
	default:
		return pick(balances)
	}
}
