package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/balancelog/registry"
)

func noPick(t *testing.T) pickFunc {
	return func([]registry.Descriptor) (registry.Descriptor, error) {
		t.Fatal("picker must not be shown")
		return registry.Descriptor{}, nil
	}
}

func TestSelectBalance(t *testing.T) {
	one := []registry.Descriptor{{Path: "/dev/ttyUSB0", Label: "Mass Damon"}}
	two := append(one, registry.Descriptor{Path: "/dev/ttyUSB1", Identity: "C052778878", Identified: true, Label: "Dweight Johnson"})

	_, err := selectBalance(nil, "", noPick(t))
	assert.ErrorIs(t, err, registry.ErrNoDevices)

	d, err := selectBalance(one, "", noPick(t))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", d.Path)

	d, err = selectBalance(two, "C052778878", noPick(t))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", d.Path)

	_, err = selectBalance(two, "/dev/ttyUSB7", noPick(t))
	assert.ErrorIs(t, err, registry.ErrNotFound)

	picked := false
	d, err = selectBalance(two, "", func(ds []registry.Descriptor) (registry.Descriptor, error) {
		picked = true
		return ds[1], nil
	})
	require.NoError(t, err)
	assert.True(t, picked)
	assert.Equal(t, "Dweight Johnson", d.Label)

	cancelled := errors.New("cancelled")
	_, err = selectBalance(two, "", func([]registry.Descriptor) (registry.Descriptor, error) {
		return registry.Descriptor{}, cancelled
	})
	assert.ErrorIs(t, err, cancelled)
}

func TestSelectBalanceBySymlink(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "ttyUSB0")
	require.NoError(t, os.WriteFile(dev, nil, 0o644))
	link := filepath.Join(dir, "usb-Prolific-if00-port0")
	require.NoError(t, os.Symlink(dev, link))

	balances := []registry.Descriptor{{Path: dev}, {Path: "/dev/ttyUSB9"}}

	d, err := selectBalance(balances, link, noPick(t))
	require.NoError(t, err)
	assert.Equal(t, dev, d.Path)
}
