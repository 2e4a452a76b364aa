package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/serial"
)

type fakeProber struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
	block   bool
}

func (p *fakeProber) Identify(ctx context.Context, path string) (string, error) {
	p.calls = append(p.calls, path)
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err, ok := p.errs[path]; ok {
		return "", err
	}
	return p.replies[path], nil
}

type fakeLocks map[string]bool

func (l fakeLocks) IsLocked(path string) (bool, error) { return l[path], nil }

func prolific(path string) serial.PortInfo {
	return serial.PortInfo{Path: path, VendorID: "067b", ProductID: "2303", Product: "USB-Serial Controller"}
}

func ports(infos ...serial.PortInfo) Enumerator {
	return EnumeratorFunc(func() ([]serial.PortInfo, error) { return infos, nil })
}

func TestEnumerateFiltersAdapters(t *testing.T) {
	r := New(WithEnumerator(ports(
		prolific("/dev/ttyUSB1"),
		serial.PortInfo{Path: "/dev/ttyACM0", VendorID: "2341", ProductID: "0043"},
		serial.PortInfo{Path: "/dev/ttyS0"},
		prolific("/dev/ttyUSB0"),
		serial.PortInfo{Path: "/dev/ttyUSB2", VendorID: "0x067B", ProductID: "0x2303"},
	)))

	got, err := r.Enumerate()
	require.NoError(t, err)

	var paths []string
	for _, d := range got {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyUSB2"}, paths)
	assert.Equal(t, "067b:2303", got[0].USBID())
	assert.False(t, got[0].Identified)
}

func TestEnumerateCustomAdapters(t *testing.T) {
	r := New(
		WithEnumerator(ports(prolific("/dev/ttyUSB0"), serial.PortInfo{Path: "/dev/ttyUSB1", VendorID: "0403", ProductID: "6001"})),
		WithAdapters([]string{"0403:6001"}),
	)

	got, err := r.Enumerate()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/dev/ttyUSB1", got[0].Path)
}

func TestEnumerateError(t *testing.T) {
	boom := errors.New("sysfs unavailable")
	r := New(WithEnumerator(EnumeratorFunc(func() ([]serial.PortInfo, error) { return nil, boom })))

	_, err := r.Enumerate()
	assert.ErrorIs(t, err, boom)
}

func TestIdentify(t *testing.T) {
	prober := &fakeProber{
		replies: map[string]string{"/dev/ttyUSB0": "C052778878", "/dev/ttyUSB1": "C999"},
		errs: map[string]error{
			"/dev/ttyUSB2": balance.ErrNoIdentity,
			"/dev/ttyUSB3": serial.ErrPermissionDenied,
		},
	}
	r := New(WithProber(prober))

	d, err := r.Identify(context.Background(), Descriptor{Path: "/dev/ttyUSB0"})
	require.NoError(t, err)
	assert.True(t, d.Identified)
	assert.Equal(t, "C052778878", d.Identity)
	assert.Equal(t, "Dweight Johnson", d.Label)

	d, err = r.Identify(context.Background(), Descriptor{Path: "/dev/ttyUSB1"})
	require.NoError(t, err)
	assert.Equal(t, UnknownLabel, d.Label)

	d, err = r.Identify(context.Background(), Descriptor{Path: "/dev/ttyUSB2"})
	require.NoError(t, err)
	assert.False(t, d.Identified)
	assert.Equal(t, UnknownLabel, d.Label)

	_, err = r.Identify(context.Background(), Descriptor{Path: "/dev/ttyUSB3"})
	assert.ErrorIs(t, err, serial.ErrPermissionDenied)
}

func TestIdentifyTimeout(t *testing.T) {
	r := New(WithProber(&fakeProber{block: true}), WithIdentifyTimeout(20*time.Millisecond))

	_, err := r.Identify(context.Background(), Descriptor{Path: "/dev/ttyUSB0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reply")
}

func TestDiscover(t *testing.T) {
	prober := &fakeProber{
		replies: map[string]string{
			"/dev/ttyUSB0": "C000000001",
			"/dev/ttyUSB1": "C105085062",
			"/dev/ttyUSB3": "C052778878",
		},
		errs: map[string]error{
			"/dev/ttyUSB2": errors.New("input/output error"),
			"/dev/ttyUSB4": balance.ErrNoIdentity,
		},
	}
	r := New(
		WithEnumerator(ports(
			prolific("/dev/ttyUSB0"), prolific("/dev/ttyUSB1"), prolific("/dev/ttyUSB2"),
			prolific("/dev/ttyUSB3"), prolific("/dev/ttyUSB4"), prolific("/dev/ttyUSB5"),
		)),
		WithProber(prober),
		WithLocks(fakeLocks{"/dev/ttyUSB5": true}),
	)

	got, err := r.Discover(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, d := range got {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"/dev/ttyUSB1", "/dev/ttyUSB3", "/dev/ttyUSB0", "/dev/ttyUSB4"}, paths)
	assert.NotContains(t, prober.calls, "/dev/ttyUSB5", "locked ports are never opened")
	assert.Equal(t, "Mass Damon", got[0].Label)
	assert.False(t, got[3].Identified)
}

func TestDiscoverNoDevices(t *testing.T) {
	r := New(WithEnumerator(ports()))
	_, err := r.Discover(context.Background())
	assert.ErrorIs(t, err, ErrNoDevices)

	r = New(
		WithEnumerator(ports(prolific("/dev/ttyUSB0"))),
		WithLocks(fakeLocks{"/dev/ttyUSB0": true}),
	)
	_, err = r.Discover(context.Background())
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestDiscoverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(WithEnumerator(ports(prolific("/dev/ttyUSB0"))), WithProber(&fakeProber{}))
	_, err := r.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank(t *testing.T) {
	ds := []Descriptor{
		{Path: "/dev/ttyUSB2", Label: UnknownLabel},
		{Path: "/dev/ttyUSB3", Label: "Mass Damon"},
		{Path: "/dev/ttyUSB0", Label: UnknownLabel},
		{Path: "/dev/ttyUSB1", Label: "Dweight Johnson"},
	}
	Rank(ds)

	assert.Equal(t, "/dev/ttyUSB1", ds[0].Path)
	assert.Equal(t, "/dev/ttyUSB3", ds[1].Path)
	assert.Equal(t, "/dev/ttyUSB0", ds[2].Path)
	assert.Equal(t, "/dev/ttyUSB2", ds[3].Path)
}

func TestFind(t *testing.T) {
	ds := []Descriptor{
		{Path: "/dev/ttyUSB0", Identity: "C052778878", Identified: true, Label: "Dweight Johnson"},
		{Path: "/dev/ttyUSB1", Identity: "C1", Identified: true, Label: UnknownLabel},
		{Path: "/dev/ttyUSB2", Label: UnknownLabel},
	}

	d, err := Find(ds, "/dev/ttyUSB2")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB2", d.Path)

	d, err = Find(ds, "C1")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", d.Path)

	d, err = Find(ds, "dweight johnson")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", d.Path)

	_, err = Find(ds, UnknownLabel)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Find(append(ds, Descriptor{Path: "/dev/ttyUSB9", Label: "Dweight Johnson"}), "Dweight Johnson")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestParseAdapter(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"067b:2303", "067b:2303", false},
		{"067B:2303", "067b:2303", false},
		{"0x067b:0x2303", "067b:2303", false},
		{"67b:2303", "067b:2303", false},
		{"067b2303", "", true},
		{"zzzz:2303", "", true},
		{"12345:2303", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAdapter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("C111: Scale Sagan\nC105085062: Renamed\n\"\": ignored\n"), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, "Scale Sagan", labels.Lookup("C111"))
	assert.Equal(t, "Renamed", labels.Lookup("C105085062"))
	assert.Equal(t, "Dweight Johnson", labels.Lookup("C052778878"))
	assert.Equal(t, "Sylvester Scalelone", labels.Lookup("C???"))
	assert.Equal(t, UnknownLabel, labels.Lookup(""))

	builtin, err := LoadLabels("")
	require.NoError(t, err)
	assert.Equal(t, BuiltinLabels(), builtin)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- a\n- b\n"), 0o644))
	_, err = LoadLabels(bad)
	assert.Error(t, err)
}

func TestLabelsClone(t *testing.T) {
	l := BuiltinLabels()
	c := l.Clone()
	c["C1"] = "x"
	assert.NotContains(t, l, "C1")
}
