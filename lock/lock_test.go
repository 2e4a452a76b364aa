package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state", "devices.lock"))
}

func fakeDevice(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestAcquireAndRelease(t *testing.T) {
	f := newTestFile(t)
	dev := fakeDevice(t, "ttyUSB0")

	locked, err := f.IsLocked(dev)
	require.NoError(t, err)
	assert.False(t, locked)

	lease, err := f.Acquire(dev)
	require.NoError(t, err)
	assert.Equal(t, Canonical(dev), lease.Path())

	locked, err = f.IsLocked(dev)
	require.NoError(t, err)
	assert.True(t, locked)

	content, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, Canonical(dev)+"\n", string(content))

	require.NoError(t, lease.Release())
	require.NoError(t, lease.Release())

	locked, err = f.IsLocked(dev)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestAcquireTwiceReturnsSameLease(t *testing.T) {
	f := newTestFile(t)
	dev := fakeDevice(t, "ttyUSB0")

	first, err := f.Acquire(dev)
	require.NoError(t, err)
	second, err := f.Acquire(dev)
	require.NoError(t, err)
	assert.Same(t, first, second)

	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStaleLeaseKeepsNewHoldersEntry(t *testing.T) {
	f := newTestFile(t)
	dev := fakeDevice(t, "ttyUSB0")

	old, err := f.Acquire(dev)
	require.NoError(t, err)
	require.NoError(t, f.Release(dev))

	current, err := f.Acquire(dev)
	require.NoError(t, err)
	assert.NotSame(t, old, current)

	require.NoError(t, old.Release())

	locked, err := f.IsLocked(dev)
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, current.Release())
	locked, err = f.IsLocked(dev)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestAcquireHeldByOtherProcess(t *testing.T) {
	dir := t.TempDir()
	ours := New(filepath.Join(dir, "devices.lock"))
	theirs := New(filepath.Join(dir, "devices.lock"))
	dev := fakeDevice(t, "ttyUSB0")

	lease, err := theirs.Acquire(dev)
	require.NoError(t, err)

	_, err = ours.Acquire(dev)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, lease.Release())
	_, err = ours.Acquire(dev)
	require.NoError(t, err)
}

func TestExactLineMatch(t *testing.T) {
	f := newTestFile(t)
	dir := t.TempDir()
	short := filepath.Join(dir, "ttyUSB1")
	long := filepath.Join(dir, "ttyUSB10")

	_, err := f.Acquire(long)
	require.NoError(t, err)

	locked, err := f.IsLocked(short)
	require.NoError(t, err)
	assert.False(t, locked, "a prefix of a locked path is not locked")

	_, err = f.Acquire(short)
	require.NoError(t, err)
}

func TestSymlinkSharesEntry(t *testing.T) {
	f := newTestFile(t)
	dev := fakeDevice(t, "ttyUSB0")
	link := filepath.Join(t.TempDir(), "usb-Prolific_Technology_Inc._USB-Serial_Controller-if00-port0")
	require.NoError(t, os.Symlink(dev, link))

	_, err := f.Acquire(link)
	require.NoError(t, err)

	locked, err := f.IsLocked(dev)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestReleaseRemovesFirstMatchOnly(t *testing.T) {
	f := newTestFile(t)
	dev := fakeDevice(t, "ttyUSB0")
	canon := Canonical(dev)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte(canon+"\n/dev/ttyUSB9\n"+canon+"\n"), 0o644))

	require.NoError(t, f.Release(dev))

	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB9", canon}, entries)
}

func TestReleaseMissing(t *testing.T) {
	f := newTestFile(t)

	require.NoError(t, f.Release("/dev/ttyUSB0"))
	_, err := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err), "release must not create the lock file")

	_, err = f.Acquire("/dev/ttyUSB1")
	require.NoError(t, err)
	require.NoError(t, f.Release("/dev/ttyUSB0"))

	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB1"}, entries)
}

func TestEntriesIgnoresBlankLines(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte("\n/dev/ttyUSB0\n  \n/dev/ttyUSB1  \n"), 0o644))

	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, entries)
}

func TestEntriesMissingFile(t *testing.T) {
	entries, err := newTestFile(t).Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentAcquireKeepsEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.lock")

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := New(path).Acquire(fmt.Sprintf("/dev/ttyUSB%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := New(path).Entries()
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "/dev/ttyUSB0", Canonical("/dev/../dev/ttyUSB0"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "nope"), Canonical("nope"))
}

func TestDefaultPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "balancelog", "devices.lock"), path)
}
