// Package lock keeps two processes from recording from the same balance.
//
// The lock file lists one canonical device path per line. Every read-modify-write
// holds an advisory lock on the file itself, so concurrent acquire and release
// calls never lose each other's lines. Checking the file and later acquiring an
// entry are separate steps, so a caller can still race another process between
// IsLocked and Acquire; Acquire reports that race as ErrBusy.
package lock

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when another process holds the device
var ErrBusy = errors.New("device is locked by another process")

// DefaultPath returns <user config dir>/balancelog/devices.lock
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "balancelog", "devices.lock"), nil
}

// Canonical resolves symlinks and cleans the path so that /dev/serial/by-id
// links and the ttyUSB node they point at share one entry. Paths that cannot
// be resolved, e.g. an unplugged device, are only cleaned.
func Canonical(device string) string {
	if abs, err := filepath.Abs(device); err == nil {
		device = abs
	}
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		device = resolved
	}
	return filepath.Clean(device)
}

// File is a lock file shared by all balancelog processes on the host
type File struct {
	path string
	log  logrus.FieldLogger

	mu   sync.Mutex
	held map[string]*Lease
}

// Option configures a File
type Option func(*File)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *File) { f.log = l }
}

// New returns a lock file at path. The file and its directory are created on
// the first Acquire.
func New(path string, opts ...Option) *File {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	f := &File{
		path: path,
		log:  discard,
		held: make(map[string]*Lease),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the lock file location
func (f *File) Path() string {
	return f.path
}

// Entries returns the locked device paths in file order
func (f *File) Entries() ([]string, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	defer file.Close()

	if err := lockShared(file); err != nil {
		return nil, fmt.Errorf("locking %s: %w", f.path, err)
	}
	defer unlock(file)

	return readEntries(file)
}

// IsLocked reports whether device has an entry in the lock file
func (f *File) IsLocked(device string) (bool, error) {
	entries, err := f.Entries()
	if err != nil {
		return false, err
	}
	return indexOf(entries, Canonical(device)) >= 0, nil
}

// Acquire adds device to the lock file. If this File already holds the device,
// the existing lease is returned. An entry written by anyone else yields ErrBusy.
func (f *File) Acquire(device string) (*Lease, error) {
	path := Canonical(device)

	f.mu.Lock()
	defer f.mu.Unlock()

	if lease, ok := f.held[path]; ok {
		return lease, nil
	}

	err := f.update(func(entries []string) ([]string, error) {
		if indexOf(entries, path) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrBusy, path)
		}
		return append(entries, path), nil
	})
	if err != nil {
		return nil, err
	}

	lease := &Lease{file: f, path: path}
	f.held[path] = lease
	f.log.WithField("device", path).Debug("device locked")
	return lease, nil
}

// Release removes the first entry for device. A missing entry is not an error.
// It also clears entries left behind by a crashed process.
func (f *File) Release(device string) error {
	path := Canonical(device)

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.release(path)
}

func (f *File) release(path string) error {
	delete(f.held, path)

	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	err := f.update(func(entries []string) ([]string, error) {
		i := indexOf(entries, path)
		if i < 0 {
			return entries, nil
		}
		return append(entries[:i], entries[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	f.log.WithField("device", path).Debug("device unlocked")
	return nil
}

// update rewrites the lock file in place while holding an exclusive lock on it
func (f *File) update(fn func([]string) ([]string, error)) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer file.Close()

	if err := lockExclusive(file); err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	defer unlock(file)

	entries, err := readEntries(file)
	if err != nil {
		return err
	}

	updated, err := fn(entries)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, e := range updated {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncating lock file: %w", err)
	}
	if _, err := file.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing lock file: %w", err)
	}
	return nil
}

func readEntries(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	return entries, nil
}

func indexOf(entries []string, path string) int {
	for i, e := range entries {
		if e == path {
			return i
		}
	}
	return -1
}

// Lease is one held entry. Release it with defer right after Acquire.
type Lease struct {
	file *File
	path string

	once sync.Once
	err  error
}

// Path returns the canonical device path the lease covers
func (l *Lease) Path() string {
	return l.path
}

// Release removes the entry. Calling it again returns the first result.
// A lease already ended by File.Release leaves the file alone, so it never
// removes the entry of a later holder.
func (l *Lease) Release() error {
	l.once.Do(func() {
		l.file.mu.Lock()
		defer l.file.mu.Unlock()
		if l.file.held[l.path] != l {
			return
		}
		l.err = l.file.release(l.path)
	})
	return l.err
}
