// Package registry finds the balances attached to this host.
//
// Discovery lists serial ports, keeps the USB serial adapters balances are
// connected through, skips ports another recorder has locked, asks each
// remaining balance for its serial number and ranks the result for display.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/allbin/balancelog/balance"
	"github.com/allbin/balancelog/serial"
)

var (
	// ErrNoDevices is returned by Discover when no usable balance was found
	ErrNoDevices = errors.New("no balances connected")

	// ErrNotFound is returned by Find when nothing matches the query
	ErrNotFound = errors.New("no matching balance")

	// ErrAmbiguous is returned by Find when more than one balance matches
	ErrAmbiguous = errors.New("more than one balance matches")
)

// DefaultAdapters lists the USB serial cables balances ship with (Prolific PL2303)
var DefaultAdapters = []string{"067b:2303"}

// DefaultIdentifyTimeout bounds the identity handshake with one port
const DefaultIdentifyTimeout = 2 * time.Second

var adapterPattern = regexp.MustCompile(`^[0-9a-f]{4}:[0-9a-f]{4}$`)

// ParseAdapter normalises a "vvvv:pppp" USB id
func ParseAdapter(s string) (string, error) {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return "", fmt.Errorf("invalid adapter %q (want vvvv:pppp)", s)
	}
	id := serial.FormatUSBID(vid, pid)
	if !adapterPattern.MatchString(id) {
		return "", fmt.Errorf("invalid adapter %q (want vvvv:pppp)", s)
	}
	return id, nil
}

// Descriptor is one candidate balance
type Descriptor struct {
	Path      string
	VendorID  string
	ProductID string
	// Serial and Product come from the USB adapter, not the balance
	Serial  string
	Product string

	// Identity is the balance's own serial number, set once it answered PSN
	Identity   string
	Identified bool
	Label      string
}

// USBID returns the adapter's "vvvv:pppp"
func (d Descriptor) USBID() string {
	return serial.FormatUSBID(d.VendorID, d.ProductID)
}

// Labelled reports whether the balance has a known label
func (d Descriptor) Labelled() bool {
	return d.Label != "" && d.Label != UnknownLabel
}

// Enumerator lists serial ports with their USB identity
type Enumerator interface {
	Ports() ([]serial.PortInfo, error)
}

// EnumeratorFunc adapts a function to Enumerator
type EnumeratorFunc func() ([]serial.PortInfo, error)

// Ports implements Enumerator
func (f EnumeratorFunc) Ports() ([]serial.PortInfo, error) { return f() }

// Prober asks the balance on a port for its identity
type Prober interface {
	Identify(ctx context.Context, path string) (string, error)
}

// LockChecker reports ports that another recorder holds
type LockChecker interface {
	IsLocked(path string) (bool, error)
}

// Registry discovers balances
type Registry struct {
	enumerator      Enumerator
	prober          Prober
	locks           LockChecker
	labels          Labels
	adapters        map[string]bool
	identifyTimeout time.Duration
	log             logrus.FieldLogger
}

// Option configures a Registry
type Option func(*Registry)

// WithEnumerator replaces the system port listing
func WithEnumerator(e Enumerator) Option {
	return func(r *Registry) { r.enumerator = e }
}

// WithProber replaces the serial identity probe
func WithProber(p Prober) Option {
	return func(r *Registry) { r.prober = p }
}

// WithLocks skips ports held in the lock file
func WithLocks(l LockChecker) Option {
	return func(r *Registry) { r.locks = l }
}

// WithLabels sets the identity to label table
func WithLabels(l Labels) Option {
	return func(r *Registry) { r.labels = l }
}

// WithAdapters sets the accepted "vvvv:pppp" USB ids. Invalid ids are ignored;
// validate them with ParseAdapter first.
func WithAdapters(ids []string) Option {
	return func(r *Registry) {
		r.adapters = make(map[string]bool, len(ids))
		for _, id := range ids {
			if norm, err := ParseAdapter(id); err == nil {
				r.adapters[norm] = true
			}
		}
	}
}

// WithIdentifyTimeout bounds each identity handshake
func WithIdentifyTimeout(d time.Duration) Option {
	return func(r *Registry) { r.identifyTimeout = d }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = l }
}

// New returns a registry using the system port list and a 9600 baud probe
func New(opts ...Option) *Registry {
	r := &Registry{
		enumerator:      EnumeratorFunc(serial.ListPortInfo),
		prober:          &SerialProber{},
		labels:          BuiltinLabels(),
		identifyTimeout: DefaultIdentifyTimeout,
		log:             discardLogger(),
	}
	WithAdapters(DefaultAdapters)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enumerate returns the ports whose USB adapter is accepted, sorted by path
func (r *Registry) Enumerate() ([]Descriptor, error) {
	ports, err := r.enumerator.Ports()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}

	var found []Descriptor
	for _, p := range ports {
		if !p.IsUSB() || !r.adapters[p.USBID()] {
			continue
		}
		found = append(found, Descriptor{
			Path:      p.Path,
			VendorID:  p.VendorID,
			ProductID: p.ProductID,
			Serial:    p.SerialNumber,
			Product:   p.Product,
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Identify runs the identity handshake on d. A balance that replies without
// an identity line is returned with Identified false and no error; a port
// that fails or stays silent is an error.
func (r *Registry) Identify(ctx context.Context, d Descriptor) (Descriptor, error) {
	probeCtx := ctx
	if r.identifyTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, r.identifyTimeout)
		defer cancel()
	}

	identity, err := r.prober.Identify(probeCtx, d.Path)
	switch {
	case errors.Is(err, balance.ErrNoIdentity):
		d.Identity = ""
		d.Identified = false
	case err != nil:
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return d, fmt.Errorf("identifying %s: no reply within %s", d.Path, r.identifyTimeout)
		}
		return d, fmt.Errorf("identifying %s: %w", d.Path, err)
	default:
		d.Identity = identity
		d.Identified = true
	}

	d.Label = r.labels.Lookup(d.Identity)
	return d, nil
}

// Discover returns the identified, unlocked balances in display order
func (r *Registry) Discover(ctx context.Context) ([]Descriptor, error) {
	candidates, err := r.Enumerate()
	if err != nil {
		return nil, err
	}

	var found []Descriptor
	for _, d := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := r.log.WithField("device", d.Path)

		if r.locks != nil {
			locked, err := r.locks.IsLocked(d.Path)
			if err != nil {
				return nil, fmt.Errorf("checking lock file: %w", err)
			}
			if locked {
				log.Info("device busy, skipping")
				continue
			}
		}

		d, err := r.Identify(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("skipping device")
			continue
		}
		log.WithFields(logrus.Fields{"identity": d.Identity, "label": d.Label}).Debug("balance found")
		found = append(found, d)
	}

	if len(found) == 0 {
		return nil, ErrNoDevices
	}
	Rank(found)
	return found, nil
}

// Rank sorts labelled balances first, then by path
func Rank(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Labelled() != ds[j].Labelled() {
			return ds[i].Labelled()
		}
		return ds[i].Path < ds[j].Path
	})
}

// Find picks the descriptor whose path, identity or label equals query.
// Labels match case-insensitively.
func Find(ds []Descriptor, query string) (Descriptor, error) {
	query = strings.TrimSpace(query)

	var matches []Descriptor
	for _, d := range ds {
		if d.Path == query || (d.Identified && d.Identity == query) ||
			(d.Labelled() && strings.EqualFold(d.Label, query)) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	case 1:
		return matches[0], nil
	default:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrAmbiguous, query)
	}
}
