package balance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSettle is how long the balance gets to go quiet after a stop command
const DefaultSettle = 200 * time.Millisecond

// Sink receives finished records, e.g. the CSV log
type Sink interface {
	Write(Record) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Record) error

// Write implements Sink
func (f SinkFunc) Write(rec Record) error { return f(rec) }

// inputFlusher is implemented by serial.Port
type inputFlusher interface {
	FlushInput() error
}

// Session owns one open connection to a balance for the length of a run.
// It is not safe for concurrent use, except for Stats.
type Session struct {
	port     io.ReadWriter
	device   string
	frames   *FrameReader
	decoder  *Decoder
	settle   time.Duration
	log      logrus.FieldLogger
	observer func(Record)
	now      func() time.Time

	stats Stats

	// start reference for elapsed time, set by the first timestamped frame
	started     bool
	startDevice float64
	startHost   time.Time
}

// Option configures a Session
type Option func(*Session)

// WithDecoder replaces the default month/day/year, local-time decoder
func WithDecoder(d *Decoder) Option {
	return func(s *Session) { s.decoder = d }
}

// WithIdleGap sets the silence that ends a frame
func WithIdleGap(gap time.Duration) Option {
	return func(s *Session) { s.frames.idleGap = gap }
}

// WithSettle sets the pause after a stop command
func WithSettle(d time.Duration) Option {
	return func(s *Session) { s.settle = d }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithObserver registers a callback that sees every record before the sink
func WithObserver(fn func(Record)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithClock overrides the wall clock used for arrival times
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
		s.frames.now = now
	}
}

// NewSession wraps an open port. device is only used for logging.
func NewSession(port io.ReadWriter, device string, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Session{
		port:    port,
		device:  device,
		frames:  NewFrameReader(port, DefaultIdleGap),
		decoder: NewDecoder(MonthDayYear, time.Local),
		settle:  DefaultSettle,
		log:     discard,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("device", device)
	return s
}

// Device returns the device path the session was opened for
func (s *Session) Device() string {
	return s.device
}

// Stats returns the session counters
func (s *Session) Stats() *Stats {
	return &s.stats
}

// SendCommand writes text plus CR LF. Nothing is read back.
func (s *Session) SendCommand(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := 0; i < len(text); i++ {
		if text[i] > 0x7f {
			return fmt.Errorf("%w: %q", ErrNonASCII, text)
		}
	}

	s.log.WithField("command", text).Debug("sending command")
	if _, err := s.port.Write([]byte(text + LineTerminator)); err != nil {
		return fmt.Errorf("%w: sending %q: %w", ErrSerialFault, text, err)
	}
	return nil
}

// StopStream tells the balance to stop printing frames
func (s *Session) StopStream(ctx context.Context) error {
	return s.SendCommand(ctx, CommandStopStream)
}

// StartStream stops any running stream, waits for the line to settle and
// starts a new stream printing a frame every interval seconds.
func (s *Session) StartStream(ctx context.Context, interval int) error {
	cmd, err := StartStreamCommand(interval)
	if err != nil {
		return err
	}
	if err := s.quiesce(ctx); err != nil {
		return err
	}

	s.log.WithField("interval", interval).Info("starting measurement stream")
	return s.SendCommand(ctx, cmd)
}

// quiesce stops the stream and throws away whatever was already in flight
func (s *Session) quiesce(ctx context.Context) error {
	if err := s.StopStream(ctx); err != nil {
		return err
	}
	if err := sleepWithContext(ctx, s.settle); err != nil {
		return err
	}
	if f, ok := s.port.(inputFlusher); ok {
		if err := f.FlushInput(); err != nil {
			s.log.WithError(err).Debug("flushing input failed")
		}
	}
	return nil
}

// ReadFrame returns the lines of the next frame
func (s *Session) ReadFrame(ctx context.Context) ([]string, error) {
	lines, err := s.frames.ReadFrame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: reading frame: %w", ErrSerialFault, err)
	}
	return lines, nil
}

// Identify asks the balance for its serial number. A reply without an
// "SNR: " line yields ErrNoIdentity.
func (s *Session) Identify(ctx context.Context) (string, error) {
	if err := s.quiesce(ctx); err != nil {
		return "", err
	}
	if err := s.SendCommand(ctx, CommandIdentity); err != nil {
		return "", err
	}

	lines, err := s.ReadFrame(ctx)
	if err != nil {
		return "", err
	}

	identity := ""
	found := false
	for _, line := range lines {
		if strings.HasPrefix(line, identityReply) {
			identity = strings.TrimSpace(strings.TrimPrefix(line, identityReply))
			found = true
		}
	}
	if !found {
		return "", ErrNoIdentity
	}
	return identity, nil
}

// Run pulls frames until ctx is cancelled or the serial line fails. Every
// frame, complete or not, becomes exactly one record handed to sink.
// Cancellation is a normal stop and returns nil.
func (s *Session) Run(ctx context.Context, sink Sink) error {
	for {
		lines, err := s.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.stopOnExit()
				return nil
			}
			return err
		}

		rec := s.decoder.Decode(lines)
		arrived := s.now()
		s.stamp(&rec, arrived)
		s.stats.observe(rec, arrived)

		if rec.Error {
			s.log.WithField("lines", lines).Warn("incomplete frame")
		} else {
			s.log.WithField("lines", lines).Debug("frame decoded")
		}

		if s.observer != nil {
			s.observer(rec)
		}
		if err := sink.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
}

// stamp sets the elapsed time. Timestamped frames are measured on the
// balance's clock; frames without a timestamp fall back to host arrival time.
func (s *Session) stamp(rec *Record, arrived time.Time) {
	if rec.UnixTime != nil {
		if !s.started {
			s.started = true
			s.startDevice = *rec.UnixTime
			s.startHost = arrived
		}
		rec.Elapsed = float64Ptr(*rec.UnixTime - s.startDevice)
		return
	}
	if s.started {
		rec.Elapsed = float64Ptr(arrived.Sub(s.startHost).Seconds())
	}
}

// stopOnExit leaves the balance quiet after a cancelled run
func (s *Session) stopOnExit() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.StopStream(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.log.WithError(err).Debug("stopping stream on exit failed")
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
