//go:build !linux

package serial

import (
	"errors"
	"fmt"
	"sync"

	bugst "go.bug.st/serial"
)

// port wraps a go.bug.st/serial port on platforms without the termios backend
type port struct {
	mu     sync.RWMutex
	p      bugst.Port
	path   string
	closed bool
}

var _ Port = (*port)(nil)

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: bugst.OneStopBit,
		Parity:   bugst.NoParity,
	}
	if config.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	switch config.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	}

	p, err := bugst.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, mapOpenError(err))
	}
	if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &port{p: p, path: device}, nil
}

func mapOpenError(err error) error {
	var perr *bugst.PortError
	if !errors.As(err, &perr) {
		return err
	}
	switch perr.Code() {
	case bugst.PortNotFound:
		return errors.Join(ErrDeviceNotFound, err)
	case bugst.PermissionDenied:
		return errors.Join(ErrPermissionDenied, err)
	case bugst.PortBusy:
		return errors.Join(ErrDeviceInUse, err)
	case bugst.InvalidSpeed:
		return errors.Join(ErrInvalidBaudRate, err)
	default:
		return err
	}
}

func (p *port) Path() string {
	return p.path
}

func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.p.Close()
}

func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	n, err := p.p.Read(buf)
	if err != nil {
		var perr *bugst.PortError
		if errors.As(err, &perr) && perr.Code() == bugst.PortClosed {
			return 0, ErrHangup
		}
		return n, err
	}
	return n, nil
}

func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return p.p.Write(data)
}

func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.p.Drain()
}

func (p *port) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}
	return p.p.ResetInputBuffer()
}
