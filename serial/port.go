package serial

import "io"

// Port represents an open serial port.
//
// Read waits at most the configured read timeout for data and returns (0, nil)
// when nothing arrived, so callers can poll for idle gaps on the line. A device
// that disappears while open is reported as ErrHangup.
type Port interface {
	io.ReadWriteCloser

	// Path returns the device path the port was opened with.
	Path() string

	// FlushInput discards any unread input data
	FlushInput() error

	// Drain waits until all output written to the port has been transmitted
	Drain() error
}

func applyOptions(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}
