package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")

	// ErrHangup is returned by Read when the device went away (USB adapter unplugged,
	// pty master closed).
	ErrHangup = errors.New("serial device hung up")

	// USB-related errors
	ErrUSBInfoNotAvailable = errors.New("USB device information not available")
)
