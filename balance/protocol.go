package balance

import (
	"errors"
	"fmt"
)

// Wire commands understood by the balance. Every command is sent as ASCII
// followed by LineTerminator.
const (
	CommandStopStream = "0P"
	CommandIdentity   = "PSN"

	// LineTerminator ends every outbound command
	LineTerminator = "\r\n"
)

// Stream interval bounds accepted by the "<N>P" command, in seconds.
const (
	MinInterval = 1
	MaxInterval = 3600
)

// Inbound line prefixes
const (
	prefixGross    = "Gross:"
	prefixNet      = "Net:"
	prefixTare     = "Tare:"
	prefixIdentity = "SNR:"

	// identityReply is the exact lead-in of a PSN reply; the payload follows it
	identityReply = "SNR: "

	// unstableMarker appears on the Gross line while the reading is settling
	unstableMarker = "?"
)

var (
	ErrInvalidInterval = fmt.Errorf("stream interval must be between %d and %d seconds", MinInterval, MaxInterval)
	ErrNoIdentity      = errors.New("balance did not report an identity")
	ErrNonASCII        = errors.New("command contains non-ASCII characters")

	// ErrSerialFault wraps I/O failures on the serial line. They end a session.
	ErrSerialFault = errors.New("serial fault")
)

// StartStreamCommand returns the command that makes the balance print a
// frame every interval seconds.
func StartStreamCommand(interval int) (string, error) {
	if err := ValidateInterval(interval); err != nil {
		return "", err
	}
	return fmt.Sprintf("%dP", interval), nil
}

// ValidateInterval checks the stream interval against the balance's limits
func ValidateInterval(interval int) error {
	if interval < MinInterval || interval > MaxInterval {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, interval)
	}
	return nil
}
