// Package serial provides the serial port layer used to talk to laboratory balances.
//
// On Linux the port is driven directly through termios with golang.org/x/sys/unix;
// other platforms fall back to go.bug.st/serial.
//
// # Basic Usage
//
// Open a port with the balance defaults (9600 8N1, 100ms read timeout):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
// Read never blocks longer than the read timeout. A read that returns (0, nil)
// means the line was idle for that long, which is how callers find the end of
// a burst of lines:
//
//	buf := make([]byte, 256)
//	n, err := port.Read(buf)
//	if errors.Is(err, serial.ErrHangup) {
//	    // adapter unplugged
//	}
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithReadTimeout(100*time.Millisecond),
//	)
//
// # Port Discovery
//
// List available serial ports with their USB identity:
//
//	infos, err := serial.ListPortInfo()
//	for _, info := range infos {
//	    fmt.Printf("%s: %s (%s)\n", info.Path, info.Description, info.USBID())
//	}
//
// USB metadata on Linux comes from sysfs (/sys/class/tty/<name>/device).
package serial
