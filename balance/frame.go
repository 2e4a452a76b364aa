package balance

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"
)

const (
	// DefaultIdleGap is the silence that ends a frame
	DefaultIdleGap = 100 * time.Millisecond

	// maxLineSize truncates runaway lines from a noisy link
	maxLineSize = 4096
)

// FrameReader splits the byte stream of a read-with-timeout source into frames.
//
// The balance does not announce frame length or send a frame terminator, so a
// frame is every line received between the first byte and the next idle gap.
// The source's Read must return (0, nil) when no data arrived within its own
// timeout; serial.Port behaves that way.
type FrameReader struct {
	r       io.Reader
	idleGap time.Duration
	now     func() time.Time

	buf     []byte
	pending []byte
}

// NewFrameReader returns a reader that ends a frame after idleGap of silence
func NewFrameReader(r io.Reader, idleGap time.Duration) *FrameReader {
	if idleGap < 0 {
		idleGap = 0
	}
	return &FrameReader{
		r:       r,
		idleGap: idleGap,
		now:     time.Now,
		buf:     make([]byte, 256),
	}
}

// ReadFrame blocks until at least one byte arrives, then collects lines until
// the line has been idle for the idle gap. A trailing partial line is returned
// as the last line. Lines are trimmed and blank lines are dropped.
func (f *FrameReader) ReadFrame(ctx context.Context) ([]string, error) {
	var (
		lines    []string
		started  bool
		lastData time.Time
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := f.r.Read(f.buf)
		if n > 0 {
			started = true
			lastData = f.now()
			lines = f.appendLines(lines, f.buf[:n])
		}
		if err != nil {
			return nil, err
		}

		if n == 0 && started && f.now().Sub(lastData) >= f.idleGap {
			if rest := strings.TrimSpace(string(f.pending)); rest != "" {
				lines = append(lines, rest)
			}
			f.pending = f.pending[:0]
			return lines, nil
		}
	}
}

func (f *FrameReader) appendLines(lines []string, chunk []byte) []string {
	for len(chunk) > 0 {
		idx := bytes.IndexByte(chunk, '\n')
		if idx == -1 {
			f.appendPending(chunk)
			return lines
		}

		f.appendPending(chunk[:idx])
		if line := strings.TrimSpace(string(f.pending)); line != "" {
			lines = append(lines, line)
		}
		f.pending = f.pending[:0]
		chunk = chunk[idx+1:]
	}
	return lines
}

func (f *FrameReader) appendPending(b []byte) {
	if room := maxLineSize - len(f.pending); room < len(b) {
		b = b[:max(room, 0)]
	}
	f.pending = append(f.pending, b...)
}
