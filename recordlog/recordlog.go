// Package recordlog writes measurement records to a CSV log, one row per
// frame, flushed as soon as it is written so an unplugged laptop loses at
// most the frame in flight.
package recordlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/allbin/balancelog/balance"
)

// Header is the first row of every log
var Header = []string{"elapsed secs", "timestamp", "unix time", "gross", "net", "tare", "error", "unstable"}

// fileTimeLayout is the start time part of the file name
const fileTimeLayout = "2006-01-02_15-04-05"

// Writer is a balance.Sink writing CSV rows
type Writer struct {
	mu     sync.Mutex
	csv    *csv.Writer
	closer io.Closer
	rows   int
}

var _ balance.Sink = (*Writer)(nil)

// NewWriter writes the header to w and returns a Writer. If w is an io.Closer,
// Close closes it.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := &Writer{csv: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	if err := cw.writeRow(Header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return cw, nil
}

// Write appends one record and flushes it
func (w *Writer) Write(rec balance.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeRow(Row(rec)); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows returns the number of records written
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the underlying file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	err := w.csv.Error()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
		w.closer = nil
	}
	return err
}

// Row formats a record as CSV cells. Missing values are empty cells.
func Row(rec balance.Record) []string {
	timestamp := ""
	if rec.Timestamp != nil {
		timestamp = *rec.Timestamp
	}
	return []string{
		formatFloat(rec.Elapsed),
		timestamp,
		formatFloat(rec.UnixTime),
		formatFloat(rec.Gross),
		formatFloat(rec.Net),
		formatFloat(rec.Tare),
		formatBool(rec.Error),
		formatBool(rec.Unstable),
	}
}

// formatFloat writes the shortest representation, keeping a ".0" on whole
// numbers so logs match the ones analysis scripts already read.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FileName returns "<label> 2006-01-02_15-04-05.csv"
func FileName(label string, start time.Time) string {
	return fmt.Sprintf("%s %s.csv", sanitize(label), start.Format(fileTimeLayout))
}

// sanitize replaces characters that are invalid in file names on common
// filesystems. The "?????" placeholder label comes out as "_____".
func sanitize(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "balance"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, label)
}

// Create makes dir if needed and creates a new log in it. An existing file
// with the same name is never overwritten.
func Create(dir, label string, start time.Time) (*Writer, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(label, start))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("creating log file: %w", err)
	}

	w, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, "", err
	}
	return w, path, nil
}
