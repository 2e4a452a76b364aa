package balance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOrder selects how the first two fields of the balance's date line are read.
// Firmware variants disagree on this, so it is configurable.
type DateOrder int

const (
	// MonthDayYear reads "06/15/24" as June 15th.
	MonthDayYear DateOrder = iota
	// DayMonthYear reads "15/06/24" as June 15th.
	DayMonthYear
)

// ParseDateOrder accepts "mdy" or "dmy"
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mdy", "":
		return MonthDayYear, nil
	case "dmy":
		return DayMonthYear, nil
	default:
		return 0, fmt.Errorf("unknown date order %q (use mdy or dmy)", s)
	}
}

func (o DateOrder) String() string {
	if o == DayMonthYear {
		return "dmy"
	}
	return "mdy"
}

var (
	// numberPattern matches signed or unsigned integers and decimals
	numberPattern = regexp.MustCompile(`[-+]?(?:\d*\.\d+|\d+)`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// Decoder turns the lines of one frame into a Record
type Decoder struct {
	order    DateOrder
	location *time.Location
}

// NewDecoder returns a decoder reading dates in the given order. Timestamps
// are interpreted in loc; nil means local time.
func NewDecoder(order DateOrder, loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.Local
	}
	return &Decoder{order: order, location: loc}
}

// Decode classifies every line by prefix or shape, independent of order.
// Unknown lines are ignored and a repeated field keeps its last value.
func (d *Decoder) Decode(lines []string) Record {
	rec := Record{Lines: lines}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, prefixGross):
			rec.Gross = singleNumber(line)
			rec.Unstable = strings.Contains(line, unstableMarker)
		case strings.HasPrefix(line, prefixNet):
			rec.Net = singleNumber(line)
		case strings.HasPrefix(line, prefixTare):
			rec.Tare = singleNumber(line)
		case strings.HasPrefix(line, prefixIdentity):
			// PSN reply, not measurement data
		case isDateLine(line):
			if t, ok := d.parseDateLine(line); ok {
				rec.Timestamp = stringPtr(line)
				rec.UnixTime = float64Ptr(float64(t.Unix()))
			} else {
				rec.Timestamp = nil
				rec.UnixTime = nil
			}
		}
	}

	rec.Error = !rec.complete()
	return rec
}

// singleNumber returns the only number in line, or nil when there is none or
// more than one.
func singleNumber(line string) *float64 {
	tokens := numberPattern.FindAllString(line, -1)
	if len(tokens) != 1 {
		return nil
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return nil
	}
	return &v
}

// isDateLine matches the unlabeled "NN/NN/NN HH:MM:SS" line
func isDateLine(line string) bool {
	return len(line) > 6 && line[2] == '/' && line[5] == '/'
}

func (d *Decoder) parseDateLine(line string) (time.Time, bool) {
	fields := digitsPattern.FindAllString(line, -1)
	if len(fields) < 6 {
		return time.Time{}, false
	}

	nums := make([]int, 6)
	for i := range nums {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	month, day := nums[0], nums[1]
	if d.order == DayMonthYear {
		month, day = nums[1], nums[0]
	}
	year := nums[2]
	if year < 100 {
		year += 2000
	}
	hour, minute, second := nums[3], nums[4], nums[5]

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, d.location)
	// time.Date normalises Feb 30 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
