package balance

// Record is one decoded measurement frame. Nil fields were not present (or
// not parseable) in the frame.
type Record struct {
	Elapsed   *float64
	Timestamp *string
	UnixTime  *float64
	Gross     *float64
	Net       *float64
	Tare      *float64

	// Error is set when any of Timestamp, Gross, Net or Tare is missing.
	Error bool
	// Unstable is set when the balance flagged the gross reading with '?'.
	Unstable bool

	// Lines is the raw frame, kept for diagnostics only.
	Lines []string
}

// complete reports whether every required field was decoded
func (r *Record) complete() bool {
	return r.Timestamp != nil && r.Gross != nil && r.Net != nil && r.Tare != nil
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
