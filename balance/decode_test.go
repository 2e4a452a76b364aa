package balance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCompleteUnstableFrame(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	rec := d.Decode([]string{"Gross: 100.12 ?", "Net: 95.00", "Tare: 5.12", "06/15/24 10:00:00"})

	require.NotNil(t, rec.Gross)
	require.NotNil(t, rec.Net)
	require.NotNil(t, rec.Tare)
	require.NotNil(t, rec.Timestamp)
	require.NotNil(t, rec.UnixTime)
	assert.Equal(t, 100.12, *rec.Gross)
	assert.Equal(t, 95.00, *rec.Net)
	assert.Equal(t, 5.12, *rec.Tare)
	assert.Equal(t, "06/15/24 10:00:00", *rec.Timestamp)
	assert.Equal(t, float64(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC).Unix()), *rec.UnixTime)
	assert.False(t, rec.Error)
	assert.True(t, rec.Unstable)
	assert.Nil(t, rec.Elapsed)
}

func TestDecodeIncompleteFrame(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	rec := d.Decode([]string{"Net: 10.0"})

	require.NotNil(t, rec.Net)
	assert.Equal(t, 10.0, *rec.Net)
	assert.Nil(t, rec.Gross)
	assert.Nil(t, rec.Tare)
	assert.Nil(t, rec.Timestamp)
	assert.True(t, rec.Error)
	assert.False(t, rec.Unstable)
}

func TestDecodeEmptyFrame(t *testing.T) {
	rec := NewDecoder(MonthDayYear, nil).Decode(nil)

	assert.True(t, rec.Error)
	assert.False(t, rec.Unstable)
	assert.Nil(t, rec.Gross)
	assert.Nil(t, rec.Timestamp)
}

func TestDecodeOrderIndependent(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)
	lines := []string{"06/15/24 10:00:00", "Tare: 5.12", "Net: 95.00", "Gross: 100.12"}

	rec := d.Decode(lines)

	assert.False(t, rec.Error)
	assert.False(t, rec.Unstable)
	assert.Equal(t, 100.12, *rec.Gross)
}

func TestDecodeNumberFields(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	tests := []struct {
		name string
		line string
		want *float64
	}{
		{"decimal with unit", "Net: 95.00 g", float64Ptr(95)},
		{"negative", "Net: -0.50 g", float64Ptr(-0.5)},
		{"explicit plus", "Net: +12 g", float64Ptr(12)},
		{"leading dot", "Net: .5", float64Ptr(0.5)},
		{"no number", "Net: ----", nil},
		{"two numbers", "Net: 95.00 g 2", nil},
		{"empty", "Net:", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := d.Decode([]string{tt.line})
			if tt.want == nil {
				assert.Nil(t, rec.Net)
				return
			}
			require.NotNil(t, rec.Net)
			assert.InDelta(t, *tt.want, *rec.Net, 1e-9)
		})
	}
}

func TestDecodeLastDuplicateWins(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	rec := d.Decode([]string{"Net: 1.0", "Net: 2.0"})
	require.NotNil(t, rec.Net)
	assert.Equal(t, 2.0, *rec.Net)

	rec = d.Decode([]string{"Net: 1.0", "Net: 1.0 2.0"})
	assert.Nil(t, rec.Net)
}

func TestDecodeUnstableOnlyFromGross(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	rec := d.Decode([]string{"Gross: 1.0", "Net: ? 1.0"})
	assert.False(t, rec.Unstable)
}

func TestDecodeIgnoresIdentityAndUnknownLines(t *testing.T) {
	d := NewDecoder(MonthDayYear, time.UTC)

	rec := d.Decode([]string{"SNR: C052778878", "Mode: weigh", "Gross: 1", "Net: 1", "Tare: 0", "01/02/24 03:04:05"})

	assert.False(t, rec.Error)
	assert.Len(t, rec.Lines, 6)
}

func TestDecodeDateOrder(t *testing.T) {
	tests := []struct {
		name  string
		order DateOrder
		line  string
		want  time.Time
		ok    bool
	}{
		{"mdy", MonthDayYear, "06/15/24 10:00:00", time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), true},
		{"dmy", DayMonthYear, "15/06/24 10:00:00", time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), true},
		{"mdy rejects dmy input", MonthDayYear, "15/06/24 10:00:00", time.Time{}, false},
		{"four digit year", MonthDayYear, "06/15/2024 23:59:59", time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC), true},
		{"feb 30", MonthDayYear, "02/30/24 10:00:00", time.Time{}, false},
		{"bad hour", MonthDayYear, "06/15/24 24:00:00", time.Time{}, false},
		{"missing seconds", MonthDayYear, "06/15/24 10:00", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewDecoder(tt.order, time.UTC).Decode([]string{tt.line})
			if !tt.ok {
				assert.Nil(t, rec.Timestamp)
				assert.Nil(t, rec.UnixTime)
				return
			}
			require.NotNil(t, rec.UnixTime)
			assert.Equal(t, float64(tt.want.Unix()), *rec.UnixTime)
			assert.Equal(t, tt.line, *rec.Timestamp)
		})
	}
}

func TestDecodeLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	rec := NewDecoder(MonthDayYear, loc).Decode([]string{"06/15/24 10:00:00"})

	require.NotNil(t, rec.UnixTime)
	assert.Equal(t, float64(time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC).Unix()), *rec.UnixTime)
}

func TestDecodeInvalidDateClearsEarlierTimestamp(t *testing.T) {
	rec := NewDecoder(MonthDayYear, time.UTC).Decode([]string{"06/15/24 10:00:00", "13/45/24 10:00:00"})

	assert.Nil(t, rec.Timestamp)
	assert.True(t, rec.Error)
}

func TestParseDateOrder(t *testing.T) {
	o, err := ParseDateOrder("DMY")
	require.NoError(t, err)
	assert.Equal(t, DayMonthYear, o)

	o, err = ParseDateOrder("")
	require.NoError(t, err)
	assert.Equal(t, MonthDayYear, o)
	assert.Equal(t, "mdy", o.String())

	_, err = ParseDateOrder("ymd")
	assert.Error(t, err)
}
