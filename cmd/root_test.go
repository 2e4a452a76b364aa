package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/balancelog/internal/config"
	"github.com/allbin/balancelog/serial"
)

func TestPortOptions(t *testing.T) {
	tests := []struct {
		name      string
		syncWrite bool
		want      serial.WriteMode
	}{
		{"buffered by default", false, serial.WriteModeBuffered},
		{"sync-write", true, serial.WriteModeSynced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{cfg: &config.Config{Baud: 9600, ReadTimeout: 50 * time.Millisecond, SyncWrite: tt.syncWrite}}

			c := serial.DefaultConfig()
			for _, opt := range a.portOptions() {
				require.NoError(t, opt(&c))
			}
			assert.Equal(t, 9600, c.BaudRate)
			assert.Equal(t, 50*time.Millisecond, c.ReadTimeout)
			assert.Equal(t, tt.want, c.WriteMode)
		})
	}
}
