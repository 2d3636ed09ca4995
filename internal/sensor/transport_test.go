package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/config"
)

func TestLineBufferAssemblesPartialChunks(t *testing.T) {
	var buf lineBuffer

	// Linha chega em pedaços entre ticks
	buf.feed([]byte("51"))
	_, ok := buf.pop()
	assert.False(t, ok)

	buf.feed([]byte("2,22.5\n6"))
	line, ok := buf.pop()
	require.True(t, ok)
	assert.Equal(t, "512,22.5", line)

	// O resto fica acumulado para a próxima linha
	_, ok = buf.pop()
	assert.False(t, ok)

	buf.feed([]byte("00,23.0\n"))
	line, ok = buf.pop()
	require.True(t, ok)
	assert.Equal(t, "600,23.0", line)
}

func TestLineBufferStripsCarriageReturn(t *testing.T) {
	var buf lineBuffer

	buf.feed([]byte("512,22.5\r\n"))
	line, ok := buf.pop()
	require.True(t, ok)
	assert.Equal(t, "512,22.5", line)
}

func TestLineBufferMultipleLinesInOneChunk(t *testing.T) {
	var buf lineBuffer

	buf.feed([]byte("1,1.0\n2,2.0\n3,3.0\n"))

	for _, expected := range []string{"1,1.0", "2,2.0", "3,3.0"} {
		line, ok := buf.pop()
		require.True(t, ok)
		assert.Equal(t, expected, line)
	}

	_, ok := buf.pop()
	assert.False(t, ok)
}

func TestNewTransportSelection(t *testing.T) {
	tests := []struct {
		name      string
		transport string
		expectErr bool
		desc      string
	}{
		{name: "tcp transport", transport: "tcp", desc: "tcp://localhost:12345"},
		{name: "serial transport", transport: "serial", desc: "serial:///dev/ttyUSB0@9600"},
		{name: "case insensitive", transport: "TCP", desc: "tcp://localhost:12345"},
		{name: "unsupported transport", transport: "carrier-pigeon", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.SensorConfig{
				Transport:  tt.transport,
				SerialPort: "/dev/ttyUSB0",
				BaudRate:   9600,
				Host:       "localhost",
				Port:       12345,
			}

			tr, err := NewTransport(cfg)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.desc, tr.Description())
		})
	}
}
