package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeServo(t *testing.T) {
	enc := NewCommandEncoder(DefaultChannels())

	tests := []struct {
		name     string
		angle    int
		expected string
		errIs    error
	}{
		{name: "minimum angle", angle: 0, expected: "SET_SERVO:0"},
		{name: "maximum angle", angle: 180, expected: "SET_SERVO:180"},
		{name: "mid range", angle: 90, expected: "SET_SERVO:90"},
		{name: "below range", angle: -1, errIs: ErrOutOfRange},
		{name: "above range", angle: 181, errIs: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := enc.EncodeServo(tt.angle)
			if tt.errIs != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.errIs))
				assert.Empty(t, line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}

func TestEncodeStepServo(t *testing.T) {
	enc := NewCommandEncoder(DefaultChannels())
	assert.Equal(t, "STEP_SERVO", enc.EncodeStepServo())
}

func TestEncodeBoundsCommands(t *testing.T) {
	enc := NewCommandEncoder(DefaultChannels())

	tests := []struct {
		name     string
		encode   func(string, float64, float64) (string, error)
		channel  string
		min, max float64
		expected string
		errIs    error
	}{
		{
			name:     "threshold with two decimal places",
			encode:   enc.EncodeThreshold,
			channel:  ChannelMoisture,
			min:      300,
			max:      800,
			expected: "SET_THRESH moisture 300.00 800.00",
		},
		{
			name:     "warning levels for temperature",
			encode:   enc.EncodeWarning,
			channel:  ChannelTemperature,
			min:      18.5,
			max:      27.6,
			expected: "SET_WARN temp_C 18.50 27.60",
		},
		{
			name:     "equal bounds allowed",
			encode:   enc.EncodeThreshold,
			channel:  ChannelMoisture,
			min:      500,
			max:      500,
			expected: "SET_THRESH moisture 500.00 500.00",
		},
		{
			name:    "max below min",
			encode:  enc.EncodeThreshold,
			channel: ChannelMoisture,
			min:     800,
			max:     300,
			errIs:   ErrOutOfRange,
		},
		{
			name:    "unknown channel",
			encode:  enc.EncodeWarning,
			channel: "pressure",
			min:     0,
			max:     10,
			errIs:   ErrUnknownChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := tt.encode(tt.channel, tt.min, tt.max)
			if tt.errIs != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.errIs))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}
