package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineParserParse(t *testing.T) {
	parser := NewLineParser(DefaultChannels())

	tests := []struct {
		name     string
		line     string
		expected map[string]float64
		ack      string
		rejected bool
	}{
		{
			name:     "valid data line",
			line:     "512,22.5",
			expected: map[string]float64{ChannelMoisture: 512, ChannelTemperature: 22.5},
		},
		{
			name:     "whitespace around fields",
			line:     "  512 , 22.5  ",
			expected: map[string]float64{ChannelMoisture: 512, ChannelTemperature: 22.5},
		},
		{
			name:     "trailing carriage return already stripped upstream",
			line:     "0,-4.25",
			expected: map[string]float64{ChannelMoisture: 0, ChannelTemperature: -4.25},
		},
		{
			name: "servo ack echo",
			line: "ACK_SERVO:90",
			ack:  "ACK_SERVO:90",
		},
		{
			name:     "empty line",
			line:     "",
			rejected: true,
		},
		{
			name:     "blank line",
			line:     "   ",
			rejected: true,
		},
		{
			name:     "too few fields",
			line:     "512",
			rejected: true,
		},
		{
			name:     "too many fields",
			line:     "512,22.5,99",
			rejected: true,
		},
		{
			name:     "non-integer moisture field",
			line:     "51.2,22.5",
			rejected: true,
		},
		{
			name:     "non-numeric temperature field",
			line:     "512,abc",
			rejected: true,
		},
		{
			name:     "garbage line",
			line:     "!!noise!!",
			rejected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.Parse(tt.line)

			if tt.rejected {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrLineRejected))
				return
			}

			require.NoError(t, err)

			if tt.ack != "" {
				assert.Equal(t, tt.ack, parsed.Ack)
				assert.Empty(t, parsed.Samples)
				return
			}

			require.Len(t, parsed.Samples, len(tt.expected))
			for _, sample := range parsed.Samples {
				expected, ok := tt.expected[sample.Channel]
				require.True(t, ok, "canal inesperado: %s", sample.Channel)
				assert.Equal(t, expected, sample.Value)
				assert.False(t, sample.Timestamp.IsZero())
			}
		})
	}
}

func TestLineParserSampleOrder(t *testing.T) {
	parser := NewLineParser(DefaultChannels())

	parsed, err := parser.Parse("100,25.0")
	require.NoError(t, err)
	require.Len(t, parsed.Samples, 2)

	// A ordem das amostras segue a ordem de registro dos canais
	assert.Equal(t, ChannelMoisture, parsed.Samples[0].Channel)
	assert.Equal(t, ChannelTemperature, parsed.Samples[1].Channel)

	// Todas as amostras da mesma linha compartilham o timestamp
	assert.Equal(t, parsed.Samples[0].Timestamp, parsed.Samples[1].Timestamp)
}
