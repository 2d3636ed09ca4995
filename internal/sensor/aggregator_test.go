package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/models"
)

func sampleSet(moisture, temp float64, ts time.Time) []models.Sample {
	return []models.Sample{
		{Channel: ChannelMoisture, Value: moisture, Timestamp: ts},
		{Channel: ChannelTemperature, Value: temp, Timestamp: ts},
	}
}

func TestAggregatorBatchCompletion(t *testing.T) {
	agg, err := NewAggregator(DefaultChannels(), 3)
	require.NoError(t, err)

	ts := time.Now()

	frame, err := agg.Offer(sampleSet(500, 20.0, ts))
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.Equal(t, 1, agg.Pending())

	frame, err = agg.Offer(sampleSet(510, 21.0, ts))
	require.NoError(t, err)
	assert.Nil(t, frame)

	frame, err = agg.Offer(sampleSet(520, 22.0, ts))
	require.NoError(t, err)
	require.NotNil(t, frame)

	assert.Equal(t, 510.0, frame.Values[ChannelMoisture])
	assert.Equal(t, 21.0, frame.Values[ChannelTemperature])
	assert.Equal(t, ts, frame.Timestamp)

	// Lote completo limpa os buffers de todos os canais
	assert.Equal(t, 0, agg.Pending())
}

func TestAggregatorIntegerTruncation(t *testing.T) {
	agg, err := NewAggregator(DefaultChannels(), 3)
	require.NoError(t, err)

	ts := time.Now()
	agg.Offer(sampleSet(500, 20.0, ts))
	agg.Offer(sampleSet(511, 20.0, ts))
	frame, err := agg.Offer(sampleSet(511, 20.0, ts))
	require.NoError(t, err)
	require.NotNil(t, frame)

	// Canal inteiro trunca a média: 1522/3 = 507.33 -> 507
	assert.Equal(t, 507.0, frame.Values[ChannelMoisture])
	assert.Equal(t, 20.0, frame.Values[ChannelTemperature])
}

func TestAggregatorRejectsIncompleteSets(t *testing.T) {
	agg, err := NewAggregator(DefaultChannels(), 2)
	require.NoError(t, err)

	ts := time.Now()

	tests := []struct {
		name    string
		samples []models.Sample
		errIs   error
	}{
		{
			name:    "missing channel",
			samples: []models.Sample{{Channel: ChannelMoisture, Value: 500, Timestamp: ts}},
			errIs:   ErrIncompleteFrame,
		},
		{
			name: "unknown channel",
			samples: []models.Sample{
				{Channel: ChannelMoisture, Value: 500, Timestamp: ts},
				{Channel: "pressure", Value: 1013, Timestamp: ts},
			},
			errIs: ErrUnknownChannel,
		},
		{
			name: "duplicate channel",
			samples: []models.Sample{
				{Channel: ChannelMoisture, Value: 500, Timestamp: ts},
				{Channel: ChannelMoisture, Value: 501, Timestamp: ts},
			},
			errIs: ErrIncompleteFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := agg.Offer(tt.samples)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.errIs))
			assert.Nil(t, frame)

			// Conjunto rejeitado não avança o lote
			assert.Equal(t, 0, agg.Pending())
		})
	}
}

func TestAggregatorBatchSizeOne(t *testing.T) {
	agg, err := NewAggregator(DefaultChannels(), 1)
	require.NoError(t, err)

	frame, err := agg.Offer(sampleSet(432, 19.5, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, 432.0, frame.Values[ChannelMoisture])
	assert.Equal(t, 19.5, frame.Values[ChannelTemperature])
}

func TestAggregatorInvalidConstruction(t *testing.T) {
	_, err := NewAggregator(DefaultChannels(), 0)
	assert.Error(t, err)

	_, err = NewAggregator(nil, 5)
	assert.Error(t, err)
}

func TestAggregatorConsecutiveBatches(t *testing.T) {
	agg, err := NewAggregator(DefaultChannels(), 2)
	require.NoError(t, err)

	ts := time.Now()
	agg.Offer(sampleSet(100, 10.0, ts))
	first, err := agg.Offer(sampleSet(200, 20.0, ts))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 150.0, first.Values[ChannelMoisture])

	// O segundo lote não carrega amostras do primeiro
	agg.Offer(sampleSet(300, 30.0, ts))
	second, err := agg.Offer(sampleSet(400, 40.0, ts))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 350.0, second.Values[ChannelMoisture])
	assert.Equal(t, 35.0, second.Values[ChannelTemperature])
}
