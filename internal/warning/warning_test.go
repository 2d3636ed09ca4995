package warning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/models"
)

var testChannels = []string{"moisture", "temp_C"}

func TestRegistrySetAndGet(t *testing.T) {
	reg := NewRegistry(testChannels)

	// Limites começam indefinidos
	bounds, ok := reg.Get("moisture")
	require.True(t, ok)
	assert.False(t, bounds.HasMin)
	assert.False(t, bounds.HasMax)

	require.NoError(t, reg.Set("moisture", 300, 800))
	bounds, ok = reg.Get("moisture")
	require.True(t, ok)
	assert.True(t, bounds.HasMin)
	assert.Equal(t, 300.0, bounds.Min)
	assert.Equal(t, 800.0, bounds.Max)
}

func TestRegistryRejectsInvalidBounds(t *testing.T) {
	reg := NewRegistry(testChannels)
	require.NoError(t, reg.Set("moisture", 300, 800))

	err := reg.Set("moisture", 800, 300)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBounds))

	// Tentativa rejeitada preserva os limites anteriores
	bounds, _ := reg.Get("moisture")
	assert.Equal(t, 300.0, bounds.Min)
	assert.Equal(t, 800.0, bounds.Max)
}

func TestRegistryUnknownChannel(t *testing.T) {
	reg := NewRegistry(testChannels)

	err := reg.Set("pressure", 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownChannel))

	_, ok := reg.Get("pressure")
	assert.False(t, ok)
}

func TestRegistryClear(t *testing.T) {
	reg := NewRegistry(testChannels)
	require.NoError(t, reg.Set("moisture", 300, 800))

	reg.Clear("moisture")
	bounds, ok := reg.Get("moisture")
	require.True(t, ok)
	assert.False(t, bounds.HasMin)
	assert.False(t, bounds.HasMax)
}

func TestEvaluatorStates(t *testing.T) {
	ts := time.Now()

	tests := []struct {
		name     string
		min, max float64
		set      bool
		value    float64
		active   bool
		message  string
	}{
		{
			name:  "no bounds configured",
			value: 999,
		},
		{
			name: "value inside bounds",
			min:  300, max: 800, set: true,
			value: 500,
		},
		{
			name: "value at lower bound",
			min:  300, max: 800, set: true,
			value: 300,
		},
		{
			name: "value below minimum",
			min:  300, max: 800, set: true,
			value:   250,
			active:  true,
			message: "moisture is too low: 250 < 300",
		},
		{
			name: "value above maximum",
			min:  300, max: 800, set: true,
			value:   850.5,
			active:  true,
			message: "moisture is too high: 850.5 > 800",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := NewEvaluator(testChannels)
			if tt.set {
				require.NoError(t, eval.SetBounds("moisture", tt.min, tt.max))
			}

			state := eval.Evaluate("moisture", tt.value, ts)
			assert.Equal(t, "moisture", state.Channel)
			assert.Equal(t, tt.value, state.Value)
			assert.Equal(t, tt.active, state.Active)
			assert.Equal(t, tt.message, state.Message)
			assert.Equal(t, ts, state.Timestamp)
		})
	}
}

func TestEvaluateFrameFollowsOrder(t *testing.T) {
	eval := NewEvaluator(testChannels)
	require.NoError(t, eval.SetBounds("temp_C", 18, 28))

	frame := models.Frame{
		Timestamp: time.Now(),
		Values:    map[string]float64{"moisture": 500, "temp_C": 31.5},
	}

	states := eval.EvaluateFrame(frame, testChannels)
	require.Len(t, states, 2)

	assert.Equal(t, "moisture", states[0].Channel)
	assert.False(t, states[0].Active)

	assert.Equal(t, "temp_C", states[1].Channel)
	assert.True(t, states[1].Active)
	assert.Equal(t, "temp_C is too high: 31.5 > 28", states[1].Message)

	// Limpar os limites desativa a avaliação do canal
	eval.ClearBounds("temp_C")
	states = eval.EvaluateFrame(frame, testChannels)
	assert.False(t, states[1].Active)
	assert.Empty(t, states[1].Message)
}

func TestAlertLatchFiresOnlyOnTransition(t *testing.T) {
	var latch AlertLatch

	inactive := []models.WarningState{{Channel: "moisture", Active: false}}
	active := []models.WarningState{{Channel: "moisture", Active: true}}

	assert.False(t, latch.Observe(inactive))
	assert.False(t, latch.Active())

	// Dispara na transição para ativo
	assert.True(t, latch.Observe(active))
	assert.True(t, latch.Active())

	// Condição persistente não redispara
	assert.False(t, latch.Observe(active))

	// Rearma ao normalizar e dispara de novo na próxima transição
	assert.False(t, latch.Observe(inactive))
	assert.True(t, latch.Observe(active))
}
