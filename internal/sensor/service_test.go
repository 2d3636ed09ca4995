package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/config"
	"sensor_go/internal/models"
	"sensor_go/internal/redis"
)

// fakeTransport devolve linhas pré-programadas, uma por tick
type fakeTransport struct {
	lines   []string
	errs    []error
	written []string
}

func (f *fakeTransport) Connect() error { return nil }

func (f *fakeTransport) TryReadLine() (string, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	if len(f.lines) == 0 {
		return "", nil
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeTransport) WriteLine(line string) error {
	f.written = append(f.written, line)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) Description() string { return "fake://test" }

func testConfig() config.SensorConfig {
	return config.SensorConfig{
		Transport:            "tcp",
		Host:                 "localhost",
		Port:                 12345,
		SampleRate:           5 * time.Millisecond,
		BatchSize:            2,
		MaxPoints:            10,
		MaxConsecutiveErrors: 3,
	}
}

func newTestService(t *testing.T, fake *fakeTransport) *Service {
	t.Helper()

	mirror, err := redis.NewService(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	svc, err := NewService(testConfig(), config.DatalogConfig{Dir: t.TempDir(), Prefix: "sensor_log"}, mirror, nil)
	require.NoError(t, err)

	svc.transport = fake
	return svc
}

func TestServiceAggregatesBatchesIntoFrames(t *testing.T) {
	fake := &fakeTransport{lines: []string{"500,20.0", "510,21.0"}}
	svc := newTestService(t, fake)

	// Primeira linha: lote ainda acumulando
	svc.processTick()
	assert.Nil(t, svc.LastFrame())
	assert.Equal(t, models.StateStreaming, svc.Status().State)

	// Segunda linha completa o lote
	svc.processTick()
	frame := svc.LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, 505.0, frame.Values[ChannelMoisture])
	assert.Equal(t, 20.5, frame.Values[ChannelTemperature])

	// Frame agregado alimenta o histórico de cada canal
	history, err := svc.History(ChannelMoisture)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 505.0, history[0].Value)
}

func TestServiceIgnoresMalformedLines(t *testing.T) {
	fake := &fakeTransport{lines: []string{"garbage", "500,20.0", "1,2,3", "510,21.0"}}
	svc := newTestService(t, fake)

	for i := 0; i < 4; i++ {
		svc.processTick()
	}

	frame := svc.LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, 505.0, frame.Values[ChannelMoisture])
}

func TestServiceFaultsAfterConsecutiveErrors(t *testing.T) {
	fake := &fakeTransport{errs: []error{
		assert.AnError, assert.AnError, assert.AnError,
	}}
	svc := newTestService(t, fake)
	svc.running = true

	for i := 0; i < 3; i++ {
		svc.processTick()
	}

	status := svc.Status()
	assert.Equal(t, models.StateFaulted, status.State)
	assert.NotEmpty(t, status.LastError)
	assert.Equal(t, 3, status.ErrorCount)
	assert.False(t, svc.IsRunning())
}

func TestServiceRecoversFromTransientErrors(t *testing.T) {
	fake := &fakeTransport{
		errs:  []error{assert.AnError, assert.AnError},
		lines: []string{"500,20.0", "510,21.0"},
	}
	svc := newTestService(t, fake)

	// Dois erros abaixo do limite, depois comunicação restaurada
	for i := 0; i < 4; i++ {
		svc.processTick()
	}

	require.NotNil(t, svc.LastFrame())
	assert.Equal(t, models.StateStreaming, svc.Status().State)
	assert.Equal(t, 0, svc.Status().ErrorCount)
}

func TestServiceCommandEncoding(t *testing.T) {
	fake := &fakeTransport{}
	svc := newTestService(t, fake)

	require.NoError(t, svc.MoveServo(90))
	require.NoError(t, svc.StepServo())
	require.NoError(t, svc.SetThresholds(ChannelMoisture, 300, 800))
	require.NoError(t, svc.SetWarnings(ChannelTemperature, 18, 28))

	assert.Equal(t, []string{
		"SET_SERVO:90",
		"STEP_SERVO",
		"SET_THRESH moisture 300.00 800.00",
		"SET_WARN temp_C 18.00 28.00",
	}, fake.written)

	// Limites registrados localmente junto com o envio
	bounds, ok := svc.Thresholds(ChannelMoisture)
	require.True(t, ok)
	assert.Equal(t, 300.0, bounds.Min)

	warnBounds, ok := svc.WarningBounds(ChannelTemperature)
	require.True(t, ok)
	assert.Equal(t, 28.0, warnBounds.Max)
}

func TestServiceRejectsInvalidCommands(t *testing.T) {
	fake := &fakeTransport{}
	svc := newTestService(t, fake)

	assert.ErrorIs(t, svc.MoveServo(181), ErrOutOfRange)
	assert.ErrorIs(t, svc.SetThresholds("pressure", 0, 10), ErrUnknownChannel)
	assert.ErrorIs(t, svc.SetWarnings(ChannelMoisture, 800, 300), ErrOutOfRange)

	// Comando rejeitado nunca chega ao transporte
	assert.Empty(t, fake.written)
}

func TestServiceWarningEvaluationOnFrames(t *testing.T) {
	fake := &fakeTransport{lines: []string{"200,20.0", "220,21.0"}}
	svc := newTestService(t, fake)

	require.NoError(t, svc.SetWarnings(ChannelMoisture, 300, 800))
	fake.written = nil

	svc.processTick()
	svc.processTick()

	warnings := svc.CurrentWarnings()
	require.Len(t, warnings, 2)
	assert.True(t, warnings[0].Active)
	assert.Contains(t, warnings[0].Message, "moisture is too low")
	assert.False(t, warnings[1].Active)
}
