package datalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/models"
)

var testChannels = []models.ChannelSpec{
	{ID: "moisture", Kind: models.KindInteger, Unit: "ADC"},
	{ID: "temp_C", Kind: models.KindFloat, Unit: "°C"},
}

func testFrame(moisture, temp float64, ts time.Time) models.Frame {
	return models.Frame{
		Timestamp: ts,
		Values:    map[string]float64{"moisture": moisture, "temp_C": temp},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriterHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 8, 30, 14, 30, 5, 0, time.UTC)

	w, err := NewWriter(dir, "sensor_log", testChannels, start)
	require.NoError(t, err)
	defer w.Close()

	// Nome do arquivo carrega o timestamp de criação
	assert.Equal(t, filepath.Join(dir, "sensor_log_20260830_143005.csv"), w.Path())

	ts := time.Date(2026, 8, 30, 14, 30, 6, 0, time.UTC)
	require.NoError(t, w.Append(testFrame(512, 22.5, ts)))
	require.NoError(t, w.Append(testFrame(507, 23.456, ts.Add(200*time.Millisecond))))

	lines := readLines(t, w.Path())
	require.Len(t, lines, 3)

	// Cabeçalho escrito uma única vez, na ordem de registro dos canais
	assert.Equal(t, "timestamp,moisture,temp_C", lines[0])

	// Canal inteiro sem casas decimais, float com duas
	assert.Equal(t, "2026-08-30T14:30:06,512,22.50", lines[1])
	assert.Equal(t, "2026-08-30T14:30:06,507,23.46", lines[2])
}

func TestWriterRefusesIncompleteFrame(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, "sensor_log", testChannels, time.Now())
	require.NoError(t, err)
	defer w.Close()

	frame := models.Frame{
		Timestamp: time.Now(),
		Values:    map[string]float64{"moisture": 512},
	}

	assert.Error(t, w.Append(frame))

	// Frame recusado não escreve linha parcial
	lines := readLines(t, w.Path())
	assert.Len(t, lines, 1)
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, "sensor_log", testChannels, time.Now())
	require.NoError(t, err)

	require.NoError(t, w.Append(testFrame(512, 22.5, time.Now())))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	// Escrita após o fechamento retorna ErrClosed e não reabre o arquivo
	err = w.Append(testFrame(500, 21.0, time.Now()))
	assert.ErrorIs(t, err, ErrClosed)

	lines := readLines(t, w.Path())
	assert.Len(t, lines, 2)
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	w, err := NewWriter(dir, "sensor_log", testChannels, time.Now())
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(w.Path())
	assert.NoError(t, err)
}

func TestWriterRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	_, err := NewWriter(dir, "sensor_log", testChannels, start)
	require.NoError(t, err)

	// Mesmo timestamp de criação colide com o arquivo existente
	_, err = NewWriter(dir, "sensor_log", testChannels, start)
	assert.Error(t, err)
}
