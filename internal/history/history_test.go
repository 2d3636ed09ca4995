package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor_go/internal/models"
)

func point(v float64, offset time.Duration) models.HistoryPoint {
	return models.HistoryPoint{Value: v, Timestamp: time.Unix(0, 0).Add(offset)}
}

func TestStoreAppendAndSnapshot(t *testing.T) {
	store, err := NewStore(5, []string{"moisture", "temp_C"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append("moisture", point(float64(i), time.Duration(i)*time.Second)))
	}

	snap := store.Snapshot("moisture")
	require.Len(t, snap, 3)
	for i, p := range snap {
		assert.Equal(t, float64(i), p.Value)
	}

	// Canais independentes
	assert.Equal(t, 0, store.Len("temp_C"))
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	store, err := NewStore(3, []string{"moisture"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append("moisture", point(float64(i), time.Duration(i)*time.Second)))
	}

	snap := store.Snapshot("moisture")
	require.Len(t, snap, 3)

	// Apenas os mais recentes permanecem, em ordem cronológica
	assert.Equal(t, 2.0, snap[0].Value)
	assert.Equal(t, 3.0, snap[1].Value)
	assert.Equal(t, 4.0, snap[2].Value)

	assert.Equal(t, 3, store.Len("moisture"))
	assert.Equal(t, 3, store.Capacity())
}

func TestStoreUnknownChannel(t *testing.T) {
	store, err := NewStore(3, []string{"moisture"})
	require.NoError(t, err)

	assert.Error(t, store.Append("pressure", point(1, 0)))
	assert.Nil(t, store.Snapshot("pressure"))
	assert.Equal(t, 0, store.Len("pressure"))
	assert.False(t, store.HasChannel("pressure"))
	assert.True(t, store.HasChannel("moisture"))
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store, err := NewStore(3, []string{"moisture"})
	require.NoError(t, err)

	require.NoError(t, store.Append("moisture", point(1, 0)))

	snap := store.Snapshot("moisture")
	require.Len(t, snap, 1)
	snap[0].Value = 99

	// Mutação do snapshot não afeta o armazenamento
	again := store.Snapshot("moisture")
	assert.Equal(t, 1.0, again[0].Value)
}

func TestStoreInvalidCapacity(t *testing.T) {
	_, err := NewStore(0, []string{"moisture"})
	assert.Error(t, err)
}

func TestStoreChannels(t *testing.T) {
	store, err := NewStore(2, []string{"moisture", "temp_C"})
	require.NoError(t, err)

	channels := store.Channels()
	assert.ElementsMatch(t, []string{"moisture", "temp_C"}, channels)
}
