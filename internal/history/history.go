package history

import (
	"fmt"
	"sync"

	"sensor_go/internal/models"
)

// channelRing é um buffer circular de pontos com capacidade fixa.
// Inserção com eviction FIFO em O(1); a ordem de inserção é cronológica.
type channelRing struct {
	points []models.HistoryPoint
	head   int
	count  int
}

func (r *channelRing) append(p models.HistoryPoint) {
	if r.count < len(r.points) {
		r.points[(r.head+r.count)%len(r.points)] = p
		r.count++
		return
	}
	// Cheio: sobrescreve o ponto mais antigo
	r.points[r.head] = p
	r.head = (r.head + 1) % len(r.points)
}

func (r *channelRing) snapshot() []models.HistoryPoint {
	out := make([]models.HistoryPoint, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.points[(r.head+i)%len(r.points)]
	}
	return out
}

// Store mantém o histórico limitado de valores agregados por canal,
// usado para exibição e consultas de faixa. Os canais são inicializados
// integralmente na construção.
type Store struct {
	capacity int
	mu       sync.RWMutex
	series   map[string]*channelRing
}

// NewStore cria um Store com a capacidade dada para os canais informados
func NewStore(capacity int, channels []string) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacidade de histórico inválida: %d", capacity)
	}

	series := make(map[string]*channelRing, len(channels))
	for _, channel := range channels {
		series[channel] = &channelRing{points: make([]models.HistoryPoint, capacity)}
	}

	return &Store{
		capacity: capacity,
		series:   series,
	}, nil
}

// Append adiciona um ponto ao histórico de um canal, descartando o mais
// antigo quando a capacidade é atingida
func (s *Store) Append(channel string, point models.HistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.series[channel]
	if !ok {
		return fmt.Errorf("canal desconhecido no histórico: %s", channel)
	}
	ring.append(point)
	return nil
}

// Snapshot retorna uma cópia ordenada do histórico de um canal.
// Nunca bloqueia o escritor além do tempo da cópia.
func (s *Store) Snapshot(channel string) []models.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, ok := s.series[channel]
	if !ok {
		return nil
	}
	return ring.snapshot()
}

// Len retorna o número de pontos retidos para um canal
func (s *Store) Len(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ring, ok := s.series[channel]; ok {
		return ring.count
	}
	return 0
}

// Capacity retorna a capacidade configurada por canal
func (s *Store) Capacity() int {
	return s.capacity
}

// Channels retorna os canais conhecidos pelo Store
func (s *Store) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, 0, len(s.series))
	for channel := range s.series {
		channels = append(channels, channel)
	}
	return channels
}

// HasChannel verifica se um canal está registrado no histórico
func (s *Store) HasChannel(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.series[channel]
	return ok
}
