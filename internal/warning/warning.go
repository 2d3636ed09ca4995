package warning

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"sensor_go/internal/models"
)

// Erros de configuração de limites
var (
	// ErrInvalidBounds máximo menor que o mínimo; a configuração anterior
	// permanece em vigor
	ErrInvalidBounds = errors.New("limite máximo menor que o limite mínimo")

	// ErrUnknownChannel canal não registrado
	ErrUnknownChannel = errors.New("canal desconhecido")
)

// Registry armazena limites [min,max] validados por canal. Todos os
// canais são inicializados na construção com limites indefinidos
// (avaliação desabilitada).
type Registry struct {
	mu     sync.RWMutex
	bounds map[string]models.Bounds
}

// NewRegistry cria um Registry para os canais informados
func NewRegistry(channels []string) *Registry {
	bounds := make(map[string]models.Bounds, len(channels))
	for _, channel := range channels {
		bounds[channel] = models.Bounds{}
	}
	return &Registry{bounds: bounds}
}

// Set define os limites de um canal. Uma tentativa rejeitada não altera
// os limites armazenados.
func (r *Registry) Set(channel string, min, max float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bounds[channel]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	if max < min {
		return fmt.Errorf("%w: %.2f < %.2f", ErrInvalidBounds, max, min)
	}

	r.bounds[channel] = models.Bounds{
		Min:    min,
		Max:    max,
		HasMin: true,
		HasMax: true,
	}
	return nil
}

// Clear remove os limites de um canal (avaliação desabilitada)
func (r *Registry) Clear(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bounds[channel]; ok {
		r.bounds[channel] = models.Bounds{}
	}
}

// Get retorna os limites de um canal
func (r *Registry) Get(channel string) (models.Bounds, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bounds, ok := r.bounds[channel]
	return bounds, ok
}

// Evaluator avalia o último valor agregado de cada canal contra os
// limites configurados. O estado de aviso é derivado integralmente de
// (limites, valor), sem memória de avaliações anteriores.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator cria um avaliador com limites indefinidos para os canais
func NewEvaluator(channels []string) *Evaluator {
	return &Evaluator{registry: NewRegistry(channels)}
}

// SetBounds define os limites de aviso de um canal
func (e *Evaluator) SetBounds(channel string, min, max float64) error {
	return e.registry.Set(channel, min, max)
}

// ClearBounds remove os limites de aviso de um canal
func (e *Evaluator) ClearBounds(channel string) {
	e.registry.Clear(channel)
}

// Bounds retorna os limites de aviso atuais de um canal
func (e *Evaluator) Bounds(channel string) (models.Bounds, bool) {
	return e.registry.Get(channel)
}

// Evaluate calcula o estado de aviso de um canal para o valor dado
func (e *Evaluator) Evaluate(channel string, value float64, ts time.Time) models.WarningState {
	state := models.WarningState{
		Channel:   channel,
		Value:     value,
		Timestamp: ts,
	}

	bounds, ok := e.registry.Get(channel)
	if !ok {
		return state
	}

	if bounds.HasMin && value < bounds.Min {
		state.Active = true
		state.Message = fmt.Sprintf("%s is too low: %s < %s",
			channel, formatBound(value), formatBound(bounds.Min))
	} else if bounds.HasMax && value > bounds.Max {
		state.Active = true
		state.Message = fmt.Sprintf("%s is too high: %s > %s",
			channel, formatBound(value), formatBound(bounds.Max))
	}

	return state
}

// EvaluateFrame avalia todos os canais de um frame, na ordem dada
func (e *Evaluator) EvaluateFrame(frame models.Frame, order []string) []models.WarningState {
	states := make([]models.WarningState, 0, len(order))
	for _, channel := range order {
		value, ok := frame.Values[channel]
		if !ok {
			continue
		}
		states = append(states, e.Evaluate(channel, value, frame.Timestamp))
	}
	return states
}

// AlertLatch detecta a transição para "algum aviso ativo", para que o
// alerta dispare uma única vez enquanto a condição persistir
type AlertLatch struct {
	mu     sync.Mutex
	active bool
}

// Observe registra o resultado de uma avaliação e retorna true apenas
// na transição de "nenhum aviso" para "algum aviso ativo"
func (l *AlertLatch) Observe(states []models.WarningState) bool {
	any := false
	for _, state := range states {
		if state.Active {
			any = true
			break
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fired := any && !l.active
	l.active = any
	return fired
}

// Active retorna se algum aviso estava ativo na última observação
func (l *AlertLatch) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// formatBound formata um valor de limite sem zeros à direita supérfluos
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
