package sensor

import (
	"fmt"

	"sensor_go/internal/models"
)

// Aggregator acumula amostras brutas por canal e emite um frame com a
// média de cada canal a cada batchSize conjuntos completos.
//
// Política de sincronização: contador de frames compartilhado. Cada linha
// aceita do protocolo contribui exatamente um valor para cada canal
// registrado, então todos os canais completam o lote no mesmo tick e um
// frame parcial nunca chega ao histórico, aos avisos ou ao CSV.
type Aggregator struct {
	channels  []models.ChannelSpec
	batchSize int
	pending   map[string][]float64
	count     int
}

// NewAggregator cria um agregador para o conjunto de canais registrado
func NewAggregator(channels []models.ChannelSpec, batchSize int) (*Aggregator, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("tamanho de lote inválido: %d", batchSize)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("nenhum canal registrado")
	}

	pending := make(map[string][]float64, len(channels))
	for _, spec := range channels {
		pending[spec.ID] = make([]float64, 0, batchSize)
	}

	return &Aggregator{
		channels:  channels,
		batchSize: batchSize,
		pending:   pending,
	}, nil
}

// Offer adiciona um conjunto de amostras (uma por canal registrado).
// Retorna o frame agregado quando o lote completa, ou nil enquanto
// o lote ainda está acumulando.
func (a *Aggregator) Offer(samples []models.Sample) (*models.Frame, error) {
	if len(samples) != len(a.channels) {
		return nil, fmt.Errorf("%w: esperadas %d amostras, recebidas %d",
			ErrIncompleteFrame, len(a.channels), len(samples))
	}

	// Validar o conjunto inteiro antes de mutar qualquer buffer
	seen := make(map[string]float64, len(samples))
	for _, sample := range samples {
		if _, ok := a.pending[sample.Channel]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, sample.Channel)
		}
		if _, dup := seen[sample.Channel]; dup {
			return nil, fmt.Errorf("%w: canal %s duplicado", ErrIncompleteFrame, sample.Channel)
		}
		seen[sample.Channel] = sample.Value
	}

	for channel, value := range seen {
		a.pending[channel] = append(a.pending[channel], value)
	}
	a.count++

	if a.count < a.batchSize {
		return nil, nil
	}

	// Lote completo: calcular médias e limpar os buffers de todos os canais
	frame := &models.Frame{
		Timestamp: samples[0].Timestamp,
		Values:    make(map[string]float64, len(a.channels)),
	}

	for _, spec := range a.channels {
		var sum float64
		for _, v := range a.pending[spec.ID] {
			sum += v
		}
		mean := sum / float64(a.batchSize)
		if spec.Kind == models.KindInteger {
			// Canais inteiros truncam a média, como o domínio do ADC
			mean = float64(int64(mean))
		}
		frame.Values[spec.ID] = mean
		a.pending[spec.ID] = a.pending[spec.ID][:0]
	}
	a.count = 0

	return frame, nil
}

// Pending retorna quantos conjuntos brutos estão acumulados no lote atual
func (a *Aggregator) Pending() int {
	return a.count
}

// BatchSize retorna o tamanho do lote configurado
func (a *Aggregator) BatchSize() int {
	return a.batchSize
}
