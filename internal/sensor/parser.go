package sensor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sensor_go/internal/models"
)

// AckServoPrefix prefixo de eco de confirmação do servo vindo da placa
const AckServoPrefix = "ACK_SERVO:"

// ParsedLine é o resultado da decodificação de uma linha do sensor.
// Uma linha de dados produz uma amostra por canal registrado; uma linha
// de confirmação de comando produz apenas Ack.
type ParsedLine struct {
	Samples []models.Sample
	Ack     string
}

// LineParser decodifica a forma canônica do protocolo de entrada:
// campos separados por vírgula, um por canal registrado, na ordem do
// registro (ex: "512,22.5" para moisture,temp_C).
type LineParser struct {
	channels []models.ChannelSpec
}

// NewLineParser cria um parser para o conjunto de canais registrado
func NewLineParser(channels []models.ChannelSpec) *LineParser {
	return &LineParser{channels: channels}
}

// Parse decodifica uma linha do sensor. Linhas malformadas retornam
// ErrLineRejected; nenhuma entrada derruba o fluxo de leitura.
func (p *LineParser) Parse(raw string) (ParsedLine, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return ParsedLine{}, fmt.Errorf("%w: linha vazia", ErrLineRejected)
	}

	// Eco de confirmação de comando: não é dado, mas é reconhecido
	if strings.HasPrefix(line, AckServoPrefix) {
		return ParsedLine{Ack: line}, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) != len(p.channels) {
		return ParsedLine{}, fmt.Errorf("%w: esperados %d campos, recebidos %d",
			ErrLineRejected, len(p.channels), len(parts))
	}

	now := time.Now()
	samples := make([]models.Sample, 0, len(p.channels))

	for i, spec := range p.channels {
		field := strings.TrimSpace(parts[i])

		var value float64
		switch spec.Kind {
		case models.KindInteger:
			n, err := strconv.Atoi(field)
			if err != nil {
				return ParsedLine{}, fmt.Errorf("%w: campo %q inválido para o canal %s",
					ErrLineRejected, field, spec.ID)
			}
			value = float64(n)
		default:
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return ParsedLine{}, fmt.Errorf("%w: campo %q inválido para o canal %s",
					ErrLineRejected, field, spec.ID)
			}
			value = f
		}

		samples = append(samples, models.Sample{
			Channel:   spec.ID,
			Value:     value,
			Timestamp: now,
		})
	}

	return ParsedLine{Samples: samples}, nil
}
