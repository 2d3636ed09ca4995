package sensor

import (
	"fmt"

	"sensor_go/internal/models"
)

// Verbos do protocolo de saída (host → placa)
const (
	VerbSetServo  = "SET_SERVO"
	VerbStepServo = "STEP_SERVO"
	VerbSetThresh = "SET_THRESH"
	VerbSetWarn   = "SET_WARN"
)

// Limites do ângulo do servo
const (
	ServoMinAngle = 0
	ServoMaxAngle = 180
)

// CommandEncoder monta linhas de comando do protocolo de saída,
// validando os argumentos antes de qualquer linha ser construída
type CommandEncoder struct {
	channels map[string]models.ChannelSpec
}

// NewCommandEncoder cria um encoder para o conjunto de canais registrado
func NewCommandEncoder(channels []models.ChannelSpec) *CommandEncoder {
	byID := make(map[string]models.ChannelSpec, len(channels))
	for _, spec := range channels {
		byID[spec.ID] = spec
	}
	return &CommandEncoder{channels: byID}
}

// EncodeServo monta o comando de movimento do servo (ângulo em [0,180])
func (e *CommandEncoder) EncodeServo(angle int) (string, error) {
	if angle < ServoMinAngle || angle > ServoMaxAngle {
		return "", fmt.Errorf("%w: ângulo do servo deve estar entre %d e %d, recebido %d",
			ErrOutOfRange, ServoMinAngle, ServoMaxAngle, angle)
	}
	return fmt.Sprintf("%s:%d", VerbSetServo, angle), nil
}

// EncodeStepServo monta o comando de passo único do servo
func (e *CommandEncoder) EncodeStepServo() string {
	return VerbStepServo
}

// EncodeThreshold monta o comando de limites operacionais de um canal
func (e *CommandEncoder) EncodeThreshold(channel string, min, max float64) (string, error) {
	return e.encodeBounds(VerbSetThresh, channel, min, max)
}

// EncodeWarning monta o comando de níveis de aviso de um canal
func (e *CommandEncoder) EncodeWarning(channel string, min, max float64) (string, error) {
	return e.encodeBounds(VerbSetWarn, channel, min, max)
}

// encodeBounds valida e monta um comando "<VERB> <canal> <min> <max>"
func (e *CommandEncoder) encodeBounds(verb, channel string, min, max float64) (string, error) {
	if _, ok := e.channels[channel]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	if max < min {
		return "", fmt.Errorf("%w: máximo %.2f menor que mínimo %.2f", ErrOutOfRange, max, min)
	}
	return fmt.Sprintf("%s %s %.2f %.2f", verb, channel, min, max), nil
}
