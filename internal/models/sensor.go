package models

import "time"

// ChannelKind define o tipo numérico de um canal
type ChannelKind int

const (
	// KindInteger canal de valores inteiros (ex: leitura ADC de umidade)
	KindInteger ChannelKind = iota
	// KindFloat canal de valores em ponto flutuante (ex: temperatura em °C)
	KindFloat
)

// ChannelSpec descreve um canal lógico de medição
type ChannelSpec struct {
	ID   string      `json:"id"`   // Identidade estável do canal (ex: "moisture")
	Kind ChannelKind `json:"kind"` // Tipo numérico, controla o arredondamento da média
	Unit string      `json:"unit"` // Unidade para exibição (ex: "ADC", "°C")
}

// Sample representa uma leitura decodificada de um canal
type Sample struct {
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Frame representa um conjunto sincronizado de valores agregados,
// um por canal registrado, persistido como uma linha do CSV
type Frame struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// HistoryPoint representa um ponto do histórico de um canal
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Bounds representa os limites [min,max] de um canal.
// Limites não definidos desabilitam a avaliação (canal sempre "normal").
type Bounds struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	HasMin bool    `json:"hasMin"`
	HasMax bool    `json:"hasMax"`
}

// WarningState representa o estado de aviso de um canal,
// derivado integralmente do último valor agregado e dos limites atuais
type WarningState struct {
	Channel   string    `json:"channel"`
	Active    bool      `json:"active"`
	Message   string    `json:"message,omitempty"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Estados possíveis da pipeline de leitura
const (
	StateIdle      = "idle"
	StateConnected = "connected"
	StateStreaming = "streaming"
	StateStopped   = "stopped"
	StateFaulted   = "faulted"
)

// SensorStatus representa o status atual da pipeline do sensor
type SensorStatus struct {
	State          string    `json:"state"`
	Timestamp      time.Time `json:"timestamp"`
	LastError      string    `json:"lastError,omitempty"`
	ErrorCount     int       `json:"errorCount,omitempty"`
	ConnectionInfo string    `json:"connectionInfo,omitempty"`
}

// ServoCommand representa uma solicitação de movimento do servo
type ServoCommand struct {
	Angle int `json:"angle"`
}

// BoundsCommand representa uma solicitação de configuração de limites
type BoundsCommand struct {
	Channel string  `json:"channel"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}
