package models

import "time"

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "frame", "warnings", "status", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// FrameMessage é uma mensagem específica para frames agregados do sensor
type FrameMessage struct {
	WebSocketMessage
	Values map[string]float64 `json:"values"`
}

// WarningMessage é uma mensagem específica para avisos de limites
type WarningMessage struct {
	WebSocketMessage
	Warnings []WarningState `json:"warnings"`
	Alert    bool           `json:"alert"` // true apenas na transição para "algum aviso ativo"
}

// StatusMessage é uma mensagem específica para atualizações de status
type StatusMessage struct {
	WebSocketMessage
	State      string `json:"state"`
	LastError  string `json:"lastError,omitempty"`
	ErrorCount int    `json:"errorCount,omitempty"`
}

// HistoryMessage é uma mensagem específica para histórico de um canal
type HistoryMessage struct {
	WebSocketMessage
	Channel string         `json:"channel"`
	History []HistoryPoint `json:"history"`
}

// AckMessage é uma mensagem para ecos de comando do dispositivo (ex: ACK_SERVO)
type AckMessage struct {
	WebSocketMessage
	Line string `json:"line"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string      `json:"type"`             // Tipo de comando: "set_servo", "get_history", etc.
	Params interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string      `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command  string      `json:"command"`
	Params   interface{} `json:"params,omitempty"`
	ClientID string      `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo cliente
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
