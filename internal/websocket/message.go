package websocket

import (
	"encoding/json"
	"time"

	"sensor_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewFrameMessage cria uma nova mensagem de frame agregado
func NewFrameMessage(frame models.Frame) *models.FrameMessage {
	return &models.FrameMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "frame",
			Timestamp: frame.Timestamp,
		},
		Values: frame.Values,
	}
}

// NewWarningMessage cria uma nova mensagem de estados de aviso
func NewWarningMessage(states []models.WarningState, alert bool) *models.WarningMessage {
	return &models.WarningMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "warnings",
			Timestamp: time.Now(),
		},
		Warnings: states,
		Alert:    alert,
	}
}

// NewStatusMessage cria uma nova mensagem de status
func NewStatusMessage(status models.SensorStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		State:      status.State,
		LastError:  status.LastError,
		ErrorCount: status.ErrorCount,
	}
}

// NewHistoryMessage cria uma nova mensagem com histórico de um canal
func NewHistoryMessage(channel string, history []models.HistoryPoint) *models.HistoryMessage {
	return &models.HistoryMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "history",
			Timestamp: time.Now(),
		},
		Channel: channel,
		History: history,
	}
}

// NewAckMessage cria uma nova mensagem de eco de comando da placa
func NewAckMessage(line string) *models.AckMessage {
	return &models.AckMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ack",
			Timestamp: time.Now(),
		},
		Line: line,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// CreatePongResponse cria uma resposta para um ping do cliente
func CreatePongResponse(pingTime int64) *models.PongMessage {
	return &models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}
}
