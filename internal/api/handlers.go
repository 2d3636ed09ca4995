package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sensor_go/internal/models"
	"sensor_go/internal/redis"
	"sensor_go/internal/sensor"
	"sensor_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	sensorService *sensor.Service
	redisService  *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(sensorService *sensor.Service, redisService *redis.Service) *Handler {
	return &Handler{
		sensorService: sensorService,
		redisService:  redisService,
	}
}

// GetStatus retorna o status atual da pipeline do sensor
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	status := h.sensorService.Status()

	// Formatar resposta
	response := map[string]interface{}{
		"state":     status.State,
		"timestamp": status.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	if status.ConnectionInfo != "" {
		response["connection"] = status.ConnectionInfo
	}
	if status.LastError != "" {
		response["lastError"] = status.LastError
	}
	if status.ErrorCount > 0 {
		response["errorCount"] = status.ErrorCount
	}
	if path := h.sensorService.DatalogPath(); path != "" {
		response["datalog"] = path
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetCurrentData retorna o último frame agregado
func (h *Handler) GetCurrentData(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	frame := h.sensorService.LastFrame()

	// Se a pipeline ainda não produziu um frame, tentar o espelho no Redis
	if frame == nil && h.redisService != nil && h.redisService.IsConnected() {
		redisFrame, err := h.redisService.GetCurrentData(h.sensorService.ChannelIDs())
		if err == nil && redisFrame != nil {
			frame = redisFrame
		}
	}

	if frame == nil {
		h.respondWithError(w, http.StatusNotFound, "Nenhum dado disponível")
		return
	}

	// Formatar resposta
	response := map[string]interface{}{
		"values":    frame.Values,
		"timestamp": frame.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetHistory retorna o histórico retido de um canal (/api/history/{canal})
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	// Extrair canal da URL
	parts := strings.Split(r.URL.Path, "/")
	channel := parts[len(parts)-1]
	if channel == "" || channel == "history" {
		h.respondWithError(w, http.StatusBadRequest, "Canal não fornecido")
		return
	}

	history, err := h.sensorService.History(channel)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Canal inválido: %s", channel))
		return
	}

	if history == nil {
		history = []models.HistoryPoint{}
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"channel": channel,
		"history": history,
	})
}

// GetWarnings retorna os estados de aviso da última avaliação
func (h *Handler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	warnings := h.sensorService.CurrentWarnings()
	if warnings == nil {
		warnings = []models.WarningState{}
	}

	h.respondWithJSON(w, http.StatusOK, warnings)
}

// GetChannels retorna os canais registrados da pipeline
func (h *Handler) GetChannels(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.sensorService.Channels())
}

// PostServo envia um comando de movimento do servo
func (h *Handler) PostServo(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var cmd models.ServoCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if err := h.sensorService.MoveServo(cmd.Angle); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"angle": cmd.Angle,
	})
}

// PostServoStep envia um comando de passo único do servo
func (h *Handler) PostServoStep(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if err := h.sensorService.StepServo(); err != nil {
		h.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// PostThresholds configura os limites operacionais de um canal
func (h *Handler) PostThresholds(w http.ResponseWriter, r *http.Request) {
	h.handleBounds(w, r, h.sensorService.SetThresholds)
}

// PostWarnings configura os níveis de aviso de um canal
func (h *Handler) PostWarnings(w http.ResponseWriter, r *http.Request) {
	h.handleBounds(w, r, h.sensorService.SetWarnings)
}

// handleBounds processa um comando de limites (canal, min, max)
func (h *Handler) handleBounds(w http.ResponseWriter, r *http.Request, apply func(string, float64, float64) error) {
	// Verificar método HTTP
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var cmd models.BoundsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if err := apply(cmd.Channel, cmd.Min, cmd.Max); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"channel": cmd.Channel,
		"min":     cmd.Min,
		"max":     cmd.Max,
	})
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		// Se falhar ao codificar JSON, tentar responder com erro simples
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
