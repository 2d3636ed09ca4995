package websocket

import (
	"context"
	"sync"
	"time"

	"sensor_go/internal/models"
	"sensor_go/pkg/logger"
)

// Controller é a superfície de controle da pipeline do sensor exposta
// aos clientes WebSocket. Implementada pelo serviço do sensor.
type Controller interface {
	MoveServo(angle int) error
	StepServo() error
	SetThresholds(channel string, min, max float64) error
	SetWarnings(channel string, min, max float64) error
	History(channel string) ([]models.HistoryPoint, error)
	Status() models.SensorStatus
	LastFrame() *models.Frame
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Superfície de controle da pipeline (definida após a construção)
	controller     Controller
	controllerLock sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256), // Buffer aumentado para evitar bloqueios
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetController define a superfície de controle usada para atender
// comandos de clientes. Deve ser chamado antes de Run.
func (h *Hub) SetController(c Controller) {
	h.controllerLock.Lock()
	defer h.controllerLock.Unlock()
	h.controller = c
}

func (h *Hub) getController() Controller {
	h.controllerLock.RLock()
	defer h.controllerLock.RUnlock()
	return h.controller
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	keepaliveTicker := time.NewTicker(5 * time.Second)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			// Contexto cancelado, encerrar o hub
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			// Registrar novo cliente
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			// Enviar dados iniciais para o cliente
			go h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			// Desregistrar cliente
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Enviar mensagem para todos os clientes
			h.mu.RLock()
			clientCount := len(h.clients)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue // Nenhum cliente conectado, pular broadcast
			}

			deadClients := make([]*Client, 0, 4)

			for client := range h.clients {
				select {
				case client.send <- message:
					// Mensagem enviada com sucesso
				default:
					// Canal do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Lidar com clientes mortos fora do lock para evitar contenção
			for _, client := range deadClients {
				h.unregister <- client
			}

		case cmd := <-h.commands:
			// Processar comando de um cliente
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			// Calcular taxa de mensagens por segundo
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}

			// Resetar contador para próximo cálculo
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()

			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-keepaliveTicker.C:
			// Enviar ping para todos os clientes para manter conexões ativas
			h.sendPingToAllClients()
		}
	}
}

// BroadcastFrame envia um frame agregado para todos os clientes
func (h *Hub) BroadcastFrame(frame models.Frame) {
	message := NewFrameMessage(frame)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de frame", err)
	}
}

// BroadcastWarnings envia os estados de aviso para todos os clientes.
// O campo alert é true apenas na transição para "algum aviso ativo".
func (h *Hub) BroadcastWarnings(states []models.WarningState, alert bool) {
	if len(states) == 0 {
		return
	}

	message := NewWarningMessage(states, alert)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de avisos", err)
	}
}

// BroadcastStatus envia atualização de status para todos os clientes
func (h *Hub) BroadcastStatus(status models.SensorStatus) {
	message := NewStatusMessage(status)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de status", err)
	}
}

// BroadcastAck retransmite um eco de comando da placa para os clientes
func (h *Hub) BroadcastAck(line string) {
	message := NewAckMessage(line)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de confirmação", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	controller := h.getController()
	if controller == nil {
		h.sendErrorToClient(cmd.ClientID, "no_controller", "Pipeline do sensor indisponível")
		return
	}

	switch cmd.Command {
	case "set_servo":
		if angle, ok := intParam(cmd.Params, "angle"); ok {
			if err := controller.MoveServo(angle); err != nil {
				h.sendErrorToClient(cmd.ClientID, "invalid_command", err.Error())
			}
		} else {
			h.sendErrorToClient(cmd.ClientID, "invalid_params", "Parâmetro 'angle' ausente ou inválido")
		}
	case "step_servo":
		if err := controller.StepServo(); err != nil {
			h.sendErrorToClient(cmd.ClientID, "invalid_command", err.Error())
		}
	case "set_thresholds":
		h.handleBoundsCommand(cmd, controller.SetThresholds)
	case "set_warnings":
		h.handleBoundsCommand(cmd, controller.SetWarnings)
	case "get_history":
		if channel, ok := stringParam(cmd.Params, "channel"); ok {
			h.sendChannelHistory(cmd.ClientID, channel)
		} else {
			h.sendErrorToClient(cmd.ClientID, "invalid_params", "Parâmetro 'channel' ausente")
		}
	case "get_status":
		h.sendCurrentStatus(cmd.ClientID)
	case "ping":
		h.sendPong(cmd.ClientID, cmd.Params)
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
		h.sendErrorToClient(cmd.ClientID, "unknown_command", "Comando não reconhecido: "+cmd.Command)
	}
}

// handleBoundsCommand processa comandos de limites (canal, min, max)
func (h *Hub) handleBoundsCommand(cmd models.ClientCommand, apply func(string, float64, float64) error) {
	channel, ok := stringParam(cmd.Params, "channel")
	if !ok {
		h.sendErrorToClient(cmd.ClientID, "invalid_params", "Parâmetro 'channel' ausente")
		return
	}
	min, okMin := floatParam(cmd.Params, "min")
	max, okMax := floatParam(cmd.Params, "max")
	if !okMin || !okMax {
		h.sendErrorToClient(cmd.ClientID, "invalid_params", "Parâmetros 'min' e 'max' obrigatórios")
		return
	}

	if err := apply(channel, min, max); err != nil {
		h.sendErrorToClient(cmd.ClientID, "invalid_command", err.Error())
	}
}

// sendChannelHistory envia o histórico de um canal para um cliente específico
func (h *Hub) sendChannelHistory(clientID string, channel string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	controller := h.getController()
	if controller == nil {
		return
	}

	history, err := controller.History(channel)
	if err != nil {
		h.sendErrorToClient(clientID, "invalid_channel", err.Error())
		return
	}

	message := NewHistoryMessage(channel, history)
	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendCurrentStatus envia status atual para um cliente específico
func (h *Hub) sendCurrentStatus(clientID string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	controller := h.getController()
	if controller == nil {
		return
	}

	message := NewStatusMessage(controller.Status())
	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	// Extrair timestamp do ping
	var pingTime int64
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if timeVal, ok := paramsMap["time"].(float64); ok {
			pingTime = int64(timeVal)
		}
	}

	pong := CreatePongResponse(pingTime)

	// Serializar e enviar apenas para o cliente solicitante
	if jsonMsg, err := SerializeMessage(pong); err == nil {
		client.send <- jsonMsg
	}
}

// sendErrorToClient envia uma mensagem de erro para um cliente específico
func (h *Hub) sendErrorToClient(clientID string, code string, message string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	errorMsg := NewErrorMessage(message, code)
	if jsonMsg, err := SerializeMessage(errorMsg); err == nil {
		client.send <- jsonMsg
	}
}

// sendInitialDataToClient envia dados iniciais para um novo cliente
func (h *Hub) sendInitialDataToClient(client *Client) {
	// Enviar mensagem de boas-vindas
	welcome := models.WebSocketMessage{
		Type:      "welcome",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao servidor Sensor Monitor",
			"clientId": client.id,
		},
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.send <- jsonMsg
	}

	controller := h.getController()
	if controller == nil {
		return
	}

	// Enviar status e último frame conhecidos
	if jsonMsg, err := SerializeMessage(NewStatusMessage(controller.Status())); err == nil {
		client.send <- jsonMsg
	}

	if frame := controller.LastFrame(); frame != nil {
		if jsonMsg, err := SerializeMessage(NewFrameMessage(*frame)); err == nil {
			client.send <- jsonMsg
		}
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(ping); err == nil {
		h.mu.RLock()
		if len(h.clients) > 0 {
			h.broadcast <- jsonMsg
		}
		h.mu.RUnlock()
	}
}

// intParam extrai um parâmetro inteiro de um mapa de parâmetros JSON
func intParam(params interface{}, key string) (int, bool) {
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if val, ok := paramsMap[key].(float64); ok {
			return int(val), true
		}
	}
	return 0, false
}

// floatParam extrai um parâmetro numérico de um mapa de parâmetros JSON
func floatParam(params interface{}, key string) (float64, bool) {
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if val, ok := paramsMap[key].(float64); ok {
			return val, true
		}
	}
	return 0, false
}

// stringParam extrai um parâmetro string de um mapa de parâmetros JSON
func stringParam(params interface{}, key string) (string, bool) {
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if val, ok := paramsMap[key].(string); ok && val != "" {
			return val, true
		}
	}
	return "", false
}
