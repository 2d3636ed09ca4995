package server

import (
	"encoding/json"
	"net/http"
	"time"

	"sensor_go/internal/api"
	"sensor_go/internal/discovery"
	"sensor_go/internal/websocket"
	"sensor_go/pkg/utils"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	// Criar handlers
	wsHandler := websocket.NewHandler(s.wsHub)

	// Router da API REST, montado sob /api
	apiRouter := api.NewRouter(s.sensorService, s.redisService, "/api")
	apiRouter.Setup()

	// Middleware comum para as rotas fora da API
	wrap := api.Chain(api.LoggingMiddleware, api.RecoveryMiddleware, api.CorsMiddleware)

	// Endpoint de saúde
	s.router.Handle("/health", wrap(http.HandlerFunc(s.healthHandler)))

	// Endpoint de informações do servidor
	s.router.Handle("/info", wrap(http.HandlerFunc(s.infoHandler)))

	// Endpoint de descoberta manual
	s.router.Handle("/api/discover", wrap(http.HandlerFunc(s.discoverHandler)))

	// Endpoint de informações completas do servidor
	s.router.Handle("/api/server-info", wrap(http.HandlerFunc(s.serverInfoHandler)))

	// WebSocket
	s.router.Handle("/ws", wsHandler)
	s.router.Handle("/ws/health", wrap(wsHandler.GetHealthHandler()))

	// API REST
	s.router.Handle("/api/", apiRouter)
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Verificar status dos serviços
	sensorStatus := "ok"
	if s.sensorService != nil && !s.sensorService.IsRunning() {
		sensorStatus = "offline"
	}

	redisStatus := "ok"
	if s.redisService != nil && !s.redisService.IsConnected() {
		redisStatus = "offline"
	}

	discoveryStatus := "ok"
	if s.discoveryService != nil && !s.discoveryService.IsRunning() {
		discoveryStatus = "offline"
	}

	// Construir resposta
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"services": map[string]string{
			"sensor":    sensorStatus,
			"redis":     redisStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
		},
	}

	// Se algum serviço crítico estiver offline, alterar status geral
	if sensorStatus == "offline" || redisStatus == "offline" {
		response["status"] = "degraded"
	}

	// Enviar resposta
	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Obter informações do servidor
	info := s.GetServerInfo()

	// Construir resposta
	response := map[string]interface{}{
		"name":        "Sensor Monitor",
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"startTime":   info.StartTime,
		"uptime":      utils.FormatDuration(time.Since(info.StartTime)),
		"connections": info.Connections,
	}

	// Enviar resposta
	json.NewEncoder(w).Encode(response)
}

// serverInfoHandler retorna informações completas sobre o servidor
func (s *Server) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Obter informações do servidor
	info := s.GetServerInfo()

	// Adicionar informações do serviço de descoberta
	discoveryInfo := map[string]interface{}{
		"enabled":      s.discoveryService != nil,
		"running":      s.discoveryService != nil && s.discoveryService.IsRunning(),
		"instanceName": s.discoveryService.GetInstanceName(),
		"serviceType":  discovery.ServiceType,
	}

	// Construir resposta
	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":        "Sensor Monitor",
			"version":     info.Version,
			"ip":          info.IP,
			"port":        info.Port,
			"websocket":   info.WebSocketURL,
			"api":         info.APIURL,
			"startTime":   info.StartTime,
			"uptime":      utils.FormatDuration(time.Since(info.StartTime)),
			"connections": info.Connections,
		},
		"discovery": discoveryInfo,
		"services": map[string]interface{}{
			"sensor": map[string]interface{}{
				"running":   s.sensorService != nil && s.sensorService.IsRunning(),
				"transport": s.config.Sensor.Transport,
				"state":     s.sensorService.Status().State,
				"datalog":   s.sensorService.DatalogPath(),
			},
			"redis": map[string]interface{}{
				"enabled":   s.config.Redis.Enabled,
				"connected": s.redisService != nil && s.redisService.IsConnected(),
				"host":      s.config.Redis.Host,
				"port":      s.config.Redis.Port,
			},
		},
	}

	// Enviar resposta
	json.NewEncoder(w).Encode(response)
}

// discoverHandler fornece informações para descoberta manual
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Obter informações do servidor
	info := s.GetServerInfo()

	// Construir resposta
	response := map[string]interface{}{
		"name":        "Sensor Monitor",
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
	}

	// Enviar resposta
	json.NewEncoder(w).Encode(response)
}
