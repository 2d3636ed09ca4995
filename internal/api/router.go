package api

import (
	"net/http"
	"strings"

	"sensor_go/internal/redis"
	"sensor_go/internal/sensor"
	"sensor_go/pkg/logger"
)

// Router gerencia as rotas da API
type Router struct {
	handler     *Handler
	mux         *http.ServeMux
	basePath    string
	middlewares []Middleware
}

// NewRouter cria um novo router para a API
func NewRouter(sensorService *sensor.Service, redisService *redis.Service, basePath string) *Router {
	handler := NewHandler(sensorService, redisService)

	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" && strings.HasSuffix(basePath, "/") {
		basePath = basePath[:len(basePath)-1]
	}

	// Configurar middlewares padrão
	middlewares := []Middleware{
		LoggingMiddleware,
		RecoveryMiddleware,
		CorsMiddleware,
	}

	return &Router{
		handler:     handler,
		mux:         http.NewServeMux(),
		basePath:    basePath,
		middlewares: middlewares,
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	// Rota para verificar status da pipeline
	r.mux.Handle(r.path("/status"), http.HandlerFunc(r.handler.GetStatus))

	// Rota para obter o último frame agregado
	r.mux.Handle(r.path("/current"), http.HandlerFunc(r.handler.GetCurrentData))

	// Rota para obter o histórico de um canal
	r.mux.Handle(r.path("/history/"), http.HandlerFunc(r.handler.GetHistory))

	// Rota para obter os estados de aviso
	r.mux.Handle(r.path("/warnings"), http.HandlerFunc(r.handler.GetWarnings))

	// Rota para listar os canais registrados
	r.mux.Handle(r.path("/channels"), http.HandlerFunc(r.handler.GetChannels))

	// Rotas de comando
	r.mux.Handle(r.path("/servo"), http.HandlerFunc(r.handler.PostServo))
	r.mux.Handle(r.path("/servo/step"), http.HandlerFunc(r.handler.PostServoStep))
	r.mux.Handle(r.path("/thresholds"), http.HandlerFunc(r.handler.PostThresholds))
	r.mux.Handle(r.path("/warnings/set"), http.HandlerFunc(r.handler.PostWarnings))

	logger.Infof("API configurada com base path: %s", r.basePath)
}

// Handler retorna o handler HTTP final com todos os middlewares aplicados
func (r *Router) Handler() http.Handler {
	return r.applyMiddleware(r.mux)
}

// AddMiddleware adiciona um novo middleware
func (r *Router) AddMiddleware(middleware Middleware) {
	r.middlewares = append(r.middlewares, middleware)
}

// path retorna o caminho completo para uma rota
func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}

// applyMiddleware aplica todos os middlewares ao handler
func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	if len(r.middlewares) == 0 {
		return handler
	}

	return Chain(r.middlewares...)(handler)
}

// ServeHTTP implementa a interface http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler().ServeHTTP(w, req)
}
