package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sensor_go/internal/config"
	"sensor_go/internal/datalog"
	"sensor_go/internal/history"
	"sensor_go/internal/models"
	"sensor_go/internal/redis"
	"sensor_go/internal/warning"
	"sensor_go/internal/websocket"
	"sensor_go/pkg/logger"
)

// FrameHandler é um tipo de função para receber frames agregados
type FrameHandler func(frame models.Frame)

// Service gerencia a pipeline de leitura do sensor: transporte → parser →
// agregador → (histórico, avisos, CSV, broadcast, Redis)
type Service struct {
	transport    Transport
	config       config.SensorConfig
	datalogCfg   config.DatalogConfig
	redisService *redis.Service
	wsHub        *websocket.Hub

	channels   []models.ChannelSpec
	channelIDs []string
	parser     *LineParser
	encoder    *CommandEncoder
	aggregator *Aggregator
	history    *history.Store
	thresholds *warning.Registry
	warnings   *warning.Evaluator
	alertLatch warning.AlertLatch
	datalog    *datalog.Writer

	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mutex   sync.RWMutex

	status            models.SensorStatus
	consecutiveErrors int
	lastErrorMsg      string
	lastFrame         *models.Frame
	lastWarnings      []models.WarningState

	frameHandlers []FrameHandler
	handlersLock  sync.RWMutex

	// Flag para envio assíncrono para o Redis
	asyncRedis bool
}

// NewService cria um novo serviço da pipeline do sensor
func NewService(cfg config.SensorConfig, datalogCfg config.DatalogConfig,
	redisService *redis.Service, wsHub *websocket.Hub) (*Service, error) {

	channels := DefaultChannels()
	channelIDs := ChannelIDs(channels)

	aggregator, err := NewAggregator(channels, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar agregador: %w", err)
	}

	store, err := history.NewStore(cfg.MaxPoints, channelIDs)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar histórico: %w", err)
	}

	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar transporte: %w", err)
	}

	// Criar contexto cancelável
	ctx, cancel := context.WithCancel(context.Background())

	service := &Service{
		transport:    transport,
		config:       cfg,
		datalogCfg:   datalogCfg,
		redisService: redisService,
		wsHub:        wsHub,
		channels:     channels,
		channelIDs:   channelIDs,
		parser:       NewLineParser(channels),
		encoder:      NewCommandEncoder(channels),
		aggregator:   aggregator,
		history:      store,
		thresholds:   warning.NewRegistry(channelIDs),
		warnings:     warning.NewEvaluator(channelIDs),
		ctx:          ctx,
		cancel:       cancel,
		asyncRedis:   true, // Ativar por padrão
		status: models.SensorStatus{
			State:          models.StateIdle,
			Timestamp:      time.Now(),
			ConnectionInfo: transport.Description(),
		},
	}

	return service, nil
}

// Start inicia a pipeline de leitura do sensor
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	logger.Infof("Iniciando pipeline do sensor (%s)", s.transport.Description())

	// O log de dados é obrigatório: sem CSV a execução não tem registro durável
	writer, err := datalog.NewWriter(s.datalogCfg.Dir, s.datalogCfg.Prefix, s.channels, time.Now())
	if err != nil {
		return fmt.Errorf("erro ao abrir log de dados: %w", err)
	}
	s.datalog = writer

	// Tentar conectar ao sensor
	if err := s.transport.Connect(); err != nil {
		logger.Warnf("Erro na conexão inicial com o sensor: %v. Tentando novamente no ciclo de coleta.", err)
		// Não retornar erro aqui, deixar o loop de coleta tentar reconectar
	} else {
		s.setStatusLocked(models.StateConnected, "")
	}

	// Iniciar goroutine para coletar dados
	go s.collectData()

	s.running = true
	return nil
}

// Stop para a pipeline do sensor
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	logger.Info("Parando pipeline do sensor")
	s.cancel()
	s.transport.Close()
	s.closeDatalogLocked()
	s.running = false
	s.setStatusLocked(models.StateStopped, "")
}

// IsRunning verifica se a pipeline está em execução
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// RegisterFrameHandler registra uma função para receber frames agregados
func (s *Service) RegisterFrameHandler(handler FrameHandler) {
	s.handlersLock.Lock()
	defer s.handlersLock.Unlock()
	s.frameHandlers = append(s.frameHandlers, handler)
}

// Channels retorna os canais registrados da pipeline
func (s *Service) Channels() []models.ChannelSpec {
	return s.channels
}

// ChannelIDs retorna os identificadores dos canais registrados
func (s *Service) ChannelIDs() []string {
	return s.channelIDs
}

// Status retorna o status atual da pipeline
func (s *Service) Status() models.SensorStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}

// LastFrame retorna o último frame agregado, ou nil antes do primeiro lote
func (s *Service) LastFrame() *models.Frame {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastFrame
}

// CurrentWarnings retorna os estados de aviso da última avaliação
func (s *Service) CurrentWarnings() []models.WarningState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]models.WarningState, len(s.lastWarnings))
	copy(out, s.lastWarnings)
	return out
}

// History retorna o histórico retido de um canal
func (s *Service) History(channel string) ([]models.HistoryPoint, error) {
	if !s.history.HasChannel(channel) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return s.history.Snapshot(channel), nil
}

// DatalogPath retorna o caminho do CSV desta execução
func (s *Service) DatalogPath() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.datalog == nil {
		return ""
	}
	return s.datalog.Path()
}

// SetAsyncRedis configura o envio assíncrono para o Redis
func (s *Service) SetAsyncRedis(async bool) {
	s.asyncRedis = async
}

// MoveServo envia o comando de movimento absoluto do servo
func (s *Service) MoveServo(angle int) error {
	line, err := s.encoder.EncodeServo(angle)
	if err != nil {
		return err
	}
	return s.sendCommand(line)
}

// StepServo envia o comando de passo único do servo
func (s *Service) StepServo() error {
	return s.sendCommand(s.encoder.EncodeStepServo())
}

// SetThresholds valida, registra e envia os limites operacionais de um canal
func (s *Service) SetThresholds(channel string, min, max float64) error {
	line, err := s.encoder.EncodeThreshold(channel, min, max)
	if err != nil {
		return err
	}
	if err := s.thresholds.Set(channel, min, max); err != nil {
		return err
	}
	return s.sendCommand(line)
}

// SetWarnings valida, registra e envia os níveis de aviso de um canal.
// Os níveis passam a valer no próximo frame agregado.
func (s *Service) SetWarnings(channel string, min, max float64) error {
	line, err := s.encoder.EncodeWarning(channel, min, max)
	if err != nil {
		return err
	}
	if err := s.warnings.SetBounds(channel, min, max); err != nil {
		return err
	}
	return s.sendCommand(line)
}

// Thresholds retorna os limites operacionais registrados de um canal
func (s *Service) Thresholds(channel string) (models.Bounds, bool) {
	return s.thresholds.Get(channel)
}

// WarningBounds retorna os níveis de aviso registrados de um canal
func (s *Service) WarningBounds(channel string) (models.Bounds, bool) {
	return s.warnings.Bounds(channel)
}

// sendCommand envia uma linha de comando validada para a placa
func (s *Service) sendCommand(line string) error {
	logger.Infof("[TX] %s", line)
	if err := s.transport.WriteLine(line); err != nil {
		return fmt.Errorf("erro ao enviar comando ao sensor: %w", err)
	}
	return nil
}

// collectData executa o loop principal de coleta de dados do sensor
func (s *Service) collectData() {
	ticker := time.NewTicker(s.config.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processTick()
		}
	}
}

// processTick processa um ciclo de coleta: lê no máximo uma linha completa
// e a encaminha pela pipeline
func (s *Service) processTick() {
	line, err := s.transport.TryReadLine()
	if err != nil {
		s.handleConnectionError(err)
		return
	}

	if line == "" {
		// Nenhuma linha completa neste tick
		return
	}

	// Resetar contador de erros se comunicação bem sucedida
	if s.consecutiveErrors > 0 {
		logger.Infof("Comunicação com o sensor restaurada após %d tentativas", s.consecutiveErrors)
		s.consecutiveErrors = 0
	}

	parsed, err := s.parser.Parse(line)
	if err != nil {
		// Linha malformada não derruba o fluxo: registrar e seguir
		if errors.Is(err, ErrLineRejected) {
			logger.Debugf("Linha rejeitada: %v", err)
		} else {
			logger.Errorf("Erro ao decodificar linha do sensor: %v", err)
		}
		return
	}

	if parsed.Ack != "" {
		// Eco de comando da placa: retransmitir, não é dado de medição
		logger.Infof("[RX] %s", parsed.Ack)
		if s.wsHub != nil {
			s.wsHub.BroadcastAck(parsed.Ack)
		}
		return
	}

	// Primeira leitura de dados válida marca o início do streaming
	if s.Status().State != models.StateStreaming {
		s.updateStatus(models.StateStreaming, "")
	}

	frame, err := s.aggregator.Offer(parsed.Samples)
	if err != nil {
		logger.Errorf("Erro ao agregar amostras: %v", err)
		return
	}
	if frame == nil {
		// Lote ainda acumulando
		return
	}

	s.handleFrame(*frame)
}

// handleFrame distribui um frame agregado para todos os consumidores
func (s *Service) handleFrame(frame models.Frame) {
	// Histórico por canal
	for _, channel := range s.channelIDs {
		if value, ok := frame.Values[channel]; ok {
			s.history.Append(channel, models.HistoryPoint{
				Value:     value,
				Timestamp: frame.Timestamp,
			})
		}
	}

	// Avaliar avisos sobre o frame completo
	states := s.warnings.EvaluateFrame(frame, s.channelIDs)
	alert := s.alertLatch.Observe(states)
	if alert {
		for _, state := range states {
			if state.Active {
				logger.Warnf("ALERTA: %s", state.Message)
			}
		}
	}

	// Registrar no CSV; falha de escrita não derruba a pipeline
	s.mutex.Lock()
	if s.datalog != nil {
		if err := s.datalog.Append(frame); err != nil && !errors.Is(err, datalog.ErrClosed) {
			logger.Errorf("Erro ao escrever no log de dados: %v", err)
		}
	}
	frameCopy := frame
	s.lastFrame = &frameCopy
	s.lastWarnings = states
	s.mutex.Unlock()

	if s.config.Debug {
		logger.Debugf("Frame agregado: %v", frame.Values)
	}

	// PRIORIDADE 1: Enviar via WebSocket imediatamente
	if s.wsHub != nil {
		s.wsHub.BroadcastFrame(frame)
		s.wsHub.BroadcastWarnings(states, alert)
	}

	// PRIORIDADE 2: Notificar handlers registrados
	s.notifyFrameHandlers(frame)

	// PRIORIDADE 3: Espelhar no Redis (potencialmente assíncrono)
	if s.redisService != nil && s.redisService.IsConnected() {
		if s.asyncRedis {
			// Usar goroutine para não bloquear o ciclo de coleta
			go s.mirrorToRedis(frame, states)
		} else {
			s.mirrorToRedis(frame, states)
		}
	}
}

// mirrorToRedis espelha um frame e seus avisos no Redis
func (s *Service) mirrorToRedis(frame models.Frame, states []models.WarningState) {
	if err := s.redisService.WriteFrame(frame); err != nil {
		logger.Errorf("Erro ao escrever frame no Redis: %v", err)
	}
	if err := s.redisService.WriteWarnings(states); err != nil {
		logger.Errorf("Erro ao escrever avisos no Redis: %v", err)
	}
}

// notifyFrameHandlers notifica todos os handlers registrados
func (s *Service) notifyFrameHandlers(frame models.Frame) {
	s.handlersLock.RLock()
	handlers := s.frameHandlers
	s.handlersLock.RUnlock()

	for _, handler := range handlers {
		handler(frame) // Chamada síncrona
	}
}

// handleConnectionError trata erros de leitura do sensor. Erros transitórios
// são contados; exceder o máximo configurado leva a pipeline ao estado de
// falha e encerra a coleta.
func (s *Service) handleConnectionError(err error) {
	s.consecutiveErrors++
	s.lastErrorMsg = err.Error()

	logger.Errorf("Erro ao comunicar com o sensor: %v. Tentativa %d de %d",
		err, s.consecutiveErrors, s.config.MaxConsecutiveErrors)

	if s.consecutiveErrors < s.config.MaxConsecutiveErrors {
		// Tentar reconectar no próximo ciclo
		if connErr := s.transport.Connect(); connErr != nil {
			logger.Debugf("Reconexão falhou: %v", connErr)
		}
		return
	}

	// Falha definitiva: parar a coleta preservando o CSV escrito até aqui
	logger.Errorf("Limite de erros consecutivos atingido (%d). Encerrando a coleta.",
		s.config.MaxConsecutiveErrors)

	s.mutex.Lock()
	s.cancel()
	s.transport.Close()
	s.closeDatalogLocked()
	s.running = false
	s.setStatusLocked(models.StateFaulted, s.lastErrorMsg)
	s.mutex.Unlock()
}

// updateStatus atualiza o status da pipeline e propaga aos consumidores
func (s *Service) updateStatus(state string, errorMsg string) {
	s.mutex.Lock()
	s.setStatusLocked(state, errorMsg)
	s.mutex.Unlock()
}

// setStatusLocked atualiza o status; chamador detém o lock
func (s *Service) setStatusLocked(state string, errorMsg string) {
	s.status = models.SensorStatus{
		State:          state,
		Timestamp:      time.Now(),
		LastError:      errorMsg,
		ErrorCount:     s.consecutiveErrors,
		ConnectionInfo: s.transport.Description(),
	}
	status := s.status

	// Espelhar status no Redis sem bloquear o chamador
	if s.redisService != nil && s.redisService.IsConnected() {
		go func() {
			if err := s.redisService.WriteStatus(status); err != nil {
				logger.Errorf("Erro ao escrever status no Redis: %v", err)
			}
		}()
	}

	// Enviar atualização de status via WebSocket
	if s.wsHub != nil {
		s.wsHub.BroadcastStatus(status)
	}

	if state == models.StateFaulted {
		logger.Warnf("Estado da pipeline alterado para %s: %s", state, errorMsg)
	} else {
		logger.Infof("Estado da pipeline alterado para %s", state)
	}
}

// closeDatalogLocked fecha o CSV; chamador detém o lock
func (s *Service) closeDatalogLocked() {
	if s.datalog == nil {
		return
	}
	if err := s.datalog.Close(); err != nil {
		logger.Errorf("Erro ao fechar log de dados: %v", err)
	}
}
