package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"sensor_go/internal/config"
	"sensor_go/internal/models"
	"sensor_go/pkg/logger"
)

// Tamanho máximo do histórico espelhado por canal
const maxHistorySize = 1000

// Service espelha no Redis os últimos valores agregados, o histórico
// limitado por canal e o estado de avisos da pipeline. Opera em modo
// offline quando desabilitado ou sem conexão.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:    cfg,
			connected: false,
			prefix:    cfg.Prefix,
		}, nil
	}

	// Criar contexto cancelável
	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	// Testar conexão; falha não impede a pipeline de rodar
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.connected = true
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// markDisconnected marca o serviço como desconectado após um erro
func (s *Service) markDisconnected() {
	s.mutex.Lock()
	s.connected = false
	s.mutex.Unlock()
}

// WriteFrame espelha um frame agregado: valor atual e histórico por canal
func (s *Service) WriteFrame(frame models.Frame) error {
	if !s.IsConnected() {
		return nil
	}

	// Pipeline para enviar todos os comandos de uma vez
	pipe := s.client.Pipeline()
	timestamp := frame.Timestamp.UnixNano() / int64(time.Millisecond)

	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	for channel, value := range frame.Values {
		key := fmt.Sprintf("%s:%s", s.prefix, channel)

		// Valor atual
		pipe.Set(s.ctx, key, value, 0)

		// Histórico com timestamp como score
		histKey := fmt.Sprintf("%s:history", key)
		pipe.ZAdd(s.ctx, histKey, &redis.Z{
			Score:  float64(timestamp),
			Member: fmt.Sprintf("%d:%f", timestamp, value),
		})

		// Limitar o tamanho do histórico
		pipe.ZRemRangeByRank(s.ctx, histKey, 0, int64(-(maxHistorySize + 1)))
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever frame no Redis: %w", err)
	}

	return nil
}

// WriteWarnings espelha o estado atual de avisos por canal
func (s *Service) WriteWarnings(states []models.WarningState) error {
	if !s.IsConnected() || len(states) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	anyActive := false
	for _, state := range states {
		if state.Active {
			anyActive = true
		}

		jsonData, err := json.Marshal(state)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%s:warning:%s", s.prefix, state.Channel)
		pipe.Set(s.ctx, key, string(jsonData), 0)
	}

	pipe.Set(s.ctx, fmt.Sprintf("%s:warning_active", s.prefix), anyActive, 0)

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever avisos no Redis: %w", err)
	}

	logger.Debugf("Registrados %d estados de aviso no Redis", len(states))
	return nil
}

// WriteStatus espelha o status da pipeline do sensor
func (s *Service) WriteStatus(status models.SensorStatus) error {
	if !s.IsConnected() {
		return nil
	}

	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:state", s.prefix), status.State, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:state_timestamp", s.prefix),
		status.Timestamp.UnixNano()/int64(time.Millisecond), 0)

	if status.LastError != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_erro", s.prefix), status.LastError, 0)
	}
	if status.ErrorCount > 0 {
		pipe.Set(s.ctx, fmt.Sprintf("%s:erros_consecutivos", s.prefix), status.ErrorCount, 0)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}

	return nil
}

// GetStatus obtém o status da pipeline espelhado no Redis
func (s *Service) GetStatus() (*models.SensorStatus, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	stateCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:state", s.prefix))
	if stateCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter status: %w", stateCmd.Err())
	}

	status := &models.SensorStatus{
		State:     stateCmd.Val(),
		Timestamp: time.Now(),
	}

	tsCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:state_timestamp", s.prefix))
	if tsCmd.Err() == nil {
		if ts, err := tsCmd.Int64(); err == nil {
			status.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}

	lastErrorCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:ultimo_erro", s.prefix))
	if lastErrorCmd.Err() == nil {
		status.LastError = lastErrorCmd.Val()
	}

	errorCountCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:erros_consecutivos", s.prefix))
	if errorCountCmd.Err() == nil {
		if count, err := errorCountCmd.Int(); err == nil {
			status.ErrorCount = count
		}
	}

	return status, nil
}

// GetCurrentData obtém os valores atuais por canal espelhados no Redis
func (s *Service) GetCurrentData(channels []string) (*models.Frame, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	frame := &models.Frame{
		Timestamp: time.Now(),
		Values:    make(map[string]float64, len(channels)),
	}

	tsCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix))
	if tsCmd.Err() == nil {
		if ts, err := tsCmd.Int64(); err == nil {
			frame.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}

	for _, channel := range channels {
		valCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:%s", s.prefix, channel))
		if valCmd.Err() != nil {
			continue
		}
		if val, err := valCmd.Float64(); err == nil {
			frame.Values[channel] = val
		}
	}

	if len(frame.Values) == 0 {
		return nil, fmt.Errorf("nenhum dado disponível no Redis")
	}

	return frame, nil
}

// GetHistory obtém o histórico espelhado de um canal
func (s *Service) GetHistory(channel string) ([]models.HistoryPoint, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	historyKey := fmt.Sprintf("%s:%s:history", s.prefix, channel)
	dataCmd := s.client.ZRangeWithScores(s.ctx, historyKey, 0, -1)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter histórico do canal %s: %w", channel, dataCmd.Err())
	}

	results := dataCmd.Val()
	history := make([]models.HistoryPoint, 0, len(results))

	for _, item := range results {
		member, ok := item.Member.(string)
		if !ok {
			continue
		}

		// Membro no formato "<timestamp_ms>:<valor>"
		var tsPart, valPart string
		for i := 0; i < len(member); i++ {
			if member[i] == ':' {
				tsPart = member[:i]
				valPart = member[i+1:]
				break
			}
		}
		if valPart == "" {
			continue
		}

		val, err := strconv.ParseFloat(valPart, 64)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(tsPart, 10, 64)
		if err != nil {
			continue
		}

		history = append(history, models.HistoryPoint{
			Value:     val,
			Timestamp: time.Unix(0, ts*int64(time.Millisecond)),
		})
	}

	return history, nil
}

// GetWarnings obtém os estados de aviso espelhados por canal
func (s *Service) GetWarnings(channels []string) ([]models.WarningState, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	states := make([]models.WarningState, 0, len(channels))
	for _, channel := range channels {
		dataCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:warning:%s", s.prefix, channel))
		if dataCmd.Err() != nil {
			continue
		}

		var state models.WarningState
		if err := json.Unmarshal([]byte(dataCmd.Val()), &state); err != nil {
			continue
		}
		states = append(states, state)
	}

	return states, nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
