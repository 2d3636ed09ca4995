package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"sensor_go/internal/config"
	"sensor_go/internal/server"
	"sensor_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.SetLevel(logger.DEBUG) // Usar DEBUG para ter mais informações durante desenvolvimento
	logger.EnableFileLogging(logDir, "sensor")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando Sensor Monitor")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// Garantir um tick de leitura curto para não perder linhas da placa
	if cfg.Sensor.SampleRate > 100*time.Millisecond {
		logger.Warn("Tick de leitura muito longo. Definindo para 100ms")
		cfg.Sensor.SampleRate = 100 * time.Millisecond
	}

	logger.Infof("Configuração carregada: sensor via %s, Redis em %s:%d",
		cfg.Sensor.Transport, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Tick de leitura: %v, lote de %d amostras", cfg.Sensor.SampleRate, cfg.Sensor.BatchSize)

	// Criar e iniciar o servidor
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	// Criar contexto com timeout para o shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Desligar o servidor
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _______ _______ __   _ _______  _____   ______
 |______ |______ | \  | |______ |     | |_____/
 ______| |______ |  \_| ______| |_____| |    \_

 _______  _____  __   _ _____ _______  _____   ______
 |  |  | |     | | \  |   |      |    |     | |_____/
 |  |  | |_____| |  \_| __|__    |    |_____| |    \_  v1.0
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
