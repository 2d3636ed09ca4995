package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor_go/internal/config"
	"sensor_go/internal/datalog"
	"sensor_go/internal/models"
	"sensor_go/internal/redis"
	"sensor_go/internal/sensor"
	"sensor_go/internal/warning"
)

// Coletor de linha de comando: lê a placa de sensores, agrega e registra
// em CSV sem subir o servidor HTTP/WebSocket. Útil para bancada.

// Configurações globais
const (
	// Configurações gerais
	SampleRate = 20 * time.Millisecond
	BatchSize  = 10

	// Níveis de aviso iniciais (opcionais)
	MoistureWarnMin = 300.0
	MoistureWarnMax = 800.0
)

func main() {
	// Configuração de log
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("=== Iniciando Coleta da Placa de Sensores ===")

	// Carregar configurações (config.json, .env, variáveis de ambiente)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configurações: %v", err)
	}
	cfg.Sensor.SampleRate = SampleRate
	cfg.Sensor.BatchSize = BatchSize

	channels := sensor.DefaultChannels()
	channelIDs := sensor.ChannelIDs(channels)

	// Montar a pipeline: transporte → parser → agregador → CSV
	transport, err := sensor.NewTransport(cfg.Sensor)
	if err != nil {
		log.Fatalf("Erro ao criar transporte: %v", err)
	}
	defer transport.Close()

	parser := sensor.NewLineParser(channels)

	aggregator, err := sensor.NewAggregator(channels, cfg.Sensor.BatchSize)
	if err != nil {
		log.Fatalf("Erro ao criar agregador: %v", err)
	}

	writer, err := datalog.NewWriter(cfg.Datalog.Dir, cfg.Datalog.Prefix, channels, time.Now())
	if err != nil {
		log.Fatalf("Erro ao criar log de dados: %v", err)
	}
	defer writer.Close()

	// Avaliador de avisos com níveis iniciais para a umidade
	evaluator := warning.NewEvaluator(channelIDs)
	if err := evaluator.SetBounds(sensor.ChannelMoisture, MoistureWarnMin, MoistureWarnMax); err != nil {
		log.Fatalf("Erro ao configurar níveis de aviso: %v", err)
	}
	var latch warning.AlertLatch

	// Espelho no Redis (opcional, segue a configuração)
	mirror, err := redis.NewService(cfg.Redis)
	if err != nil {
		log.Fatalf("Erro ao inicializar Redis: %v", err)
	}
	defer mirror.Shutdown()

	if err := transport.Connect(); err != nil {
		log.Fatalf("Erro ao conectar ao sensor: %v", err)
	}

	fmt.Println("\n=== Coleta em andamento ===")
	fmt.Printf("Enlace: %s\n", transport.Description())
	fmt.Printf("Lote: %d amostras por média\n", cfg.Sensor.BatchSize)
	fmt.Printf("CSV: %s\n", writer.Path())
	fmt.Println("===========================")

	log.Println("Pressione Ctrl+C para interromper.")

	// Configura canal para capturar sinais de interrupção
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Configura ticker para coletar dados periodicamente
	ticker := time.NewTicker(cfg.Sensor.SampleRate)
	defer ticker.Stop()

	var consecutiveErrors int
	frames := 0

	// Loop principal
	for {
		select {
		case <-sigChan:
			log.Printf("\nProcesso interrompido pelo usuário. %d frames registrados em %s",
				frames, writer.Path())
			return
		case <-ticker.C:
			line, err := transport.TryReadLine()
			if err != nil {
				consecutiveErrors++
				log.Printf("Erro ao ler do sensor: %v. Tentativa %d de %d",
					err, consecutiveErrors, cfg.Sensor.MaxConsecutiveErrors)

				if consecutiveErrors >= cfg.Sensor.MaxConsecutiveErrors {
					log.Printf("ALERTA: Múltiplas falhas de comunicação com o sensor. "+
						"Verifique a conexão física! Encerrando com %d frames registrados.", frames)
					return
				}
				transport.Connect()
				continue
			}

			if line == "" {
				continue
			}

			if consecutiveErrors > 0 {
				log.Printf("Comunicação com o sensor restaurada após %d tentativas", consecutiveErrors)
				consecutiveErrors = 0
			}

			parsed, err := parser.Parse(line)
			if err != nil {
				if errors.Is(err, sensor.ErrLineRejected) {
					// Linha malformada: descartar e seguir lendo
					continue
				}
				log.Printf("Erro ao decodificar linha: %v", err)
				continue
			}

			if parsed.Ack != "" {
				log.Printf("[RX] %s", parsed.Ack)
				continue
			}

			frame, err := aggregator.Offer(parsed.Samples)
			if err != nil {
				log.Printf("Erro ao agregar amostras: %v", err)
				continue
			}
			if frame == nil {
				continue
			}

			if err := writer.Append(*frame); err != nil {
				log.Printf("Erro ao escrever no CSV: %v", err)
			}
			frames++

			// Avaliar avisos e disparar alerta na transição
			states := evaluator.EvaluateFrame(*frame, channelIDs)
			if latch.Observe(states) {
				for _, state := range states {
					if state.Active {
						log.Printf("ALERTA: %s", state.Message)
					}
				}
			}

			// Espelhar no Redis quando disponível
			if mirror.IsConnected() {
				if err := mirror.WriteFrame(*frame); err != nil {
					log.Printf("Erro ao escrever frame no Redis: %v", err)
				}
			}

			if frames%50 == 0 {
				log.Printf("%d frames registrados (último: %s)", frames, formatFrame(*frame, channels))
			}
		}
	}
}

// formatFrame formata um frame para o log da bancada
func formatFrame(frame models.Frame, channels []models.ChannelSpec) string {
	out := ""
	for i, spec := range channels {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%.2f%s", spec.ID, frame.Values[spec.ID], spec.Unit)
	}
	return out
}
