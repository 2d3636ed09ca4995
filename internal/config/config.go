package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server  ServerConfig  `json:"server"`
	Sensor  SensorConfig  `json:"sensor"`
	Redis   RedisConfig   `json:"redis"`
	Datalog DatalogConfig `json:"datalog"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// SensorConfig contém configurações da placa de sensores (serial ou simulador TCP)
type SensorConfig struct {
	Transport            string        `json:"transport"`  // "serial" ou "tcp"
	SerialPort           string        `json:"serialPort"` // ex: "COM6" ou "/dev/ttyUSB0"
	BaudRate             int           `json:"baudRate"`
	Host                 string        `json:"host"` // Simulador TCP
	Port                 int           `json:"port"`
	SampleRate           time.Duration `json:"sampleRate"` // Intervalo do tick de leitura
	BatchSize            int           `json:"batchSize"`  // Amostras brutas por média
	MaxPoints            int           `json:"maxPoints"`  // Capacidade do histórico por canal
	MaxConsecutiveErrors int           `json:"maxConsecutiveErrors"`
	Debug                bool          `json:"debug"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// DatalogConfig contém configurações do log CSV de frames agregados
type DatalogConfig struct {
	Dir    string `json:"dir"`    // Diretório dos arquivos CSV
	Prefix string `json:"prefix"` // Prefixo do nome do arquivo
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	// Carregar .env se existir; ausência não é erro
	_ = godotenv.Load()

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}

	if v := os.Getenv("SENSOR_TRANSPORT"); v != "" {
		config.Sensor.Transport = v
	}
	if v := os.Getenv("SENSOR_SERIAL_PORT"); v != "" {
		config.Sensor.SerialPort = v
	}
	if v := os.Getenv("SENSOR_BAUD_RATE"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			config.Sensor.BaudRate = baud
		}
	}
	if v := os.Getenv("SENSOR_HOST"); v != "" {
		config.Sensor.Host = v
	}
	if v := os.Getenv("SENSOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Sensor.Port = port
		}
	}
	if v := os.Getenv("SENSOR_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size >= 1 {
			config.Sensor.BatchSize = size
		}
	}

	if v := os.Getenv("REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Redis.Enabled = enabled
		}
	}

	if v := os.Getenv("DATALOG_DIR"); v != "" {
		config.Datalog.Dir = v
	}
}
