package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sensor: SensorConfig{
			Transport:            "tcp",
			SerialPort:           "/dev/ttyUSB0",
			BaudRate:             9600,
			Host:                 "localhost",
			Port:                 12345,
			SampleRate:           20 * time.Millisecond,
			BatchSize:            10,
			MaxPoints:            100,
			MaxConsecutiveErrors: 5,
			Debug:                false,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "sensor_monitor",
			Enabled:  true,
		},
		Datalog: DatalogConfig{
			Dir:    ".",
			Prefix: "sensor_log",
		},
	}
}
