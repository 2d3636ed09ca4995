package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level representa o nível de log
type Level int

const (
	// DEBUG nível para mensagens detalhadas de depuração
	DEBUG Level = iota
	// INFO nível para informações gerais
	INFO
	// WARN nível para avisos
	WARN
	// ERROR nível para erros
	ERROR
	// FATAL nível para erros fatais (encerra o programa)
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	// Nível mínimo de log
	logLevel = INFO

	// Saídas de log
	stdOutput io.Writer = os.Stdout
	errOutput io.Writer = os.Stderr

	// Arquivos de log, quando habilitados
	fileOutput    io.WriteCloser
	fileOutputErr io.WriteCloser

	// Formato de timestamp
	timeFormat = "2006-01-02 15:04:05.000"

	// Flag para incluir o nome do arquivo nos logs
	includeFile = true

	// Mutex para operações de configuração e escrita
	mu sync.Mutex
)

// SetLevel define o nível mínimo de log
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
}

// GetLevel retorna o nível atual de log
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return logLevel
}

// IsDebugEnabled verifica se o nível de debug está habilitado
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// SetOutput define a saída para todos os logs
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdOutput = w
	errOutput = w
}

// SetTimeFormat define o formato de timestamp
func SetTimeFormat(format string) {
	mu.Lock()
	defer mu.Unlock()
	timeFormat = format
}

// EnableFileLogging habilita o log para arquivo com nome baseado em timestamp
func EnableFileLogging(logDir, prefix string) error {
	mu.Lock()

	// Criar diretório, se não existir
	if err := os.MkdirAll(logDir, 0755); err != nil {
		mu.Unlock()
		return fmt.Errorf("erro ao criar diretório de log: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	if prefix != "" {
		prefix = prefix + "_"
	}

	logFilePath := filepath.Join(logDir, fmt.Sprintf("%s%s.log", prefix, timestamp))
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		mu.Unlock()
		return fmt.Errorf("erro ao criar arquivo de log: %w", err)
	}

	errFilePath := filepath.Join(logDir, fmt.Sprintf("%s%s_error.log", prefix, timestamp))
	errFile, err := os.OpenFile(errFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile.Close()
		mu.Unlock()
		return fmt.Errorf("erro ao criar arquivo de log de erro: %w", err)
	}

	// Fechar arquivos anteriores, se existirem
	if fileOutput != nil {
		fileOutput.Close()
	}
	if fileOutputErr != nil {
		fileOutputErr.Close()
	}

	fileOutput = logFile
	fileOutputErr = errFile

	// Saídas mistas (terminal + arquivo)
	stdOutput = io.MultiWriter(os.Stdout, logFile)
	errOutput = io.MultiWriter(os.Stderr, errFile)
	mu.Unlock()

	Info("Logging iniciado")
	return nil
}

// Sync fecha os arquivos de log abertos
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if fileOutput != nil {
		fileOutput.Close()
		fileOutput = nil
	}
	if fileOutputErr != nil {
		fileOutputErr.Close()
		fileOutputErr = nil
	}
}

// logMessage escreve uma mensagem de log com o nível especificado
func logMessage(level Level, format string, args ...interface{}) {
	mu.Lock()
	if level < logLevel {
		mu.Unlock()
		return
	}

	out := stdOutput
	if level >= ERROR {
		out = errOutput
	}

	timestamp := time.Now().Format(timeFormat)

	// Fonte do log (arquivo e linha)
	var source string
	if includeFile {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			source = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	var msg string
	if len(args) == 0 {
		msg = format
	} else {
		msg = fmt.Sprintf(format, args...)
	}

	fmt.Fprintf(out, "[%s] %s%s: %s\n", timestamp, levelNames[level], source, msg)
	mu.Unlock()

	// Se for FATAL, finalizar o programa
	if level == FATAL {
		panic(msg)
	}
}

// Debug escreve mensagem de log com nível DEBUG
func Debug(msg string) {
	logMessage(DEBUG, "%s", msg)
}

// Debugf escreve mensagem de log formatada com nível DEBUG
func Debugf(format string, args ...interface{}) {
	logMessage(DEBUG, format, args...)
}

// Info escreve mensagem de log com nível INFO
func Info(msg string) {
	logMessage(INFO, "%s", msg)
}

// Infof escreve mensagem de log formatada com nível INFO
func Infof(format string, args ...interface{}) {
	logMessage(INFO, format, args...)
}

// Warn escreve mensagem de log com nível WARN
func Warn(msg string) {
	logMessage(WARN, "%s", msg)
}

// Warnf escreve mensagem de log formatada com nível WARN
func Warnf(format string, args ...interface{}) {
	logMessage(WARN, format, args...)
}

// Error escreve mensagem de log com nível ERROR
func Error(msg string, err error) {
	if err != nil {
		logMessage(ERROR, "%s: %v", msg, err)
	} else {
		logMessage(ERROR, "%s", msg)
	}
}

// Errorf escreve mensagem de log formatada com nível ERROR
func Errorf(format string, args ...interface{}) {
	logMessage(ERROR, format, args...)
}

// Fatal escreve mensagem de log com nível FATAL e encerra o programa
func Fatal(msg string, err error) {
	if err != nil {
		logMessage(FATAL, "%s: %v", msg, err)
	} else {
		logMessage(FATAL, "%s", msg)
	}
}

// Fatalf escreve mensagem de log formatada com nível FATAL e encerra o programa
func Fatalf(format string, args ...interface{}) {
	logMessage(FATAL, format, args...)
}
