package datalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sensor_go/internal/models"
	"sensor_go/pkg/logger"
	"sensor_go/pkg/utils"
)

// ErrClosed escrita após o fechamento do arquivo de log
var ErrClosed = errors.New("arquivo de log de dados fechado")

// Writer é o log durável de frames agregados em CSV. O cabeçalho é
// escrito uma única vez na criação; cada frame vira exatamente uma linha,
// descarregada em disco antes do retorno (durabilidade sobre vazão).
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	csv      *csv.Writer
	path     string
	channels []models.ChannelSpec
	closed   bool
}

// NewWriter cria o arquivo CSV com nome baseado no timestamp de criação
// e escreve o cabeçalho imediatamente
func NewWriter(dir, prefix string, channels []models.ChannelSpec, start time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("erro ao criar diretório de log de dados: %w", err)
	}

	path := filepath.Join(dir, utils.TimestampedFilename(prefix, "csv", start))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar arquivo de log de dados: %w", err)
	}

	w := &Writer{
		file:     file,
		csv:      csv.NewWriter(file),
		path:     path,
		channels: channels,
	}

	header := make([]string, 0, len(channels)+1)
	header = append(header, "timestamp")
	for _, spec := range channels {
		header = append(header, spec.ID)
	}

	if err := w.writeRow(header); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("erro ao escrever cabeçalho: %w", err)
	}

	logger.Infof("Log de dados criado em %s", path)
	return w, nil
}

// Append escreve um frame como uma linha do CSV e descarrega em disco.
// Um frame sem todos os canais registrados é recusado inteiro.
func (w *Writer) Append(frame models.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	row := make([]string, 0, len(w.channels)+1)
	row = append(row, utils.ISOTimestamp(frame.Timestamp))
	for _, spec := range w.channels {
		value, ok := frame.Values[spec.ID]
		if !ok {
			return fmt.Errorf("frame sem o canal %s", spec.ID)
		}
		row = append(row, utils.FormatValue(value, spec.Kind == models.KindInteger))
	}

	return w.writeRow(row)
}

// writeRow escreve e descarrega uma linha; chamador detém o lock (ou o
// Writer ainda não foi publicado)
func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("erro ao escrever linha: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("erro ao descarregar linha: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("erro ao sincronizar arquivo: %w", err)
	}
	return nil
}

// Path retorna o caminho do arquivo CSV desta execução
func (w *Writer) Path() string {
	return w.path
}

// Close fecha o arquivo. É idempotente; escritas posteriores retornam
// ErrClosed em vez de reabrir e duplicar o cabeçalho.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("erro ao fechar log de dados: %w", err)
	}

	logger.Infof("Log de dados fechado: %s", w.path)
	return nil
}
