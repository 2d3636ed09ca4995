package sensor

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"sensor_go/internal/config"
	"sensor_go/pkg/logger"
)

const (
	// Timeout curto de leitura para o tick não bloquear
	readPollTimeout = 5 * time.Millisecond

	// Timeout de escrita de comandos
	writeTimeout = 2 * time.Second

	// Tamanho do buffer de leitura por tick
	readChunkSize = 256
)

// Transport abstrai o enlace de linha com a placa de sensores.
// TryReadLine nunca bloqueia além do timeout curto de poll: retorna ""
// quando nenhuma linha completa está disponível no momento.
type Transport interface {
	Connect() error
	TryReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	Description() string
}

// NewTransport cria o transporte configurado ("serial" ou "tcp")
func NewTransport(cfg config.SensorConfig) (Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "serial":
		return NewSerialTransport(cfg.SerialPort, cfg.BaudRate), nil
	case "tcp":
		return NewTCPTransport(cfg.Host, cfg.Port), nil
	default:
		return nil, fmt.Errorf("transporte não suportado: %s", cfg.Transport)
	}
}

// lineBuffer acumula bytes recebidos e extrai linhas completas
type lineBuffer struct {
	partial []byte
	lines   []string
}

// feed adiciona um bloco de bytes e separa as linhas completas
func (b *lineBuffer) feed(data []byte) {
	b.partial = append(b.partial, data...)
	for {
		idx := -1
		for i, c := range b.partial {
			if c == '\n' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		line := strings.TrimRight(string(b.partial[:idx]), "\r")
		b.partial = b.partial[idx+1:]
		b.lines = append(b.lines, line)
	}
}

// pop retorna a linha completa mais antiga, se houver
func (b *lineBuffer) pop() (string, bool) {
	if len(b.lines) == 0 {
		return "", false
	}
	line := b.lines[0]
	b.lines = b.lines[1:]
	return line, true
}

// TCPTransport conecta ao simulador de placa via socket TCP
type TCPTransport struct {
	conn      net.Conn
	host      string
	port      int
	connected bool
	mutex     sync.Mutex
	buf       lineBuffer
	readBuf   []byte
}

// NewTCPTransport cria um novo transporte TCP
func NewTCPTransport(host string, port int) *TCPTransport {
	return &TCPTransport{
		host:    host,
		port:    port,
		readBuf: make([]byte, readChunkSize),
	}
}

// Connect estabelece conexão com o simulador
func (t *TCPTransport) Connect() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connected {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	logger.Infof("Tentando conectar ao sensor em %s...", addr)

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("erro ao conectar ao sensor: %w", err)
	}

	t.conn = conn
	t.connected = true
	logger.Infof("Conectado ao sensor em %s", addr)
	return nil
}

// TryReadLine lê uma linha completa, se disponível neste tick
func (t *TCPTransport) TryReadLine() (string, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if line, ok := t.buf.pop(); ok {
		return line, nil
	}

	if !t.connected {
		return "", fmt.Errorf("transporte TCP não conectado")
	}

	t.conn.SetReadDeadline(time.Now().Add(readPollTimeout))
	n, err := t.conn.Read(t.readBuf)
	if n > 0 {
		t.buf.feed(t.readBuf[:n])
	}
	if err != nil {
		// Timeout do poll significa apenas "nada neste tick"
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			if line, ok := t.buf.pop(); ok {
				return line, nil
			}
			return "", nil
		}
		t.connected = false
		return "", fmt.Errorf("erro ao ler do sensor: %w", err)
	}

	if line, ok := t.buf.pop(); ok {
		return line, nil
	}
	return "", nil
}

// WriteLine envia uma linha de comando para o simulador
func (t *TCPTransport) WriteLine(line string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.connected {
		return fmt.Errorf("transporte TCP não conectado")
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := t.conn.Write([]byte(line + "\n")); err != nil {
		t.connected = false
		return fmt.Errorf("erro ao enviar comando: %w", err)
	}
	return nil
}

// Close fecha a conexão com o simulador
func (t *TCPTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.connected = false
		logger.Info("Conexão TCP com o sensor fechada")
	}
	return nil
}

// Description retorna uma descrição do enlace para logs e status
func (t *TCPTransport) Description() string {
	return fmt.Sprintf("tcp://%s:%d", t.host, t.port)
}

// SerialTransport conecta à placa real via porta serial
type SerialTransport struct {
	port      serial.Port
	portName  string
	baudRate  int
	connected bool
	mutex     sync.Mutex
	buf       lineBuffer
	readBuf   []byte
}

// NewSerialTransport cria um novo transporte serial
func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		baudRate: baudRate,
		readBuf:  make([]byte, readChunkSize),
	}
}

// Connect abre a porta serial
func (t *SerialTransport) Connect() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connected {
		return nil
	}

	logger.Infof("Abrindo porta serial %s a %d baud...", t.portName, t.baudRate)

	mode := &serial.Mode{
		BaudRate: t.baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.portName, mode)
	if err != nil {
		return fmt.Errorf("erro ao abrir porta serial %s: %w", t.portName, err)
	}

	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return fmt.Errorf("erro ao configurar timeout da porta serial: %w", err)
	}

	t.port = port
	t.connected = true
	logger.Infof("Porta serial %s aberta", t.portName)

	// Aguardar o reset da placa após abrir a porta
	time.Sleep(2 * time.Second)
	return nil
}

// TryReadLine lê uma linha completa, se disponível neste tick
func (t *SerialTransport) TryReadLine() (string, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if line, ok := t.buf.pop(); ok {
		return line, nil
	}

	if !t.connected {
		return "", fmt.Errorf("porta serial não aberta")
	}

	// Com SetReadTimeout, Read retorna n == 0 sem erro quando não há dados
	n, err := t.port.Read(t.readBuf)
	if err != nil {
		t.connected = false
		return "", fmt.Errorf("erro ao ler da porta serial: %w", err)
	}
	if n > 0 {
		t.buf.feed(t.readBuf[:n])
	}

	if line, ok := t.buf.pop(); ok {
		return line, nil
	}
	return "", nil
}

// WriteLine envia uma linha de comando para a placa
func (t *SerialTransport) WriteLine(line string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.connected {
		return fmt.Errorf("porta serial não aberta")
	}

	if _, err := t.port.Write([]byte(line + "\n")); err != nil {
		t.connected = false
		return fmt.Errorf("erro ao enviar comando: %w", err)
	}
	return nil
}

// Close fecha a porta serial
func (t *SerialTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.port != nil {
		t.port.Close()
		t.port = nil
		t.connected = false
		logger.Infof("Porta serial %s fechada", t.portName)
	}
	return nil
}

// Description retorna uma descrição do enlace para logs e status
func (t *SerialTransport) Description() string {
	return fmt.Sprintf("serial://%s@%d", t.portName, t.baudRate)
}
