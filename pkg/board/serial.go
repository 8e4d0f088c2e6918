package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the bridge firmware UART speed.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size of the raw sample buffer.
	DefaultBufferSize = 256
	// SampleTimeout bounds how long ReadRaw waits for a fresh frame.
	SampleTimeout = 50 * time.Millisecond
)

// Frame is one line streamed by the bridge firmware.
type Frame struct {
	Timestamp time.Time
	Raw       uint16         // 12-bit ADC code (0-4095)
	Levels    [numPins]Level // rotation, endstop, aux
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a board reached through the MCU bridge firmware over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      io.ReadCloser
	raws      chan uint16
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	last      *Frame

	// open opens the port; replaced in tests.
	open func(name string, baudRate int) (io.ReadCloser, error)
}

// NewSerial creates a new Serial board with the specified port, baud rate, and buffer size.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		raws:     make(chan uint16, bufSize),
		ctx:      ctx,
		cancel:   cancel,
		open:     openPort,
	}
}

func openPort(name string, baudRate int) (io.ReadCloser, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	port, err := s.open(s.port, s.baudRate)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	// A previous Close cancelled the old context.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.conn = port
	s.last = nil
	s.connected = true

	go s.readFrames(s.ctx, port)

	return nil
}

// Close closes the port and stops reading frames.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		s.conn = nil
	}

	s.connected = false

	return nil
}

// IsConnected returns whether the board is currently connected.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// ReadLevel returns the level of pin from the most recent frame.
func (s *Serial) ReadLevel(pin Pin) (Level, error) {
	if pin < 0 || pin >= numPins {
		return Low, fmt.Errorf("%w: %s", ErrUnknownPin, pin)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return Low, ErrNotConnected
	}
	if s.last == nil {
		return Low, ErrNoSample
	}
	return s.last.Levels[pin], nil
}

// ReadRaw returns the oldest queued ADC code. It waits at most SampleTimeout
// when the queue is empty. Call Flush first to read only codes that arrive
// from now on.
func (s *Serial) ReadRaw(ch Channel) (uint16, error) {
	if ch != 0 {
		return 0, fmt.Errorf("serial channel %d: %w", ch, ErrUnsupported)
	}

	s.mu.RLock()
	connected, ctx := s.connected, s.ctx
	s.mu.RUnlock()
	if !connected {
		return 0, ErrNotConnected
	}

	timer := time.NewTimer(SampleTimeout)
	defer timer.Stop()

	select {
	case raw := <-s.raws:
		return raw, nil
	case <-ctx.Done():
		return 0, ErrNotConnected
	case <-timer.C:
		return 0, ErrNoSample
	}
}

// Flush discards every queued ADC code.
func (s *Serial) Flush() {
	for {
		select {
		case <-s.raws:
		default:
			return
		}
	}
}

// readFrames reads lines from r and parses them into frames until ctx is
// cancelled or r fails.
func (s *Serial) readFrames(ctx context.Context, r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readFrames: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			frame, err := parseLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			s.mu.Lock()
			s.last = &frame
			s.mu.Unlock()

			// Keep the freshest codes: drop the oldest when full.
			select {
			case s.raws <- frame.Raw:
			default:
				select {
				case <-s.raws:
				default:
				}
				select {
				case s.raws <- frame.Raw:
				default:
				}
			}
		}
	}
}

// parseLine parses a line from the bridge into a Frame.
// Format: unix_micros,raw,rotation endstop aux
// Example: 1234567890123,2048,100
func parseLine(line string) (Frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Frame{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.Unix(0, timestampMicros*1000)

	raw, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid reading: %w", err)
	}
	if raw > adcFullScale {
		return Frame{}, fmt.Errorf("reading out of range: %d (max %d)", raw, adcFullScale)
	}

	levelStr := parts[2]
	if len(levelStr) != int(numPins) {
		return Frame{}, fmt.Errorf("invalid pin levels: expected %d digits, got %d", int(numPins), len(levelStr))
	}

	frame := Frame{
		Timestamp: timestamp,
		Raw:       uint16(raw),
	}
	for i := 0; i < int(numPins); i++ {
		switch levelStr[i] {
		case '0':
			frame.Levels[i] = Low
		case '1':
			frame.Levels[i] = High
		default:
			return Frame{}, fmt.Errorf("invalid pin level %q", levelStr[i])
		}
	}

	return frame, nil
}
