package board

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/wire"
)

const (
	// DefaultBaudRate is the UART rate of the firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the number of unread conversion results kept.
	DefaultBufferSize = 4
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

type conversion struct {
	raw uint32
	err error
}

// Serial is a board connected over UART. It requests conversions with the
// wire "c" command and forwards actuation results with "o". Each request
// carries a sequence number; answers to earlier requests are discarded.
type Serial struct {
	port     string
	baudRate int

	conn      io.ReadWriteCloser
	mu        sync.RWMutex
	writeMu   sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	results chan conversion
	convMu  sync.Mutex
	pending *conversion
	seq     uint32 // Sequence number of the outstanding request
	stale   uint64 // Answers discarded for a mismatched sequence

	callbacks []func(line string)
	cbMu      sync.RWMutex
}

// New creates a new Serial board for the specified port and baud rate.
func New(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		results:  make(chan conversion, DefaultBufferSize),
	}
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

// OpenSink opens a serial port for writing report lines.
func OpenSink(port string, baudRate int) (io.WriteCloser, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return conn, nil
}

// Connect opens the serial port and starts reading board lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	conn, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.attach(conn)
	return nil
}

// attach starts the line reader on conn. The caller holds d.mu.
func (d *Serial) attach(conn io.ReadWriteCloser) {
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.conn = conn
	d.connected = true

	go d.readLines(d.ctx, conn)
}

// Close closes the connection and stops the line reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// IsConnected returns whether the board is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// OnLine registers a callback for board lines that are not protocol
// messages, such as the firmware's own report lines.
func (d *Serial) OnLine(callback func(line string)) {
	d.cbMu.Lock()
	defer d.cbMu.Unlock()
	d.callbacks = append(d.callbacks, callback)
}

// StartConversion discards unread results and asks the board for a new one.
// Answers to earlier requests that arrive later are dropped by the reader.
func (d *Serial) StartConversion() error {
	d.convMu.Lock()
	d.seq++
	seq := d.seq
	d.pending = nil
	for len(d.results) > 0 {
		<-d.results
	}
	d.convMu.Unlock()

	if err := d.write(wire.AppendConvert(nil, seq)); err != nil {
		return fmt.Errorf("failed to send conversion request: %w", err)
	}
	return nil
}

// IsReady reports whether the board has answered the last request.
func (d *Serial) IsReady() bool {
	d.convMu.Lock()
	defer d.convMu.Unlock()

	if d.pending != nil {
		return true
	}
	select {
	case c := <-d.results:
		d.pending = &c
		return true
	default:
		return false
	}
}

// Read returns the answered conversion. The board's "e" reply maps to
// adc.ErrConversion.
func (d *Serial) Read() (adc.Reading, error) {
	d.convMu.Lock()
	c := d.pending
	d.pending = nil
	d.convMu.Unlock()

	if c == nil {
		return 0, adc.ErrNotReady
	}
	if c.err != nil {
		return 0, fmt.Errorf("%w: %w", adc.ErrConversion, c.err)
	}
	return adc.Reading(c.raw), nil
}

// Apply sends the actuation result to the board.
func (d *Serial) Apply(r actuate.Result) error {
	cmd := wire.AppendOutput(nil, wire.Output{Tier: r.Tier, Permille: r.Permille()})
	if err := d.write(cmd); err != nil {
		return fmt.Errorf("failed to send output command: %w", err)
	}
	return nil
}

func (d *Serial) write(p []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	_, err := d.conn.Write(p)
	return err
}

// readLines reads lines from the board and routes conversion results.
func (d *Serial) readLines(ctx context.Context, conn io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c, err := wire.ParseConversion(line)
		switch {
		case errors.Is(err, wire.ErrNotMessage):
			d.notify(line)
			continue
		case err != nil && !errors.Is(err, wire.ErrFault):
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		d.deliver(c, err)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// deliver queues an answer for the outstanding request. The sequence check
// and the queueing happen under convMu so StartConversion cannot interleave.
func (d *Serial) deliver(c wire.Conversion, err error) {
	d.convMu.Lock()
	defer d.convMu.Unlock()

	if c.Seq != d.seq {
		d.stale++
		log.Printf("Discarding stale conversion %d (waiting for %d)", c.Seq, d.seq)
		return
	}

	select {
	case d.results <- conversion{raw: c.Raw, err: err}:
	default:
		log.Printf("Conversion channel full, dropping result")
	}
}

// Stale returns the number of answers discarded because they belonged to an
// earlier request.
func (d *Serial) Stale() uint64 {
	d.convMu.Lock()
	defer d.convMu.Unlock()
	return d.stale
}

func (d *Serial) notify(line string) {
	d.cbMu.RLock()
	callbacks := make([]func(string), len(d.callbacks))
	copy(callbacks, d.callbacks)
	d.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(line)
		}
	}
}
