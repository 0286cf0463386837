// Package psu writes power supply commands to a serial link.
package psu

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/mikesmitty/pwm-scpi/pkg/scpi"
	"go.bug.st/serial"
)

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (KORAD KA/KD supplies use 9600)
	Baud int

	// LineEnding is appended to every command. KORAD units expect none.
	LineEnding string
}

func DefaultConfig(device string) Config {
	return Config{
		Device: device,
		Baud:   9600,
	}
}

// Port sends one command per write. There is no acknowledgement channel.
type Port struct {
	w          io.Writer
	lineEnding string
	buf        []byte
}

// Open opens the serial device described by cfg.
func Open(cfg Config) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	slog.Info("opened serial port", "device", cfg.Device, "baud", cfg.Baud, "module", "psu")
	return NewPort(p, cfg.LineEnding), nil
}

// NewPort wraps any writer, such as stdout for a dry run.
func NewPort(w io.Writer, lineEnding string) *Port {
	return &Port{
		w:          w,
		lineEnding: lineEnding,
		buf:        make([]byte, 0, 32),
	}
}

func (p *Port) Send(cmd scpi.Command) error {
	p.buf = cmd.AppendText(p.buf[:0])
	p.buf = append(p.buf, p.lineEnding...)
	if _, err := p.w.Write(p.buf); err != nil {
		return fmt.Errorf("psu: write %q: %w", p.buf, err)
	}
	return nil
}

// Shutdown disables the supply output and waits for the bytes to leave the
// port when the writer supports it.
func (p *Port) Shutdown() error {
	if err := p.Send(scpi.OutputOff()); err != nil {
		return err
	}
	if d, ok := p.w.(interface{ Drain() error }); ok {
		return d.Drain()
	}
	return nil
}

func (p *Port) Close() error {
	if c, ok := p.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// ParseLineEnding interprets Go escape sequences such as `\r\n`.
func ParseLineEnding(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	out, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid line ending %q: %w", s, err)
	}
	return out, nil
}
