package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

const (
	TypeUSB     = "usb"
	TypeNetwork = "network"
	TypeFile    = "file"
	TypeNone    = "none"
)

// Printer delivers raw ESC/POS bytes to a device.
type Printer interface {
	Print(ctx context.Context, data []byte) error
	// Ready reports whether a print would currently reach the device
	Ready(ctx context.Context) bool
	// Kind returns one of the Type constants
	Kind() string
}

// Config selects and addresses a printer
type Config struct {
	Type      string
	USBPath   string
	Address   string
	OutputDir string
}

// New returns the printer described by cfg.
func New(cfg Config) (Printer, error) {
	switch cfg.Type {
	case TypeUSB:
		if cfg.USBPath == "" {
			return nil, fmt.Errorf("printer: usb path is required")
		}
		return &usbPrinter{path: cfg.USBPath}, nil
	case TypeNetwork:
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required")
		}
		return &networkPrinter{address: cfg.Address, dialTimeout: 5 * time.Second}, nil
	case TypeFile:
		if cfg.OutputDir == "" {
			return nil, fmt.Errorf("printer: output dir is required")
		}
		return &filePrinter{dir: cfg.OutputDir}, nil
	case TypeNone, "":
		return nullPrinter{}, nil
	default:
		return nil, fmt.Errorf("printer: unknown type %q (use usb, network, file or none)", cfg.Type)
	}
}

// usbPrinter writes to a device node such as /dev/usb/lp0, opened per job.
type usbPrinter struct {
	path string
}

func (p *usbPrinter) Print(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.path, err)
	}
	return nil
}

func (p *usbPrinter) Ready(context.Context) bool {
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *usbPrinter) Kind() string { return TypeUSB }

// networkPrinter speaks raw TCP, usually port 9100.
type networkPrinter struct {
	address     string
	dialTimeout time.Duration
}

func (p *networkPrinter) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: p.dialTimeout}
	return d.DialContext(ctx, "tcp", p.address)
}

func (p *networkPrinter) Print(ctx context.Context, data []byte) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := p.dial(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *networkPrinter) Kind() string { return TypeNetwork }

// filePrinter stores every job as a .bin file, for shops without hardware
// attached to the server and for inspecting output.
type filePrinter struct {
	dir string
	seq atomic.Uint64
}

func (p *filePrinter) Print(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("printer: create %s: %w", p.dir, err)
	}
	name := fmt.Sprintf("receipt-%s-%03d.bin", time.Now().UTC().Format("20060102T150405.000"), p.seq.Add(1)%1000)
	if err := os.WriteFile(filepath.Join(p.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("printer: write %s: %w", name, err)
	}
	return nil
}

func (p *filePrinter) Ready(context.Context) bool {
	return os.MkdirAll(p.dir, 0o755) == nil
}

func (p *filePrinter) Kind() string { return TypeFile }

// ErrDisabled is returned by the printer configured with type none
var ErrDisabled = errors.New("printer: printing is disabled")

type nullPrinter struct{}

func (nullPrinter) Print(context.Context, []byte) error { return ErrDisabled }
func (nullPrinter) Ready(context.Context) bool          { return false }
func (nullPrinter) Kind() string                        { return TypeNone }
