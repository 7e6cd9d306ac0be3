package simport

import (
	"bufio"
	"fmt"
	"os"

	"github.com/creack/pty"
	"github.com/pkg/term"

	"github.com/sandocean-ovo/ovos/internal/klog"
)

// Console is a pseudo-terminal-backed debug console for the
// simulator: connect to the slave device logged at startup and type
// "stats" to query kernel state. This is the host-simulation analog
// of the teacher's own virtual KISS TNC pty mode (src/kiss.go's
// kisspt_open_pt), which also pairs a creack/pty master/slave with
// pkg/term's raw-mode line discipline.
type Console struct {
	log   *klog.Logger
	ptmx  *os.File
	slave *term.Term
	stats func() string
}

// OpenConsole creates a pty pair and reopens the slave side in raw
// mode, the same combination of libraries the teacher applies
// separately to a real serial device (serial_port_open) and to its
// pty-backed TNC mode.
func OpenConsole(log *klog.Logger, stats func() string) (*Console, error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("simport: opening console pty: %w", err)
	}

	raw, err := term.Open(pts.Name(), term.RawMode)
	pts.Close()
	if err != nil {
		ptmx.Close()
		return nil, fmt.Errorf("simport: raw mode on console pty: %w", err)
	}

	log.Info("debug console ready", "device", pts.Name())
	return &Console{log: log, ptmx: ptmx, slave: raw, stats: stats}, nil
}

// Serve reads newline-terminated commands until the pty is closed out
// from under it. The only command is "stats"; anything else gets a
// one-line usage hint. Meant to run in its own goroutine.
func (c *Console) Serve() {
	scanner := bufio.NewScanner(c.ptmx)
	for scanner.Scan() {
		switch scanner.Text() {
		case "stats":
			fmt.Fprintln(c.ptmx, c.stats())
		default:
			fmt.Fprintln(c.ptmx, `unknown command; try "stats"`)
		}
	}
}

// Close releases the pty master and the raw-mode slave handle.
func (c *Console) Close() error {
	c.slave.Close()
	return c.ptmx.Close()
}
