package printer

import (
	"bytes"
	"net"
	"sync"
	"time"
)

// ESC/POS byte sequences understood by the Epson-compatible thermal printers
// on the floor.
var (
	escInit    = []byte{0x1b, 0x40}             // reset formatting
	escBoldOn  = []byte{0x1b, 0x45, 0x01}
	escBoldOff = []byte{0x1b, 0x45, 0x00}
	escCenter  = []byte{0x1b, 0x61, 0x01}
	escLeft    = []byte{0x1b, 0x61, 0x00}
	escCut     = []byte{0x1d, 0x56, 0x42, 0x00} // feed + partial cut
	escDrawer  = []byte{0x1b, 0x70, 0x00, 0x19, 0xfa}
)

// Doc buffers print primitives until Execute sends them in one shot.
type Doc struct{ buf bytes.Buffer }

func NewDoc() *Doc {
	d := &Doc{}
	d.buf.Write(escInit)
	return d
}

func (d *Doc) Bold(on bool) {
	if on {
		d.buf.Write(escBoldOn)
	} else {
		d.buf.Write(escBoldOff)
	}
}

func (d *Doc) AlignCenter() { d.buf.Write(escCenter) }
func (d *Doc) AlignLeft()   { d.buf.Write(escLeft) }

func (d *Doc) Print(s string)   { d.buf.WriteString(s) }
func (d *Doc) Println(s string) { d.buf.WriteString(s + "\n") }

func (d *Doc) Cut()            { d.buf.Write(escCut) }
func (d *Doc) OpenCashDrawer() { d.buf.Write(escDrawer) }

func (d *Doc) Bytes() []byte { return d.buf.Bytes() }

// Endpoint is one physical printer. Conn is the TCP implementation; tests
// register fakes.
type Endpoint interface {
	IsConnected() bool
	Send(d *Doc) error
}

// Conn talks raw ESC/POS over TCP port 9100. One job at a time per printer:
// Send holds the mutex for the whole dial/write/close cycle.
type Conn struct {
	addr    string
	timeout time.Duration
	mu      sync.Mutex
}

func NewConn(ip string, timeout time.Duration) *Conn {
	return &Conn{addr: net.JoinHostPort(ip, "9100"), timeout: timeout}
}

func (c *Conn) IsConnected() bool {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (c *Conn) Send(d *Doc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, err = conn.Write(d.Bytes())
	return err
}
