package transport

import (
	"bufio"
	"errors"
	"net"
	"os"
	"time"

	"github.com/arloliu/go-flashagent/agent"
)

// Conn is the agent end of a stream connection.
//
// Conn is not goroutine-safe; it belongs to the agent loop.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	opts   options
	buf    [1]byte
}

var _ agent.Transport = (*Conn)(nil)

// NewConn wraps conn.
func NewConn(conn net.Conn, opts ...Option) (*Conn, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Conn{conn: conn, reader: bufio.NewReader(conn), opts: o}, nil
}

// TryReceive returns a buffered byte immediately, otherwise waits up to the
// poll timeout for one.
func (c *Conn) TryReceive() (byte, bool, error) {
	if c.reader.Buffered() == 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.pollTimeout)); err != nil {
			return 0, false, err
		}
	}

	b, err := c.reader.ReadByte()
	if err != nil {
		if isTimeout(err) {
			return 0, false, nil
		}

		return 0, false, err
	}

	return b, true, nil
}

// Send writes b, blocking until the connection accepts it.
func (c *Conn) Send(b byte) error {
	if c.opts.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout)); err != nil {
			return err
		}
	}
	c.buf[0] = b
	_, err := c.conn.Write(c.buf[:])

	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
