package transport

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/term"

	"github.com/arloliu/go-flashagent/agent"
)

// Serial is the agent end of a serial line.
type Serial struct {
	t        *term.Term
	opts     options
	rx       [1]byte
	tx       [1]byte
	deadline time.Time
}

var _ agent.Transport = (*Serial)(nil)

// OpenSerial opens the tty device in raw mode at the configured baud rate.
func OpenSerial(device string, opts ...Option) (*Serial, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	t, err := term.Open(device, term.Speed(o.baudRate), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}
	if err := t.SetReadTimeout(o.pollTimeout); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", device, err)
	}

	return &Serial{t: t, opts: o}, nil
}

// TryReceive waits up to the poll timeout for one byte.
func (s *Serial) TryReceive() (byte, bool, error) {
	n, err := s.t.Read(s.rx[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}

	return s.rx[0], true, nil
}

// Send writes b, blocking until the tty accepts it.
func (s *Serial) Send(b byte) error {
	s.tx[0] = b
	_, err := s.t.Write(s.tx[:])

	return err
}

// SetReadDeadline bounds Read. A zero deadline makes Read wait forever.
func (s *Serial) SetReadDeadline(t time.Time) error {
	s.deadline = t
	return nil
}

// Read implements io.Reader for the host side of a serial line. It waits
// for at least one byte or the read deadline, whichever comes first.
func (s *Serial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := s.t.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			return 0, os.ErrDeadlineExceeded
		}
	}
}

// Write implements io.Writer for the host side of a serial line.
func (s *Serial) Write(p []byte) (int, error) {
	return s.t.Write(p)
}

// Close restores the tty and closes it.
func (s *Serial) Close() error {
	_ = s.t.Restore()
	return s.t.Close()
}
