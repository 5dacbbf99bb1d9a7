package agent

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/protocol"
	"github.com/arloliu/go-flashagent/wire"
)

// scriptedTransport serves queued input bytes and records sent bytes.
type scriptedTransport struct {
	mu      sync.Mutex
	in      []byte
	out     []byte
	recvErr error
	sendErr error
}

func (s *scriptedTransport) TryReceive() (byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.in) == 0 {
		if s.recvErr != nil {
			return 0, false, s.recvErr
		}

		return 0, false, nil
	}
	b := s.in[0]
	s.in = s.in[1:]

	return b, true, nil
}

func (s *scriptedTransport) Send(b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}
	s.out = append(s.out, b)

	return nil
}

func (s *scriptedTransport) push(frames ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		s.in = append(s.in, f...)
	}
}

func (s *scriptedTransport) sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.out...)
}

func quietLogger() logger.Logger {
	return logger.NewSlogWriter(io.Discard, logger.ErrorLevel, false, false)
}

// newTestAgent returns an agent over a simulator laid out like a fresh board.
func newTestAgent(t *testing.T, opts ...Option) (*Agent, *scriptedTransport, *flash.Simulator) {
	t.Helper()

	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.DefaultLayout(sim))

	cfg, err := NewConfig(append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)

	tr := &scriptedTransport{}
	a, err := New(cfg, tr, sim)
	require.NoError(t, err)

	return a, tr, sim
}

// drain polls until the transport has no more input.
func drain(t *testing.T, a *Agent) {
	t.Helper()

	for {
		got, err := a.Poll()
		require.NoError(t, err)
		if !got {
			return
		}
	}
}

func frame(t *testing.T, cmd protocol.Command) []byte {
	t.Helper()

	f, err := wire.EncodeCommand(cmd)
	require.NoError(t, err)

	return f
}

func responses(resps ...protocol.Response) []byte {
	var out []byte
	for _, r := range resps {
		out = append(out, wire.EncodeResponse(r)...)
	}

	return out
}

func newByteReader(b []byte) io.ByteReader {
	return bytes.NewReader(b)
}
