package host

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/agent"
	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/transport"
)

func quietLogger() logger.Logger {
	return logger.NewSlogWriter(io.Discard, logger.ErrorLevel, false, false)
}

// startAgent runs an agent on a freshly laid out simulator behind a
// loopback link and returns a client connected to it.
func startAgent(t *testing.T, opts ...Option) (*Client, *flash.Simulator) {
	t.Helper()

	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.DefaultLayout(sim))

	cfg, err := agent.NewConfig(agent.WithLogger(quietLogger()))
	require.NoError(t, err)

	link := transport.NewLoopback()
	a, err := agent.New(cfg, link.Agent(), sim)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = link.Close()
		<-done
	})

	opts = append([]Option{WithLogger(quietLogger()), WithTimeout(2 * time.Second)}, opts...)
	c, err := NewClient(link.Host(), opts...)
	require.NoError(t, err)

	return c, sim
}

// cannedStream answers every read from a fixed byte sequence and records writes.
type cannedStream struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newCannedStream(resp []byte) *cannedStream {
	return &cannedStream{in: bytes.NewReader(resp)}
}

func (s *cannedStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *cannedStream) Write(p []byte) (int, error) { return s.out.Write(p) }
