package transport

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-flashagent/agent"
	"github.com/arloliu/go-flashagent/internal/pool"
	"github.com/arloliu/go-flashagent/internal/queue"
)

// pipe is one direction of a loopback link.
type pipe struct {
	q      queue.Queue[byte]
	notify chan struct{}
}

func newPipe() *pipe {
	return &pipe{q: queue.NewLockFreeQueue[byte](), notify: make(chan struct{}, 1)}
}

func (p *pipe) put(b byte) {
	p.q.Enqueue(b)
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Loopback is an in-memory link between an agent and a host in the same
// process.
type Loopback struct {
	toAgent *pipe
	toHost  *pipe

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	agent *LoopbackAgent
	host  *LoopbackHost
}

// NewLoopback returns a connected agent/host pair.
func NewLoopback() *Loopback {
	l := &Loopback{
		toAgent: newPipe(),
		toHost:  newPipe(),
		done:    make(chan struct{}),
	}
	l.agent = &LoopbackAgent{link: l}
	l.host = &LoopbackHost{link: l}

	return l
}

// Agent returns the agent end.
func (l *Loopback) Agent() *LoopbackAgent { return l.agent }

// Host returns the host end.
func (l *Loopback) Host() *LoopbackHost { return l.host }

// Close shuts both ends down. Pending bytes are still delivered to the host.
func (l *Loopback) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})

	return nil
}

// LoopbackAgent is the agent end of a Loopback. TryReceive never waits.
type LoopbackAgent struct {
	link *Loopback
}

var _ agent.Transport = (*LoopbackAgent)(nil)

func (a *LoopbackAgent) TryReceive() (byte, bool, error) {
	if b, ok := a.link.toAgent.q.Dequeue(); ok {
		return b, true, nil
	}
	if a.link.closed.Load() {
		return 0, false, io.EOF
	}

	return 0, false, nil
}

func (a *LoopbackAgent) Send(b byte) error {
	if a.link.closed.Load() {
		return io.ErrClosedPipe
	}
	a.link.toHost.put(b)

	return nil
}

// LoopbackHost is the host end of a Loopback. It is an io.ReadWriter with
// read deadlines.
type LoopbackHost struct {
	link     *Loopback
	mu       sync.Mutex
	deadline time.Time
}

func (h *LoopbackHost) Write(p []byte) (int, error) {
	if h.link.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	for _, b := range p {
		h.link.toAgent.put(b)
	}

	return len(p), nil
}

// Read waits for at least one byte, the read deadline or Close.
func (h *LoopbackHost) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	h.mu.Lock()
	deadline := h.deadline
	h.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := pool.GetTimer(time.Until(deadline))
		defer pool.PutTimer(timer)
		timeout = timer.C
	}

	in := h.link.toHost
	for {
		n := 0
		for n < len(p) {
			b, ok := in.q.Dequeue()
			if !ok {
				break
			}
			p[n] = b
			n++
		}
		if n > 0 {
			return n, nil
		}

		select {
		case <-in.notify:
		case <-timeout:
			return 0, os.ErrDeadlineExceeded
		case <-h.link.done:
			if in.q.IsEmpty() {
				return 0, io.EOF
			}
		}
	}
}

// SetReadDeadline bounds future Read calls. A zero value disables the deadline.
func (h *LoopbackHost) SetReadDeadline(t time.Time) error {
	h.mu.Lock()
	h.deadline = t
	h.mu.Unlock()

	return nil
}

// Close closes the whole link.
func (h *LoopbackHost) Close() error {
	return h.link.Close()
}
