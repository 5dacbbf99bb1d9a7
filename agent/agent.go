package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync/atomic"

	"github.com/arloliu/go-flashagent/dispatch"
	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/protocol"
	"github.com/arloliu/go-flashagent/wire"
)

var (
	// ErrTransportFailed indicates Run stopped after too many consecutive
	// transport failures.
	ErrTransportFailed = errors.New("agent: transport failed")
	// ErrTransportClosed indicates the transport reached end of stream.
	ErrTransportClosed = errors.New("agent: transport closed")
)

// Agent is the bootloader protocol loop bound to one transport and one
// flash driver.
//
// Poll and Run must be called from a single goroutine. State and Metrics
// may be read from any goroutine.
type Agent struct {
	cfg        *Config
	transport  Transport
	decoder    *wire.Decoder
	dispatcher *dispatch.Dispatcher
	attrs      *flashinfo.Store
	logger     logger.Logger

	state   atomic.Uint32
	metrics Metrics
}

// New loads the FlashInfo record through driver and returns an idle agent.
// A nil cfg uses the defaults of NewConfig.
func New(cfg *Config, transport Transport, driver flash.Driver) (*Agent, error) {
	if transport == nil {
		return nil, errors.New("agent: transport is nil")
	}
	if driver == nil {
		return nil, errors.New("agent: flash driver is nil")
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	attrs, err := flashinfo.Load(driver, cfg.InfoAddress())
	if err != nil {
		return nil, fmt.Errorf("agent: boot: %w", err)
	}

	identity := cfg.Identity()
	if identity == "" {
		identity = flashinfo.IdentityFor(attrs.Version())
	} else if err := flashinfo.CheckIdentity(identity, attrs.Version()); err != nil {
		return nil, fmt.Errorf("agent: boot: %w", err)
	}

	a := &Agent{
		cfg:       cfg,
		transport: transport,
		decoder:   wire.NewDecoder(),
		attrs:     attrs,
		logger:    cfg.GetLogger().With("component", "agent"),
	}

	a.dispatcher, err = dispatch.New(driver, attrs,
		dispatch.WithIdentity(identity),
		dispatch.WithLogger(cfg.GetLogger()),
		dispatch.WithHooks(dispatch.Hooks{
			OnErase:   func(uint32) { a.metrics.incPageEraseCount() },
			OnProgram: func(uint32) { a.metrics.incWordProgramCount() },
		}),
	)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("agent booted",
		"infoAddress", cfg.InfoAddress(),
		"version", attrs.Version(),
		"attributes", attrs.Len(),
	)

	return a, nil
}

// State returns the current loop state.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Metrics returns the agent counters.
func (a *Agent) Metrics() *Metrics {
	return &a.metrics
}

// Attributes returns the attribute store loaded at boot.
func (a *Agent) Attributes() *flashinfo.Store {
	return a.attrs
}

func (a *Agent) setState(s State) {
	a.state.Store(uint32(s))
}

// Poll runs one loop iteration. It reports whether a byte was consumed.
//
// When the byte completes a command, Poll dispatches it and streams the
// whole response before returning. Errors come only from the transport.
func (a *Agent) Poll() (bool, error) {
	b, ok, err := a.transport.TryReceive()
	if err != nil {
		a.metrics.incTransportErrCount()
		return false, fmt.Errorf("agent: receive: %w", err)
	}
	if !ok {
		return false, nil
	}
	a.metrics.incByteRecvCount()

	cmd, err := a.decoder.Receive(b)
	if err != nil {
		a.metrics.incDecodeErrCount()
		a.decoder.Reset()
		a.setState(DispatchingState)

		return true, a.respond(a.dispatcher.HandleDecodeError(err))
	}

	if cmd == nil {
		if a.decoder.Pending() {
			a.setState(ReceivingState)
		} else {
			a.setState(IdleState)
		}

		return true, nil
	}

	a.metrics.incCommandCount()
	a.setState(DispatchingState)

	out := a.dispatcher.Dispatch(cmd)
	if out.ResetDecoder {
		a.metrics.incResetCount()
		a.decoder.Reset()
		a.setState(IdleState)

		return true, nil
	}

	return true, a.respond(out.Response)
}

// respond streams resp to the transport, blocking on each byte.
func (a *Agent) respond(resp protocol.Response) error {
	a.setState(RespondingState)
	defer a.setState(IdleState)

	enc := wire.NewResponseEncoder(resp)
	for b, ok := enc.Next(); ok; b, ok = enc.Next() {
		if err := a.transport.Send(b); err != nil {
			a.metrics.incTransportErrCount()
			return fmt.Errorf("agent: send %s: %w", resp.Code(), err)
		}
		a.metrics.incByteSendCount()
	}
	a.metrics.countResponse(resp)

	return nil
}

// Run polls until ctx is cancelled, the transport reaches end of stream, or
// the transport fails TransportErrorLimit times in a row. It returns nil
// when ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent running", "identity", a.dispatcher.Identity())
	defer a.logger.Info("agent stopped")

	limit := a.cfg.TransportErrorLimit()
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		got, err := a.Poll()
		if err == nil {
			failures = 0
			if !got {
				runtime.Gosched()
			}

			continue
		}

		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			a.logger.Info("transport closed", "error", err)
			return fmt.Errorf("%w: %w", ErrTransportClosed, err)
		}

		failures++
		a.logger.Error("transport failure", "error", err, "consecutive", failures)
		if limit > 0 && failures >= limit {
			return fmt.Errorf("%w after %d consecutive errors: %w", ErrTransportFailed, failures, err)
		}
	}
}
