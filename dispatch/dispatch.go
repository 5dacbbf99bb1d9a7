// Package dispatch maps decoded commands to responses and is the only place
// the agent changes flash.
//
// Every command yields exactly one response, except Reset which yields
// none and asks the protocol loop to clear its decoder. Erase and write
// targets are validated before the flash driver is called: the range must
// lie inside flash, the address must be page aligned (erase) or word
// aligned (write) and every page touched must be ReadWrite. All validation
// and driver failures are reported as BadArguments; the caller cannot tell
// an out of range address from a protected page.
//
// ReadRange is deliberately unchecked: it reads whatever the host asks
// for, anywhere in the address space. The command is the only gate.
package dispatch

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/protocol"
)

// Policy violations found before the driver is called.
var (
	ErrUnalignedLength = errors.New("dispatch: data length is not a multiple of the word size")
	ErrNotWritable     = errors.New("dispatch: page is not writable")
)

// Outcome is the result of dispatching one command.
type Outcome struct {
	// Response to send, nil when the command has no response.
	Response protocol.Response
	// ResetDecoder asks the protocol loop to discard its partial frame.
	ResetDecoder bool
}

// Hooks are optional callbacks invoked after successful flash operations.
// They run synchronously on the dispatching goroutine.
type Hooks struct {
	OnErase   func(addr uint32)
	OnProgram func(addr uint32)
}

// Dispatcher executes commands against a flash driver and attribute store.
//
// Dispatcher is not goroutine-safe. It owns the flash for the lifetime of
// the agent; the single protocol loop is its only caller.
type Dispatcher struct {
	driver   flash.Driver
	attrs    *flashinfo.Store
	identity string
	logger   logger.Logger
	hooks    Hooks
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithIdentity sets the string returned by Info. The default is flashinfo.Identity.
func WithIdentity(identity string) Option {
	return func(d *Dispatcher) { d.identity = identity }
}

// WithLogger sets the logger. The default is the package default logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithHooks installs flash operation callbacks.
func WithHooks(h Hooks) Option {
	return func(d *Dispatcher) { d.hooks = h }
}

// New creates a Dispatcher over driver and attrs.
func New(driver flash.Driver, attrs *flashinfo.Store, opts ...Option) (*Dispatcher, error) {
	if driver == nil {
		return nil, errors.New("dispatch: flash driver is nil")
	}
	if attrs == nil {
		return nil, errors.New("dispatch: attribute store is nil")
	}

	d := &Dispatcher{
		driver:   driver,
		attrs:    attrs,
		identity: flashinfo.Identity,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatch")

	return d, nil
}

// Identity returns the string returned by Info.
func (d *Dispatcher) Identity() string {
	return d.identity
}

// Dispatch executes cmd and returns its outcome. It never panics on
// decoded input.
func (d *Dispatcher) Dispatch(cmd protocol.Command) Outcome {
	switch c := cmd.(type) {
	case protocol.Ping:
		return respond(protocol.Pong)

	case protocol.Info:
		return respond(protocol.InfoResponse{Info: d.identity})

	case protocol.Reset:
		return Outcome{ResetDecoder: true}

	case protocol.ErasePage:
		return respond(d.erasePage(c))

	case protocol.WritePage:
		return respond(d.writePage(c))

	case protocol.ReadRange:
		return respond(d.readRange(c))

	case protocol.GetAttr:
		return respond(d.getAttr(c))

	case protocol.Unimplemented:
		d.logger.Debug("unimplemented command",
			"command", c.Command.String(),
			"recognized", c.Command.Recognized(),
			"payloadLen", len(c.Payload),
		)

		return respond(protocol.Unknown)

	default:
		d.logger.Debug("unhandled command type", "type", fmt.Sprintf("%T", cmd))

		return respond(protocol.Unknown)
	}
}

// HandleDecodeError returns the response for a frame the codec could not decode.
func (d *Dispatcher) HandleDecodeError(err error) protocol.Response {
	d.logger.Warn("decode failure", "error", err)

	return protocol.InternalError
}

func respond(resp protocol.Response) Outcome {
	return Outcome{Response: resp}
}

func (d *Dispatcher) erasePage(c protocol.ErasePage) protocol.Response {
	if err := d.checkWritable(c.Address, flash.PageSize, flash.IsPageAligned); err != nil {
		d.logger.Debug("erase rejected", "address", c.Address, "error", err)
		return protocol.BadArguments
	}

	if err := d.driver.ErasePage(c.Address); err != nil {
		d.logger.Debug("erase failed", "address", c.Address, "error", err)
		return protocol.BadArguments
	}
	if d.hooks.OnErase != nil {
		d.hooks.OnErase(c.Address)
	}

	return protocol.Ok
}

// writePage programs the data one big-endian word at a time. It stops at
// the first failing word; words already programmed stay programmed.
func (d *Dispatcher) writePage(c protocol.WritePage) protocol.Response {
	if len(c.Data)%flash.WordSize != 0 {
		d.logger.Debug("write rejected", "address", c.Address, "len", len(c.Data), "error", ErrUnalignedLength)
		return protocol.BadArguments
	}
	if len(c.Data) == 0 {
		return protocol.Ok
	}
	if err := d.checkWritable(c.Address, len(c.Data), flash.IsWordAligned); err != nil {
		d.logger.Debug("write rejected", "address", c.Address, "len", len(c.Data), "error", err)
		return protocol.BadArguments
	}

	for off := 0; off < len(c.Data); off += flash.WordSize {
		addr := c.Address + uint32(off) //nolint:gosec // range checked above
		word := binary.BigEndian.Uint32(c.Data[off:])

		if err := d.driver.ProgramWord(addr, word); err != nil {
			d.logger.Debug("write failed",
				"address", addr,
				"wordsWritten", off/flash.WordSize,
				"error", err,
			)

			return protocol.BadArguments
		}
		if d.hooks.OnProgram != nil {
			d.hooks.OnProgram(addr)
		}
	}

	return protocol.Ok
}

func (d *Dispatcher) readRange(c protocol.ReadRange) protocol.Response {
	data := d.driver.Read(c.Address, int(c.Length))
	if len(data) != int(c.Length) {
		fixed := make([]byte, c.Length)
		copy(fixed, data)
		data = fixed
	}

	return protocol.ReadRangeResponse{Data: data}
}

func (d *Dispatcher) getAttr(c protocol.GetAttr) protocol.Response {
	attr, ok := d.attrs.Lookup(int(c.Index))
	if !ok {
		d.logger.Debug("attribute index out of range", "index", c.Index)
		return protocol.BadArguments
	}

	return protocol.GetAttrResponse{Key: attr.Key[:], Length: attr.Length, Value: attr.Value[:]}
}

// checkWritable validates [addr, addr+length) before the driver is touched.
func (d *Dispatcher) checkWritable(addr uint32, length int, aligned func(uint32) bool) error {
	if !flash.InRange(addr, length) {
		return fmt.Errorf("%w: 0x%08X+%d", flash.ErrOutOfRange, addr, length)
	}
	if !aligned(addr) {
		return fmt.Errorf("%w: 0x%08X", flash.ErrMisaligned, addr)
	}

	first, last := flash.PagesSpanned(addr, length)
	for page := first; page <= last; page++ {
		if mode := d.driver.ProtectionOf(page); !mode.Writable() {
			return fmt.Errorf("%w: page %d is %s", ErrNotWritable, page, mode)
		}
	}

	return nil
}
