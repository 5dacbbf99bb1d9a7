package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/logger"
	"github.com/arloliu/go-flashagent/protocol"
	"github.com/arloliu/go-flashagent/wire"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Client talks to one agent. Commands are serialized; Client is safe for
// concurrent use.
type Client struct {
	mu      sync.Mutex
	rw      io.ReadWriter
	reader  *bufio.Reader
	timeout time.Duration
	logger  logger.Logger
}

// NewClient returns a client over rw.
func NewClient(rw io.ReadWriter, opts ...Option) (*Client, error) {
	if rw == nil {
		return nil, errors.New("host: stream is nil")
	}

	c := &Client{
		rw:      rw,
		reader:  bufio.NewReader(rw),
		timeout: DefaultTimeout,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "host")

	return c, nil
}

// Do sends cmd and returns the agent's response. Failure responses are
// returned as responses, not errors. Reset has no response; Do returns a
// nil response for it.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	frame, err := wire.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.rw.Write(frame); err != nil {
		return nil, fmt.Errorf("host: send %s: %w", cmd.Code(), err)
	}
	if _, ok := cmd.(protocol.Reset); ok {
		return nil, nil
	}

	if err := c.setDeadline(ctx); err != nil {
		return nil, err
	}

	resp, err := wire.ReadResponse(c.reader, cmd)
	if err != nil {
		// Drop whatever is left of a broken or late frame.
		c.reader.Reset(c.rw)
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, cmd.Code())
		}

		return nil, fmt.Errorf("host: receive %s: %w", cmd.Code(), err)
	}
	c.logger.Debug("round trip", "command", cmd.Code().String(), "response", resp.Code().String())

	return resp, nil
}

func (c *Client) setDeadline(ctx context.Context) error {
	d, ok := c.rw.(readDeadliner)
	if !ok {
		return nil
	}

	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}

	return d.SetReadDeadline(deadline)
}

// call runs Do and turns failure responses into errors.
func (c *Client) call(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	resp, err := c.Do(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := responseError(cmd, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// expect runs call and requires resp to be a T.
func expect[T protocol.Response](ctx context.Context, c *Client, cmd protocol.Command) (T, error) {
	var zero T

	resp, err := c.call(ctx, cmd)
	if err != nil {
		return zero, err
	}
	out, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s for %s", wire.ErrUnexpectedResponse, resp.Code(), cmd.Code())
	}

	return out, nil
}

// Ping checks the agent is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := expect[protocol.PongResponse](ctx, c, protocol.Ping{})
	return err
}

// Info returns the agent identity string.
func (c *Client) Info(ctx context.Context) (string, error) {
	resp, err := expect[protocol.InfoResponse](ctx, c, protocol.Info{})
	if err != nil {
		return "", err
	}

	return resp.Info, nil
}

// Reset clears any partial frame on the agent. The agent does not answer.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.Reset{})
	return err
}

// ErasePage erases the page starting at addr.
func (c *Client) ErasePage(ctx context.Context, addr uint32) error {
	_, err := expect[protocol.OkResponse](ctx, c, protocol.ErasePage{Address: addr})
	return err
}

// WritePage programs data at addr. len(data) must be a multiple of 4 and at
// most wire.MaxWriteData.
func (c *Client) WritePage(ctx context.Context, addr uint32, data []byte) error {
	_, err := expect[protocol.OkResponse](ctx, c, protocol.WritePage{Address: addr, Data: data})
	return err
}

// ReadRange reads length bytes at addr.
func (c *Client) ReadRange(ctx context.Context, addr uint32, length uint16) ([]byte, error) {
	resp, err := expect[protocol.ReadRangeResponse](ctx, c, protocol.ReadRange{Address: addr, Length: length})
	if err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// GetAttr returns attribute slot index exactly as stored on the device.
func (c *Client) GetAttr(ctx context.Context, index uint8) (flashinfo.Attribute, error) {
	var attr flashinfo.Attribute

	resp, err := expect[protocol.GetAttrResponse](ctx, c, protocol.GetAttr{Index: index})
	if err != nil {
		return attr, err
	}

	copy(attr.Key[:], resp.Key)
	copy(attr.Value[:], resp.Value)
	attr.Length = resp.Length

	return attr, nil
}

// Attributes returns all attribute slots, blank ones included.
func (c *Client) Attributes(ctx context.Context) ([]flashinfo.Attribute, error) {
	attrs := make([]flashinfo.Attribute, 0, flashinfo.NumAttributes)
	for i := 0; i < flashinfo.NumAttributes; i++ {
		attr, err := c.GetAttr(ctx, uint8(i)) //nolint:gosec // bounded by NumAttributes
		if err != nil {
			return nil, fmt.Errorf("host: attribute %d: %w", i, err)
		}
		attrs = append(attrs, attr)
	}

	return attrs, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
