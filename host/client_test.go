package host

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/protocol"
	"github.com/arloliu/go-flashagent/transport"
	"github.com/arloliu/go-flashagent/wire"
)

func TestNewClient_Options(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	s := newCannedStream(nil)
	_, err = NewClient(s, WithTimeout(-1))
	require.Error(t, err)
	_, err = NewClient(s, WithLogger(nil))
	require.Error(t, err)

	c, err := NewClient(s, WithTimeout(0))
	require.NoError(t, err)
	assert.Zero(t, c.timeout)
}

func TestClient_PingInfo(t *testing.T) {
	c, _ := startAgent(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, flashinfo.Identity, info)
}

func TestClient_Attributes(t *testing.T) {
	c, _ := startAgent(t)
	ctx := context.Background()

	attr, err := c.GetAttr(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "board", attr.KeyString())
	assert.Equal(t, "stellaris launchpad", attr.ValueString())

	attrs, err := c.Attributes(ctx)
	require.NoError(t, err)
	require.Len(t, attrs, flashinfo.NumAttributes)

	ref := flashinfo.Reference()
	for i := range attrs {
		assert.Equal(t, ref.Attributes[i], attrs[i], "slot %d", i)
	}

	_, err = c.GetAttr(ctx, 20)
	require.ErrorIs(t, err, ErrBadArguments)
}

func TestClient_GetAttrKeepsSlotVerbatim(t *testing.T) {
	want, err := flashinfo.NewAttribute("k", "ab\x00")
	require.NoError(t, err)
	want.Value[3] = 'X'
	want.Value[flashinfo.ValueSize-1] = 0x7F

	s := newCannedStream(wire.EncodeResponse(protocol.GetAttrResponse{
		Key:    want.Key[:],
		Length: want.Length,
		Value:  want.Value[:],
	}))
	c, err := NewClient(s, WithLogger(quietLogger()))
	require.NoError(t, err)

	got, err := c.GetAttr(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, uint8(3), got.Length, "trailing zero inside the value is kept")
	assert.Equal(t, "ab\x00", got.ValueString())
}

func TestClient_EraseWriteRead(t *testing.T) {
	c, sim := startAgent(t)
	ctx := context.Background()
	data := []byte{0xFC, 0xFC, 0x00, 0x01, 0xDE, 0xAD, 0xBE, 0xEF}

	require.NoError(t, c.ErasePage(ctx, 0x20000))
	require.NoError(t, c.WritePage(ctx, 0x20000, data))

	got, err := c.ReadRange(ctx, 0x20000, uint16(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, data, sim.Read(0x20000, len(data)))
}

func TestClient_Rejections(t *testing.T) {
	c, sim := startAgent(t)
	ctx := context.Background()

	require.ErrorIs(t, c.ErasePage(ctx, flashinfo.DefaultBase), ErrBadArguments)
	require.ErrorIs(t, c.ErasePage(ctx, 0), ErrBadArguments, "bootloader pages are execute only")
	require.ErrorIs(t, c.WritePage(ctx, 0x20000, make([]byte, 6)), ErrBadArguments)

	erases, programs := sim.Counts()
	assert.Zero(t, erases)
	assert.Zero(t, programs)
}

func TestClient_UnknownCommand(t *testing.T) {
	c, _ := startAgent(t)
	ctx := context.Background()

	cmd := protocol.Unimplemented{Command: protocol.CmdChangeBaud, Payload: []byte{0x01, 0x00, 0xC2, 0x01, 0x00}}
	resp, err := c.Do(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, protocol.Unknown, resp)

	_, err = c.call(ctx, cmd)
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestClient_ResetThenPing(t *testing.T) {
	c, _ := startAgent(t)
	ctx := context.Background()

	// A partial WritePage header the agent will sit on.
	_, err := c.rw.Write([]byte{0x00, 0x00, 0x02})
	require.NoError(t, err)

	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.Ping(ctx))
}

func TestClient_Timeout(t *testing.T) {
	link := transport.NewLoopback()
	defer link.Close()

	c, err := NewClient(link.Host(), WithLogger(quietLogger()), WithTimeout(10*time.Millisecond))
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClient_ContextDeadline(t *testing.T) {
	link := transport.NewLoopback()
	defer link.Close()

	c, err := NewClient(link.Host(), WithLogger(quietLogger()), WithTimeout(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = c.Ping(ctx)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Minute)

	_, err = c.Info(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_SkipsNoiseBeforeResponse(t *testing.T) {
	resp := append([]byte{0x00, 0x42}, wire.EncodeResponse(protocol.InfoResponse{Info: "x"})...)
	s := newCannedStream(resp)

	c, err := NewClient(s, WithLogger(quietLogger()))
	require.NoError(t, err)

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", info)
	assert.Equal(t, []byte{wire.Escape, byte(protocol.CmdInfo)}, s.out.Bytes())
}

func TestClient_UnexpectedResponse(t *testing.T) {
	s := newCannedStream(wire.EncodeResponse(protocol.Pong))

	c, err := NewClient(s, WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = c.Info(context.Background())
	require.ErrorIs(t, err, wire.ErrUnexpectedResponse)
}

func TestClient_StreamEnds(t *testing.T) {
	c, err := NewClient(newCannedStream(nil), WithLogger(quietLogger()))
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestClient_WriteTooLarge(t *testing.T) {
	c, err := NewClient(newCannedStream(nil), WithLogger(quietLogger()))
	require.NoError(t, err)

	err = c.WritePage(context.Background(), 0, make([]byte, flash.PageSize+4))
	require.ErrorIs(t, err, wire.ErrCommandTooLarge)
}
