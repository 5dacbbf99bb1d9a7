package agent

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/flash"
	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/protocol"
	"github.com/arloliu/go-flashagent/wire"
)

func TestNew_BootFailures(t *testing.T) {
	cfg, err := NewConfig(WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = New(cfg, &scriptedTransport{}, flash.NewSimulator())
	require.ErrorIs(t, err, flashinfo.ErrBadMagic, "erased flash holds no FlashInfo")

	_, err = New(cfg, nil, flash.NewSimulator())
	require.Error(t, err)

	_, err = New(cfg, &scriptedTransport{}, nil)
	require.Error(t, err)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.DefaultLayout(sim))

	a, err := New(nil, &scriptedTransport{}, sim)
	require.NoError(t, err)
	assert.Equal(t, IdleState, a.State())
	assert.Equal(t, 4, a.Attributes().Len())
}

func TestNew_CustomInfoAddress(t *testing.T) {
	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.Provision(sim, 0x20000, flashinfo.Reference()))

	cfg, err := NewConfig(WithLogger(quietLogger()), WithInfoAddress(0x20000))
	require.NoError(t, err)

	_, err = New(cfg, &scriptedTransport{}, sim)
	require.NoError(t, err)
}

func TestNew_IdentityFollowsRecordVersion(t *testing.T) {
	info := flashinfo.Reference()
	info.Version = [flashinfo.VersionSize]byte{'9', '.', '9', '.', '9'}
	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.Provision(sim, flashinfo.DefaultBase, info))

	cfg, err := NewConfig(WithLogger(quietLogger()))
	require.NoError(t, err)
	tr := &scriptedTransport{}
	a, err := New(cfg, tr, sim)
	require.NoError(t, err)

	tr.push(frame(t, protocol.Info{}))
	drain(t, a)
	assert.Equal(t, responses(protocol.InfoResponse{Info: flashinfo.IdentityFor("9.9.9")}), tr.sent())
}

func TestNew_VersionMismatch(t *testing.T) {
	info := flashinfo.Reference()
	info.Version = [flashinfo.VersionSize]byte{'9', '.', '9', '.', '9'}
	sim := flash.NewSimulator()
	require.NoError(t, flashinfo.Provision(sim, flashinfo.DefaultBase, info))

	cfg, err := NewConfig(WithLogger(quietLogger()), WithIdentity(flashinfo.Identity))
	require.NoError(t, err)

	_, err = New(cfg, &scriptedTransport{}, sim)
	require.ErrorIs(t, err, flashinfo.ErrVersionMismatch)
}

func TestPoll_NoInput(t *testing.T) {
	a, tr, _ := newTestAgent(t)

	got, err := a.Poll()
	require.NoError(t, err)
	assert.False(t, got)
	assert.Empty(t, tr.sent())
	assert.Equal(t, IdleState, a.State())
}

func TestPoll_Ping(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	tr.push(frame(t, protocol.Ping{}))

	drain(t, a)
	assert.Equal(t, []byte{wire.Escape, byte(protocol.RespPong)}, tr.sent())
	assert.Equal(t, IdleState, a.State())
}

func TestPoll_Info(t *testing.T) {
	id := `{"version":"0.1.0", "name":"unit-test"}`
	a, tr, _ := newTestAgent(t, WithIdentity(id))
	tr.push(frame(t, protocol.Info{}))

	drain(t, a)
	assert.Equal(t, responses(protocol.InfoResponse{Info: id}), tr.sent())
}

func TestPoll_StateWhileReceiving(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	f := frame(t, protocol.GetAttr{Index: 0})
	tr.push(f[:1])

	got, err := a.Poll()
	require.NoError(t, err)
	require.True(t, got)
	assert.Equal(t, ReceivingState, a.State())

	tr.push(f[1:])
	drain(t, a)
	assert.Equal(t, IdleState, a.State())

	attr, _ := a.Attributes().Lookup(0)
	assert.Equal(t, responses(protocol.GetAttrResponse{Key: attr.Key[:], Length: attr.Length, Value: attr.Value[:]}), tr.sent())
}

func TestPoll_ResetAfterBrokenFrame(t *testing.T) {
	a, tr, _ := newTestAgent(t)

	// Half of a WritePage payload, then Reset, then Ping.
	broken := frame(t, protocol.WritePage{Address: 0x10000, Data: []byte{1, 2, 3, 4}})
	tr.push(broken[:5], frame(t, protocol.Reset{}), frame(t, protocol.Ping{}))

	drain(t, a)
	assert.Equal(t, responses(protocol.Pong), tr.sent())
	assert.Equal(t, uint64(1), a.Metrics().ResetCount.Load())
	assert.Equal(t, uint64(2), a.Metrics().CommandCount.Load())
}

func TestPoll_DecodeErrorThenRecover(t *testing.T) {
	a, tr, _ := newTestAgent(t)

	// ErasePage with a 2 byte payload.
	tr.push([]byte{0x00, 0x08, wire.Escape, byte(protocol.CmdErasePage)}, frame(t, protocol.Ping{}))

	drain(t, a)
	assert.Equal(t, responses(protocol.InternalError, protocol.Pong), tr.sent())
	assert.Equal(t, uint64(1), a.Metrics().DecodeErrCount.Load())
}

func TestPoll_Scenario(t *testing.T) {
	a, tr, sim := newTestAgent(t)
	before := sim.Read(flashinfo.DefaultBase, flash.PageSize)

	tr.push(
		frame(t, protocol.Ping{}),
		frame(t, protocol.GetAttr{Index: 20}),
		frame(t, protocol.WritePage{Address: 0x10000, Data: []byte{1, 2, 3, 4, 5, 6}}),
		frame(t, protocol.ErasePage{Address: flashinfo.DefaultBase}),
		frame(t, protocol.Unimplemented{Command: protocol.CmdCrcIntFlash}),
	)
	drain(t, a)

	assert.Equal(t, responses(
		protocol.Pong,
		protocol.BadArguments,
		protocol.BadArguments,
		protocol.BadArguments,
		protocol.Unknown,
	), tr.sent())

	erases, programs := sim.Counts()
	assert.Zero(t, erases)
	assert.Zero(t, programs)
	assert.Equal(t, before, sim.Read(flashinfo.DefaultBase, flash.PageSize))

	m := a.Metrics()
	assert.Equal(t, uint64(5), m.CommandCount.Load())
	assert.Equal(t, uint64(5), m.ResponseCount.Load())
	assert.Equal(t, uint64(3), m.BadArgumentsCount.Load())
	assert.Equal(t, uint64(1), m.UnknownCount.Load())
}

func TestPoll_EraseWriteRead(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	data := []byte{0xFC, 0x00, 0xFC, 0xFC, 0x12, 0x34, 0x56, 0x78}

	tr.push(
		frame(t, protocol.ErasePage{Address: 0x10000}),
		frame(t, protocol.WritePage{Address: 0x10000, Data: data}),
		frame(t, protocol.ReadRange{Address: 0x10000, Length: uint16(len(data))}),
	)
	drain(t, a)

	assert.Equal(t, responses(protocol.Ok, protocol.Ok, protocol.ReadRangeResponse{Data: data}), tr.sent())
	assert.Equal(t, uint64(1), a.Metrics().PageEraseCount.Load())
	assert.Equal(t, uint64(2), a.Metrics().WordProgramCount.Load())
}

func TestPoll_ResponseBytesStreamedInOrder(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	tr.push(frame(t, protocol.ReadRange{Address: flashinfo.DefaultBase, Length: 64}))

	drain(t, a)
	sent := tr.sent()
	assert.Equal(t, uint64(len(sent)), a.Metrics().ByteSendCount.Load())

	resp, err := wire.ReadResponse(newByteReader(sent), protocol.ReadRange{Length: 64})
	require.NoError(t, err)
	rr, ok := resp.(protocol.ReadRangeResponse)
	require.True(t, ok)
	assert.Equal(t, []byte(flashinfo.Magic), rr.Data[:flashinfo.MagicSize])
}

func TestPoll_TransportErrors(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	tr.push(frame(t, protocol.Ping{}))
	tr.sendErr = errors.New("line down")

	var err error
	for err == nil {
		var got bool
		got, err = a.Poll()
		if !got && err == nil {
			t.Fatal("input drained without a send error")
		}
	}
	require.ErrorIs(t, err, tr.sendErr)
	assert.Equal(t, IdleState, a.State())

	tr.sendErr = nil
	tr.recvErr = errors.New("framing")
	_, err = a.Poll()
	require.ErrorIs(t, err, tr.recvErr)
	assert.Equal(t, uint64(2), a.Metrics().TransportErrCount.Load())
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	tr.push(frame(t, protocol.Ping{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(tr.sent()) == 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_TransportClosed(t *testing.T) {
	a, tr, _ := newTestAgent(t)
	tr.recvErr = io.EOF

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrTransportClosed)
	require.ErrorIs(t, err, io.EOF)
}

func TestRun_TransportErrorLimit(t *testing.T) {
	a, tr, _ := newTestAgent(t, WithTransportErrorLimit(2))
	tr.recvErr = errors.New("parity")

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrTransportFailed)
	require.ErrorIs(t, err, tr.recvErr)
	assert.Equal(t, uint64(2), a.Metrics().TransportErrCount.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", IdleState.String())
	assert.Equal(t, "receiving", ReceivingState.String())
	assert.Equal(t, "dispatching", DispatchingState.String())
	assert.Equal(t, "responding", RespondingState.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, IdleState.IsIdle())
}
