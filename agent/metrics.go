package agent

import (
	"sync/atomic"

	"github.com/arloliu/go-flashagent/protocol"
)

// Metrics contains atomic counters for an agent.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// ByteRecvCount indicates the number of bytes received from the transport.
	ByteRecvCount atomic.Uint64
	// ByteSendCount indicates the number of bytes accepted by the transport.
	ByteSendCount atomic.Uint64

	// CommandCount indicates the number of decoded commands, Reset included.
	CommandCount atomic.Uint64
	// ResponseCount indicates the number of responses fully sent.
	ResponseCount atomic.Uint64
	// DecodeErrCount indicates the number of frames that failed to decode.
	DecodeErrCount atomic.Uint64
	// ResetCount indicates the number of Reset commands.
	ResetCount atomic.Uint64

	// BadArgumentsCount indicates the number of BadArguments responses.
	BadArgumentsCount atomic.Uint64
	// UnknownCount indicates the number of Unknown responses.
	UnknownCount atomic.Uint64

	// PageEraseCount indicates the number of pages erased.
	PageEraseCount atomic.Uint64
	// WordProgramCount indicates the number of words programmed.
	WordProgramCount atomic.Uint64

	// TransportErrCount indicates the number of transport failures.
	TransportErrCount atomic.Uint64
}

func (m *Metrics) incByteRecvCount() {
	m.ByteRecvCount.Add(1)
}

func (m *Metrics) incByteSendCount() {
	m.ByteSendCount.Add(1)
}

func (m *Metrics) incCommandCount() {
	m.CommandCount.Add(1)
}

func (m *Metrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

func (m *Metrics) incResetCount() {
	m.ResetCount.Add(1)
}

func (m *Metrics) incPageEraseCount() {
	m.PageEraseCount.Add(1)
}

func (m *Metrics) incWordProgramCount() {
	m.WordProgramCount.Add(1)
}

func (m *Metrics) incTransportErrCount() {
	m.TransportErrCount.Add(1)
}

// countResponse records a response that was fully sent.
func (m *Metrics) countResponse(resp protocol.Response) {
	m.ResponseCount.Add(1)

	switch resp.Code() { //nolint:exhaustive
	case protocol.RespBadArguments:
		m.BadArgumentsCount.Add(1)
	case protocol.RespUnknown:
		m.UnknownCount.Add(1)
	}
}
