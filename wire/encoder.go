package wire

import (
	"github.com/arloliu/go-flashagent/protocol"
)

// ResponseEncoder yields the bytes of one response frame.
//
// The sequence is finite and cannot be restarted: once Next reports false
// the encoder is spent. Escaping happens as bytes are pulled, so no escaped
// copy of the payload is ever built.
type ResponseEncoder struct {
	code    protocol.ResponseCode
	payload []byte
	pos     int  // next position: 0 = escape, 1 = code, 2.. = payload
	dup     bool // the payload byte at pos-2 was an escape already emitted once
}

// NewResponseEncoder returns an encoder for resp.
//
// An Info string longer than InfoFieldSize is truncated.
func NewResponseEncoder(resp protocol.Response) *ResponseEncoder {
	return &ResponseEncoder{
		code:    resp.Code(),
		payload: responsePayload(resp),
	}
}

// Next returns the next byte of the frame, or false when the frame is complete.
func (e *ResponseEncoder) Next() (byte, bool) {
	switch {
	case e.pos == 0:
		e.pos++
		return Escape, true

	case e.pos == 1:
		e.pos++
		return byte(e.code), true
	}

	i := e.pos - 2
	if i >= len(e.payload) {
		return 0, false
	}

	b := e.payload[i]
	if b == Escape && !e.dup {
		e.dup = true
		return Escape, true
	}
	e.dup = false
	e.pos++

	return b, true
}

// EncodeResponse returns the whole frame for resp.
func EncodeResponse(resp protocol.Response) []byte {
	enc := NewResponseEncoder(resp)
	out := make([]byte, 0, 2+len(enc.payload))
	for b, ok := enc.Next(); ok; b, ok = enc.Next() {
		out = append(out, b)
	}

	return out
}

// responsePayload returns the unescaped payload of resp.
func responsePayload(resp protocol.Response) []byte {
	switch r := resp.(type) {
	case protocol.InfoResponse:
		info := r.Info
		if len(info) > InfoFieldSize {
			info = info[:InfoFieldSize]
		}
		buf := make([]byte, 1+InfoFieldSize)
		buf[0] = byte(len(info))
		copy(buf[1:], info)

		return buf

	case protocol.ReadRangeResponse:
		return r.Data

	case protocol.GetAttrResponse:
		buf := make([]byte, 0, len(r.Key)+1+len(r.Value))
		buf = append(buf, r.Key...)
		buf = append(buf, r.Length)
		buf = append(buf, r.Value...)

		return buf

	default:
		return nil
	}
}
