package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/go-flashagent/protocol"
)

// Decoder incrementally decodes command frames.
//
// Decoder is not goroutine-safe; it belongs to the protocol loop.
type Decoder struct {
	buf        []byte
	escaped    bool
	overflowed bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, MaxPayload)}
}

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.escaped = false
	d.overflowed = false
}

// Pending reports whether a partial frame is buffered.
func (d *Decoder) Pending() bool {
	return len(d.buf) > 0 || d.escaped || d.overflowed
}

// Receive feeds one byte to the decoder.
//
// It returns a command when b completes a frame, nil while the frame is
// incomplete, and an error when a completed frame cannot be decoded. A
// frame whose payload overflowed the buffer is discarded up to its
// terminator and reported as ErrOverflow, unless it is a Reset.
func (d *Decoder) Receive(b byte) (protocol.Command, error) {
	if d.escaped {
		d.escaped = false
		if b == Escape {
			d.push(Escape)
			return nil, nil
		}

		return d.complete(protocol.CommandCode(b))
	}

	if b == Escape {
		d.escaped = true
		return nil, nil
	}

	d.push(b)

	return nil, nil
}

func (d *Decoder) push(b byte) {
	if d.overflowed {
		return
	}
	if len(d.buf) >= MaxPayload {
		d.overflowed = true
		d.buf = d.buf[:0]

		return
	}
	d.buf = append(d.buf, b)
}

// complete decodes the buffered payload for code and clears the buffer.
func (d *Decoder) complete(code protocol.CommandCode) (protocol.Command, error) {
	payload := d.buf
	overflowed := d.overflowed
	defer d.Reset()

	if code == protocol.CmdReset {
		return protocol.Reset{}, nil
	}
	if overflowed {
		return nil, fmt.Errorf("%w: %s frame larger than %d bytes", ErrOverflow, code, MaxPayload)
	}

	switch code {
	case protocol.CmdPing:
		return protocol.Ping{}, nil

	case protocol.CmdInfo:
		return protocol.Info{}, nil

	case protocol.CmdErasePage:
		if len(payload) != erasePagePayload {
			return nil, badPayload(code, len(payload), erasePagePayload)
		}

		return protocol.ErasePage{Address: binary.LittleEndian.Uint32(payload)}, nil

	case protocol.CmdWritePage:
		if len(payload) < writePageHeader {
			return nil, fmt.Errorf("%w: %s got %d bytes, want at least %d",
				ErrBadPayload, code, len(payload), writePageHeader)
		}
		data := make([]byte, len(payload)-writePageHeader)
		copy(data, payload[writePageHeader:])

		return protocol.WritePage{Address: binary.LittleEndian.Uint32(payload), Data: data}, nil

	case protocol.CmdReadRange:
		if len(payload) != readRangePayload {
			return nil, badPayload(code, len(payload), readRangePayload)
		}

		return protocol.ReadRange{
			Address: binary.LittleEndian.Uint32(payload),
			Length:  binary.LittleEndian.Uint16(payload[4:]),
		}, nil

	case protocol.CmdGetAttr:
		if len(payload) != getAttrPayload {
			return nil, badPayload(code, len(payload), getAttrPayload)
		}

		return protocol.GetAttr{Index: payload[0]}, nil

	default:
		raw := make([]byte, len(payload))
		copy(raw, payload)

		return protocol.Unimplemented{Command: code, Payload: raw}, nil
	}
}

func badPayload(code protocol.CommandCode, got, want int) error {
	return fmt.Errorf("%w: %s got %d bytes, want %d", ErrBadPayload, code, got, want)
}
