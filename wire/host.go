package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/go-flashagent/flashinfo"
	"github.com/arloliu/go-flashagent/protocol"
)

// getAttrPayloadSize is the size of a GetAttr response payload.
const getAttrPayloadSize = flashinfo.KeySize + 1 + flashinfo.ValueSize

// EncodeCommand builds the complete frame for cmd.
func EncodeCommand(cmd protocol.Command) ([]byte, error) {
	var payload []byte

	switch c := cmd.(type) {
	case protocol.Ping, protocol.Info, protocol.Reset:

	case protocol.ErasePage:
		payload = binary.LittleEndian.AppendUint32(nil, c.Address)

	case protocol.WritePage:
		if len(c.Data) > MaxWriteData {
			return nil, fmt.Errorf("%w: %d data bytes, max %d", ErrCommandTooLarge, len(c.Data), MaxWriteData)
		}
		payload = binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(c.Data)), c.Address)
		payload = append(payload, c.Data...)

	case protocol.ReadRange:
		payload = binary.LittleEndian.AppendUint32(nil, c.Address)
		payload = binary.LittleEndian.AppendUint16(payload, c.Length)

	case protocol.GetAttr:
		payload = []byte{c.Index}

	case protocol.Unimplemented:
		if len(c.Payload) > MaxPayload {
			return nil, fmt.Errorf("%w: %d payload bytes, max %d", ErrCommandTooLarge, len(c.Payload), MaxPayload)
		}
		payload = c.Payload

	default:
		return nil, fmt.Errorf("wire: cannot encode %T", cmd)
	}

	frame := make([]byte, 0, len(payload)+2)
	for _, b := range payload {
		frame = append(frame, b)
		if b == Escape {
			frame = append(frame, Escape)
		}
	}
	frame = append(frame, Escape, byte(cmd.Code()))

	return frame, nil
}

// ReadResponse reads one response frame from r. cmd is the command the
// frame answers; it sizes the ReadRange payload.
//
// Bytes before the frame's escape byte are skipped.
func ReadResponse(r io.ByteReader, cmd protocol.Command) (protocol.Response, error) {
	code, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	switch code {
	case protocol.RespPong:
		return protocol.Pong, nil
	case protocol.RespOk:
		return protocol.Ok, nil
	case protocol.RespBadArguments:
		return protocol.BadArguments, nil
	case protocol.RespInternalError:
		return protocol.InternalError, nil
	case protocol.RespUnknown:
		return protocol.Unknown, nil

	case protocol.RespInfo:
		buf, err := readPayload(r, 1+InfoFieldSize)
		if err != nil {
			return nil, err
		}
		n := min(int(buf[0]), InfoFieldSize)

		return protocol.InfoResponse{Info: string(buf[1 : 1+n])}, nil

	case protocol.RespReadRange:
		rr, ok := cmd.(protocol.ReadRange)
		if !ok {
			return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedResponse, code, cmd.Code())
		}
		data, err := readPayload(r, int(rr.Length))
		if err != nil {
			return nil, err
		}

		return protocol.ReadRangeResponse{Data: data}, nil

	case protocol.RespGetAttr:
		buf, err := readPayload(r, getAttrPayloadSize)
		if err != nil {
			return nil, err
		}

		return protocol.GetAttrResponse{
			Key:    buf[:flashinfo.KeySize],
			Length: buf[flashinfo.KeySize],
			Value:  buf[flashinfo.KeySize+1:],
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, code)
	}
}

func readHeader(r io.ByteReader) (protocol.ResponseCode, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != Escape {
			continue
		}

		code, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if code == Escape {
			continue
		}

		return protocol.ResponseCode(code), nil
	}
}

func readPayload(r io.ByteReader, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == Escape {
			next, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if next != Escape {
				return nil, fmt.Errorf("%w: 0x%02X at payload offset %d", ErrBadEscape, next, i)
			}
		}
		buf[i] = b
	}

	return buf, nil
}
