// Package wire implements the escape-framed byte encoding of the flash agent
// protocol.
//
// # Framing
//
// The escape byte is 0xFC. A command frame is its payload followed by the
// escape byte and the command code:
//
//	[payload...][0xFC][code]
//
// A response frame is the escape byte and the response code followed by
// the payload:
//
//	[0xFC][code][payload...]
//
// In both directions a literal 0xFC inside a payload is sent twice.
// Integers are little-endian.
//
// # Agent side
//
// Decoder turns received bytes into commands one byte at a time and keeps
// the partial frame between calls. ResponseEncoder produces the bytes of
// one response lazily through Next.
//
// # Host side
//
// EncodeCommand builds a complete command frame. ReadResponse reads one
// response frame from a byte stream.
package wire
