package wire

import (
	"errors"

	"github.com/arloliu/go-flashagent/flash"
)

// Escape starts every frame terminator (commands) or header (responses).
const Escape byte = 0xFC

// Payload limits.
const (
	// MaxWriteData is the largest data block a WritePage command may carry.
	MaxWriteData = flash.PageSize
	// MaxPayload is the largest command payload the decoder buffers.
	MaxPayload = 4 + MaxWriteData
	// InfoFieldSize is the fixed size of the identity string field in an Info response.
	InfoFieldSize = 191
)

// Fixed payload sizes.
const (
	erasePagePayload = 4
	readRangePayload = 6
	getAttrPayload   = 1
	writePageHeader  = 4
)

var (
	// ErrBadPayload indicates a payload whose length does not match its command.
	ErrBadPayload = errors.New("wire: payload length does not match command")
	// ErrOverflow indicates a payload larger than MaxPayload.
	ErrOverflow = errors.New("wire: payload exceeds buffer")
	// ErrBadEscape indicates an escape byte followed by an unexpected byte inside a payload.
	ErrBadEscape = errors.New("wire: unexpected byte after escape")
	// ErrUnexpectedResponse indicates a response code the host did not expect for its command.
	ErrUnexpectedResponse = errors.New("wire: unexpected response")
	// ErrCommandTooLarge indicates a command that cannot be framed.
	ErrCommandTooLarge = errors.New("wire: command payload too large")
)
