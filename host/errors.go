package host

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-flashagent/protocol"
)

var (
	// ErrBadArguments indicates the agent rejected the command's arguments or
	// the flash operation failed.
	ErrBadArguments = errors.New("host: bad arguments")
	// ErrInternalError indicates the agent could not decode the command frame.
	ErrInternalError = errors.New("host: agent internal error")
	// ErrUnknownCommand indicates the agent does not implement the command.
	ErrUnknownCommand = errors.New("host: unknown command")
	// ErrTimeout indicates no complete response arrived in time.
	ErrTimeout = errors.New("host: response timeout")
	// ErrVerify indicates read-back data differs from what was written.
	ErrVerify = errors.New("host: verify mismatch")
)

// responseError maps a failure response to its error. It returns nil for
// any other response.
func responseError(cmd protocol.Command, resp protocol.Response) error {
	switch resp.Code() { //nolint:exhaustive
	case protocol.RespBadArguments:
		return fmt.Errorf("%w: %s", ErrBadArguments, cmd.Code())
	case protocol.RespInternalError:
		return fmt.Errorf("%w: %s", ErrInternalError, cmd.Code())
	case protocol.RespUnknown:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Code())
	default:
		return nil
	}
}
