package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-flashagent/protocol"
)

// feed pushes frame through d and returns the commands and errors produced,
// in order.
func feed(d *Decoder, frame []byte) ([]protocol.Command, []error) {
	var (
		cmds []protocol.Command
		errs []error
	)
	for _, b := range frame {
		cmd, err := d.Receive(b)
		if err != nil {
			errs = append(errs, err)
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return cmds, errs
}

// decodeOne feeds frame and requires exactly one command and no error.
func decodeOne(t *testing.T, frame []byte) protocol.Command {
	t.Helper()

	cmds, errs := feed(NewDecoder(), frame)
	require.Empty(t, errs)
	require.Len(t, cmds, 1)

	return cmds[0]
}

func mustEncode(t *testing.T, cmd protocol.Command) []byte {
	t.Helper()

	frame, err := EncodeCommand(cmd)
	require.NoError(t, err)

	return frame
}
