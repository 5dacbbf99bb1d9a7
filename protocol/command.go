package protocol

// Command is a decoded request from the host.
type Command interface {
	// Code returns the wire code of the command.
	Code() CommandCode
}

// Ping checks that the agent is alive.
type Ping struct{}

// Info requests the agent identity string.
type Info struct{}

// Reset discards any partially decoded frame. It has no response.
type Reset struct{}

// ErasePage erases the page starting at Address.
type ErasePage struct {
	Address uint32
}

// WritePage programs Data starting at Address, one word at a time.
type WritePage struct {
	Address uint32
	Data    []byte
}

// ReadRange reads Length bytes starting at Address.
type ReadRange struct {
	Address uint32
	Length  uint16
}

// GetAttr reads attribute slot Index.
type GetAttr struct {
	Index uint8
}

// Unimplemented carries any command the agent does not act on, recognized
// or not, with its raw payload.
type Unimplemented struct {
	Command CommandCode
	Payload []byte
}

func (Ping) Code() CommandCode            { return CmdPing }
func (Info) Code() CommandCode            { return CmdInfo }
func (Reset) Code() CommandCode           { return CmdReset }
func (ErasePage) Code() CommandCode       { return CmdErasePage }
func (WritePage) Code() CommandCode       { return CmdWritePage }
func (ReadRange) Code() CommandCode       { return CmdReadRange }
func (GetAttr) Code() CommandCode         { return CmdGetAttr }
func (c Unimplemented) Code() CommandCode { return c.Command }

var (
	_ Command = Ping{}
	_ Command = Info{}
	_ Command = Reset{}
	_ Command = ErasePage{}
	_ Command = WritePage{}
	_ Command = ReadRange{}
	_ Command = GetAttr{}
	_ Command = Unimplemented{}
)
