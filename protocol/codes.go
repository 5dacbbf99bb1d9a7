package protocol

import "fmt"

// CommandCode is the byte identifying a command on the wire.
type CommandCode byte

// Command codes.
const (
	CmdPing                CommandCode = 0x01
	CmdInfo                CommandCode = 0x03
	CmdID                  CommandCode = 0x04
	CmdReset               CommandCode = 0x05
	CmdErasePage           CommandCode = 0x06
	CmdWritePage           CommandCode = 0x07
	CmdEraseExBlock        CommandCode = 0x08
	CmdWriteExPage         CommandCode = 0x09
	CmdCrcRxBuffer         CommandCode = 0x10
	CmdReadRange           CommandCode = 0x11
	CmdReadExRange         CommandCode = 0x12
	CmdSetAttr             CommandCode = 0x13
	CmdGetAttr             CommandCode = 0x14
	CmdCrcIntFlash         CommandCode = 0x15
	CmdCrcExtFlash         CommandCode = 0x16
	CmdEraseExPage         CommandCode = 0x17
	CmdExtFlashInit        CommandCode = 0x18
	CmdClockOut            CommandCode = 0x19
	CmdWriteFlashUserPages CommandCode = 0x20
	CmdChangeBaud          CommandCode = 0x21
)

var commandNames = map[CommandCode]string{
	CmdPing:                "Ping",
	CmdInfo:                "Info",
	CmdID:                  "ID",
	CmdReset:               "Reset",
	CmdErasePage:           "ErasePage",
	CmdWritePage:           "WritePage",
	CmdEraseExBlock:        "EraseExBlock",
	CmdWriteExPage:         "WriteExPage",
	CmdCrcRxBuffer:         "CrcRxBuffer",
	CmdReadRange:           "ReadRange",
	CmdReadExRange:         "ReadExRange",
	CmdSetAttr:             "SetAttr",
	CmdGetAttr:             "GetAttr",
	CmdCrcIntFlash:         "CrcIntFlash",
	CmdCrcExtFlash:         "CrcExtFlash",
	CmdEraseExPage:         "EraseExPage",
	CmdExtFlashInit:        "ExtFlashInit",
	CmdClockOut:            "ClockOut",
	CmdWriteFlashUserPages: "WriteFlashUserPages",
	CmdChangeBaud:          "ChangeBaud",
}

// Recognized reports whether c is part of the command set.
func (c CommandCode) Recognized() bool {
	_, ok := commandNames[c]
	return ok
}

func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// ResponseCode is the byte identifying a response on the wire.
type ResponseCode byte

// Response codes.
const (
	RespOverflow      ResponseCode = 0x10
	RespPong          ResponseCode = 0x11
	RespBadAddress    ResponseCode = 0x12
	RespInternalError ResponseCode = 0x13
	RespBadArguments  ResponseCode = 0x14
	RespOk            ResponseCode = 0x15
	RespUnknown       ResponseCode = 0x16
	RespReadRange     ResponseCode = 0x20
	RespGetAttr       ResponseCode = 0x22
	RespInfo          ResponseCode = 0x25
)

func (c ResponseCode) String() string {
	switch c {
	case RespOverflow:
		return "Overflow"
	case RespPong:
		return "Pong"
	case RespBadAddress:
		return "BadAddress"
	case RespInternalError:
		return "InternalError"
	case RespBadArguments:
		return "BadArguments"
	case RespOk:
		return "Ok"
	case RespUnknown:
		return "Unknown"
	case RespReadRange:
		return "ReadRange"
	case RespGetAttr:
		return "GetAttr"
	case RespInfo:
		return "Info"
	default:
		return fmt.Sprintf("Response(0x%02X)", byte(c))
	}
}
