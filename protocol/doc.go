// Package protocol defines the logical command and response values
// exchanged between a host tool and the flash agent.
//
// Commands and responses are tagged variants: each concrete type
// implements Command or Response and reports its wire code. The byte level
// framing lives in package wire.
//
// # Commands
//
//   - Ping, Info, Reset
//   - ErasePage{Address}
//   - WritePage{Address, Data}
//   - ReadRange{Address, Length}
//   - GetAttr{Index}
//   - Unimplemented{Code, Payload}: every other recognized or unrecognized code
//
// # Responses
//
//   - PongResponse, OkResponse, BadArgumentsResponse, InternalErrorResponse,
//     UnknownResponse
//   - InfoResponse{Info}
//   - ReadRangeResponse{Data}
//   - GetAttrResponse{Key, Length, Value}
package protocol
