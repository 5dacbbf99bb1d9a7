package protocol

// Response is a reply produced by the agent for one command.
type Response interface {
	// Code returns the wire code of the response.
	Code() ResponseCode
}

// PongResponse answers Ping.
type PongResponse struct{}

// OkResponse reports a successful erase or write.
type OkResponse struct{}

// BadArgumentsResponse reports a validation or flash failure.
type BadArgumentsResponse struct{}

// InternalErrorResponse reports a frame that could not be decoded.
type InternalErrorResponse struct{}

// UnknownResponse reports a command the agent does not implement.
type UnknownResponse struct{}

// InfoResponse carries the agent identity string.
type InfoResponse struct {
	Info string
}

// ReadRangeResponse carries the bytes read by ReadRange.
type ReadRangeResponse struct {
	Data []byte
}

// GetAttrResponse carries an attribute slot verbatim: the 8 key bytes, the
// declared value length and the whole 47 byte value buffer, padding included.
type GetAttrResponse struct {
	Key    []byte
	Length uint8
	Value  []byte
}

func (PongResponse) Code() ResponseCode          { return RespPong }
func (OkResponse) Code() ResponseCode            { return RespOk }
func (BadArgumentsResponse) Code() ResponseCode  { return RespBadArguments }
func (InternalErrorResponse) Code() ResponseCode { return RespInternalError }
func (UnknownResponse) Code() ResponseCode       { return RespUnknown }
func (InfoResponse) Code() ResponseCode          { return RespInfo }
func (ReadRangeResponse) Code() ResponseCode     { return RespReadRange }
func (GetAttrResponse) Code() ResponseCode       { return RespGetAttr }

// Shared values for the payload-less responses.
var (
	Pong          Response = PongResponse{}
	Ok            Response = OkResponse{}
	BadArguments  Response = BadArgumentsResponse{}
	InternalError Response = InternalErrorResponse{}
	Unknown       Response = UnknownResponse{}
)
