package agent

// Transport is the byte link to the host.
//
// The agent calls both methods from its single loop goroutine.
type Transport interface {
	// TryReceive returns the next byte if one is available. It must not
	// block for longer than a short poll interval; ok is false when no byte
	// arrived.
	TryReceive() (b byte, ok bool, err error)
	// Send blocks until b has been accepted by the link.
	Send(b byte) error
}
