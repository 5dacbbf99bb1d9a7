package agent

// State is the protocol loop state.
type State uint32

// Protocol loop states.
const (
	// IdleState indicates no partial frame is buffered.
	IdleState State = iota
	// ReceivingState indicates a partial frame is buffered in the decoder.
	ReceivingState
	// DispatchingState indicates a complete command is being executed.
	DispatchingState
	// RespondingState indicates response bytes are being sent.
	RespondingState
)

// IsIdle returns if no partial frame is buffered.
func (s State) IsIdle() bool { return s == IdleState }

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case IdleState:
		return "idle"
	case ReceivingState:
		return "receiving"
	case DispatchingState:
		return "dispatching"
	case RespondingState:
		return "responding"
	default:
		return "unknown"
	}
}
