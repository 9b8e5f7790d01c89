package chat

// state is the lifecycle of every child object (provider, channel, subscription)
// relative to its parent. Both non-active states are terminal.
type state uint8

const (
	// stateActive: the child holds valid references to its parent.
	stateActive state = iota
	// stateAbandoned: the parent shut down first and dropped the child.
	// The child no longer calls into the parent.
	stateAbandoned
	// stateClosed: the child's owner closed it and the child deregistered itself.
	// The parent no longer references the child.
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateActive:
		return "active"
	case stateAbandoned:
		return "abandoned"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
