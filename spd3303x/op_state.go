package spd3303x

import "sync/atomic"

// OpState is the lifecycle state of a Session. A session starts opened and only moves towards closed.
type OpState uint32

const (
	OpenedState OpState = iota
	ClosingState
	ClosedState
)

func (s OpState) String() string {
	switch s {
	case OpenedState:
		return "Opened"
	case ClosingState:
		return "Closing"
	case ClosedState:
		return "Closed"
	default:
		return "Unknown"
	}
}

type AtomicOpState struct {
	state atomic.Uint32
}

func (st *AtomicOpState) String() string {
	return st.Get().String()
}

// Get returns the current state of the AtomicOpState.
func (st *AtomicOpState) Get() OpState {
	return OpState(st.state.Load())
}

func (st *AtomicOpState) IsOpened() bool {
	return st.Get() == OpenedState
}

func (st *AtomicOpState) IsClosed() bool {
	return st.Get() == ClosedState
}

// ToClosing moves an opened session to closing. Only one caller wins the transition.
func (st *AtomicOpState) ToClosing() bool {
	return st.state.CompareAndSwap(uint32(OpenedState), uint32(ClosingState))
}

func (st *AtomicOpState) ToClosed() bool {
	if st.IsClosed() {
		return true
	}

	return st.state.CompareAndSwap(uint32(ClosingState), uint32(ClosedState))
}
