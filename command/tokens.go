package command

import (
	"fmt"

	"github.com/arloliu/go-spd3303x/scpi"
)

// Channel is one of the two programmable output channels.
type Channel uint8

const (
	Channel1 Channel = iota + 1
	Channel2
)

var channelTokens = scpi.NewTokens("Channel",
	scpi.Token[Channel]{Value: Channel1, Literal: "CH1"},
	scpi.Token[Channel]{Value: Channel2, Literal: "CH2"},
)

// Channels lists the programmable channels in order.
var Channels = []Channel{Channel1, Channel2}

// ChannelFromNumber returns the channel numbered n (1 or 2).
func ChannelFromNumber(n int) (Channel, error) {
	switch n {
	case 1:
		return Channel1, nil
	case 2:
		return Channel2, nil
	}

	return 0, fmt.Errorf("%w: channel %d", ErrInvalidNumber, n)
}

// Output widens the channel to the output it drives.
func (ch Channel) Output() OutputChannel {
	return OutputChannel(ch)
}

// Number returns 1 or 2.
func (ch Channel) Number() int { return int(ch) }

func (ch Channel) String() string { return channelTokens.Format(ch) }

func (ch Channel) AppendSCPI(b []byte) []byte { return channelTokens.Append(b, ch) }

func (ch *Channel) DecodeSCPI(c *scpi.Cursor) error { return channelTokens.DecodeInto(c, ch) }

// OutputChannel is one of the three outputs; Output3 is the fixed output, which can only be
// switched on and off.
type OutputChannel uint8

const (
	Output1 OutputChannel = iota + 1
	Output2
	Output3
)

var outputChannelTokens = scpi.NewTokens("OutputChannel",
	scpi.Token[OutputChannel]{Value: Output1, Literal: "CH1"},
	scpi.Token[OutputChannel]{Value: Output2, Literal: "CH2"},
	scpi.Token[OutputChannel]{Value: Output3, Literal: "CH3"},
)

// Channel narrows the output to its programmable channel. It fails with ErrNotAddressable for Output3.
func (o OutputChannel) Channel() (Channel, error) {
	switch o {
	case Output1:
		return Channel1, nil
	case Output2:
		return Channel2, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrNotAddressable, o)
}

func (o OutputChannel) String() string { return outputChannelTokens.Format(o) }

func (o OutputChannel) AppendSCPI(b []byte) []byte { return outputChannelTokens.Append(b, o) }

func (o *OutputChannel) DecodeSCPI(c *scpi.Cursor) error {
	return outputChannelTokens.DecodeInto(c, o)
}

// State is an on/off switch position.
type State uint8

const (
	StateOn State = iota + 1
	StateOff
)

var stateTokens = scpi.NewTokens("State",
	scpi.Token[State]{Value: StateOn, Literal: "ON"},
	scpi.Token[State]{Value: StateOff, Literal: "OFF"},
)

// StateOf returns StateOn for true.
func StateOf(on bool) State {
	if on {
		return StateOn
	}

	return StateOff
}

// Bool reports whether s is StateOn.
func (s State) Bool() bool { return s == StateOn }

// Toggle returns the opposite state.
func (s State) Toggle() State { return StateOf(!s.Bool()) }

func (s State) String() string { return stateTokens.Format(s) }

func (s State) AppendSCPI(b []byte) []byte { return stateTokens.Append(b, s) }

func (s *State) DecodeSCPI(c *scpi.Cursor) error { return stateTokens.DecodeInto(c, s) }

// OperationMode is the channel coupling mode.
type OperationMode uint8

const (
	Independent OperationMode = iota + 1
	Series
	Parallel
)

var operationModeTokens = scpi.NewTokens("OperationMode",
	scpi.Token[OperationMode]{Value: Independent, Literal: "0"},
	scpi.Token[OperationMode]{Value: Series, Literal: "1"},
	scpi.Token[OperationMode]{Value: Parallel, Literal: "2"},
)

func (m OperationMode) String() string {
	switch m {
	case Independent:
		return "Independent"
	case Series:
		return "Series"
	case Parallel:
		return "Parallel"
	}

	return fmt.Sprintf("OperationMode(%d)", uint8(m))
}

func (m OperationMode) AppendSCPI(b []byte) []byte { return operationModeTokens.Append(b, m) }

func (m *OperationMode) DecodeSCPI(c *scpi.Cursor) error {
	return operationModeTokens.DecodeInto(c, m)
}

// MemorySlot is one of the five stored configuration slots.
type MemorySlot uint8

const (
	Slot1 MemorySlot = iota + 1
	Slot2
	Slot3
	Slot4
	Slot5
)

var memorySlotTokens = scpi.NewTokens("MemorySlot",
	scpi.Token[MemorySlot]{Value: Slot1, Literal: "1"},
	scpi.Token[MemorySlot]{Value: Slot2, Literal: "2"},
	scpi.Token[MemorySlot]{Value: Slot3, Literal: "3"},
	scpi.Token[MemorySlot]{Value: Slot4, Literal: "4"},
	scpi.Token[MemorySlot]{Value: Slot5, Literal: "5"},
)

// MemorySlotFromNumber returns the slot numbered n (1 to 5).
func MemorySlotFromNumber(n int) (MemorySlot, error) {
	if n < int(Slot1) || n > int(Slot5) {
		return 0, fmt.Errorf("%w: memory slot %d", ErrInvalidNumber, n)
	}

	return MemorySlot(n), nil
}

func (m MemorySlot) String() string { return memorySlotTokens.Format(m) }

func (m MemorySlot) AppendSCPI(b []byte) []byte { return memorySlotTokens.Append(b, m) }

func (m *MemorySlot) DecodeSCPI(c *scpi.Cursor) error { return memorySlotTokens.DecodeInto(c, m) }

// TimingGroup is one of the five steps of a channel's timer program.
type TimingGroup uint8

const (
	Group1 TimingGroup = iota + 1
	Group2
	Group3
	Group4
	Group5
)

var timingGroupTokens = scpi.NewTokens("TimingGroup",
	scpi.Token[TimingGroup]{Value: Group1, Literal: "1"},
	scpi.Token[TimingGroup]{Value: Group2, Literal: "2"},
	scpi.Token[TimingGroup]{Value: Group3, Literal: "3"},
	scpi.Token[TimingGroup]{Value: Group4, Literal: "4"},
	scpi.Token[TimingGroup]{Value: Group5, Literal: "5"},
)

// TimingGroupFromNumber returns the group numbered n (1 to 5).
func TimingGroupFromNumber(n int) (TimingGroup, error) {
	if n < int(Group1) || n > int(Group5) {
		return 0, fmt.Errorf("%w: timing group %d", ErrInvalidNumber, n)
	}

	return TimingGroup(n), nil
}

func (g TimingGroup) String() string { return timingGroupTokens.Format(g) }

func (g TimingGroup) AppendSCPI(b []byte) []byte { return timingGroupTokens.Append(b, g) }

func (g *TimingGroup) DecodeSCPI(c *scpi.Cursor) error { return timingGroupTokens.DecodeInto(c, g) }

// Quantity is a measurable electrical quantity.
type Quantity uint8

const (
	Current Quantity = iota + 1
	Voltage
	Power
)

var quantityTokens = scpi.NewTokens("Quantity",
	scpi.Token[Quantity]{Value: Current, Literal: "CURRent"},
	scpi.Token[Quantity]{Value: Voltage, Literal: "VOLTage"},
	scpi.Token[Quantity]{Value: Power, Literal: "POWEr"},
)

// Unit returns the SI unit symbol of the quantity.
func (q Quantity) Unit() string {
	switch q {
	case Current:
		return "A"
	case Voltage:
		return "V"
	case Power:
		return "W"
	}

	return ""
}

func (q Quantity) String() string { return quantityTokens.Format(q) }

func (q Quantity) AppendSCPI(b []byte) []byte { return quantityTokens.Append(b, q) }

func (q *Quantity) DecodeSCPI(c *scpi.Cursor) error { return quantityTokens.DecodeInto(c, q) }

// LimitQuantity is a quantity that has a programmable limit.
type LimitQuantity uint8

const (
	LimitCurrent LimitQuantity = iota + 1
	LimitVoltage
)

var limitQuantityTokens = scpi.NewTokens("LimitQuantity",
	scpi.Token[LimitQuantity]{Value: LimitCurrent, Literal: "CURRent"},
	scpi.Token[LimitQuantity]{Value: LimitVoltage, Literal: "VOLTage"},
)

// Quantity widens the limit quantity.
func (q LimitQuantity) Quantity() Quantity {
	switch q {
	case LimitCurrent:
		return Current
	case LimitVoltage:
		return Voltage
	}

	return 0
}

func (q LimitQuantity) String() string { return limitQuantityTokens.Format(q) }

func (q LimitQuantity) AppendSCPI(b []byte) []byte { return limitQuantityTokens.Append(b, q) }

func (q *LimitQuantity) DecodeSCPI(c *scpi.Cursor) error {
	return limitQuantityTokens.DecodeInto(c, q)
}
