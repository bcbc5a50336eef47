package command

import (
	"fmt"

	"github.com/arloliu/go-spd3303x/scpi"
)

// SystemErrorRequest queries the oldest entry of the device error queue: "SYSTem:ERRor?".
type SystemErrorRequest struct {
	scpi.Expects[SystemErrorResponse]
}

func (SystemErrorRequest) AppendSCPI(b []byte) []byte { return append(b, "SYSTem:ERRor?"...) }

func (*SystemErrorRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.MatchLiteral("SYSTem:ERRor?")
}

// SystemErrorResponse is the reply to SystemErrorRequest, e.g. "0 No Error".
type SystemErrorResponse struct {
	Content string
}

func (r SystemErrorResponse) AppendSCPI(b []byte) []byte {
	b = append(b, r.Content...)
	return append(b, '\n')
}

func (r *SystemErrorResponse) DecodeSCPI(c *scpi.Cursor) error {
	line, err := c.ReadLine()
	if err != nil {
		return err
	}
	r.Content = line

	return nil
}

// SystemVersionRequest queries the firmware version: "SYSTem:VERSion?".
type SystemVersionRequest struct {
	scpi.Expects[SystemVersionResponse]
}

func (SystemVersionRequest) AppendSCPI(b []byte) []byte { return append(b, "SYSTem:VERSion?"...) }

func (*SystemVersionRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.MatchLiteral("SYSTem:VERSion?")
}

// SystemVersionResponse is the reply to SystemVersionRequest, e.g. "1.01.01.01.02".
type SystemVersionResponse struct {
	Version string
}

func (r SystemVersionResponse) AppendSCPI(b []byte) []byte {
	b = append(b, r.Version...)
	return append(b, '\n')
}

func (r *SystemVersionResponse) DecodeSCPI(c *scpi.Cursor) error {
	line, err := c.ReadLine()
	if err != nil {
		return err
	}
	r.Version = line

	return nil
}

// SystemStatusRequest queries the status word: "SYSTem:STATus?".
type SystemStatusRequest struct {
	scpi.Expects[SystemStatusResponse]
}

func (SystemStatusRequest) AppendSCPI(b []byte) []byte { return append(b, "SYSTem:STATus?"...) }

func (*SystemStatusRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.MatchLiteral("SYSTem:STATus?")
}

// SystemStatusResponse is the raw status word, e.g. "0x0224". Use Status to interpret it.
type SystemStatusResponse struct {
	Value uint16
}

const hexDigits = "0123456789ABCDEF"

func (r SystemStatusResponse) AppendSCPI(b []byte) []byte {
	b = append(b, "0x"...)
	for shift := 12; shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(r.Value>>shift)&0xF])
	}

	return append(b, '\n')
}

func (r *SystemStatusResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.Try(func() error {
		if err := c.MatchLiteral("0x"); err != nil {
			return err
		}
		v, err := c.ReadHex16()
		if err != nil {
			return err
		}
		if err := c.MatchLiteral("\n"); err != nil {
			return err
		}
		r.Value = v

		return nil
	})
}

// Status decodes the status word. An operation mode pattern of 00 is reported as a decode fault.
func (r SystemStatusResponse) Status() (SystemStatus, error) {
	return ParseSystemStatus(r.Value)
}

// ChannelMode is the regulation mode of a channel.
type ChannelMode uint8

const (
	ConstantVoltage ChannelMode = iota + 1
	ConstantCurrent
)

func (m ChannelMode) String() string {
	switch m {
	case ConstantVoltage:
		return "CV"
	case ConstantCurrent:
		return "CC"
	}

	return fmt.Sprintf("ChannelMode(%d)", uint8(m))
}

// DisplayMode is the front panel presentation of a channel.
type DisplayMode uint8

const (
	DigitalDisplay DisplayMode = iota + 1
	WaveformDisplay
)

func (m DisplayMode) String() string {
	switch m {
	case DigitalDisplay:
		return "Digital"
	case WaveformDisplay:
		return "Waveform"
	}

	return fmt.Sprintf("DisplayMode(%d)", uint8(m))
}

// ChannelStatus is the state of one programmable channel.
type ChannelStatus struct {
	Mode    ChannelMode
	Output  State
	Timer   State
	Display DisplayMode
}

// SystemStatus is the decoded status word.
//
//	bit 0    CH1 mode (0 CV, 1 CC)
//	bit 1    CH2 mode
//	bit 2-3  operation mode (01 independent, 10 parallel, 11 series)
//	bit 4    CH1 output
//	bit 5    CH2 output
//	bit 6    CH1 timer
//	bit 7    CH2 timer
//	bit 8    CH1 display (0 digital, 1 waveform)
//	bit 9    CH2 display
type SystemStatus struct {
	Mode OperationMode
	CH1  ChannelStatus
	CH2  ChannelStatus
}

const (
	modeBitsShift = 2
	modeBitsMask  = 0b11
	modeBitsIndep = 0b01
	modeBitsPar   = 0b10
	modeBitsSer   = 0b11
)

// ParseSystemStatus decodes a raw status word.
func ParseSystemStatus(v uint16) (SystemStatus, error) {
	var s SystemStatus

	switch (v >> modeBitsShift) & modeBitsMask {
	case modeBitsIndep:
		s.Mode = Independent
	case modeBitsPar:
		s.Mode = Parallel
	case modeBitsSer:
		s.Mode = Series
	default:
		return s, &scpi.DecodeError{
			Expected:  "operation mode bits 01, 10 or 11",
			Remaining: fmt.Sprintf("0x%04X", v),
			Reason:    "invalid operation mode bit pattern 00",
		}
	}

	for i, ch := range []*ChannelStatus{&s.CH1, &s.CH2} {
		ch.Mode = ConstantVoltage
		if bit(v, 0+i) {
			ch.Mode = ConstantCurrent
		}
		ch.Output = StateOf(bit(v, 4+i))
		ch.Timer = StateOf(bit(v, 6+i))
		ch.Display = DigitalDisplay
		if bit(v, 8+i) {
			ch.Display = WaveformDisplay
		}
	}

	return s, nil
}

// Channel returns the status of ch.
func (s SystemStatus) Channel(ch Channel) ChannelStatus {
	if ch == Channel2 {
		return s.CH2
	}

	return s.CH1
}

// Bits encodes the status back into a status word.
func (s SystemStatus) Bits() uint16 {
	var v uint16

	switch s.Mode {
	case Independent:
		v |= modeBitsIndep << modeBitsShift
	case Parallel:
		v |= modeBitsPar << modeBitsShift
	case Series:
		v |= modeBitsSer << modeBitsShift
	}

	for i, ch := range []ChannelStatus{s.CH1, s.CH2} {
		v |= flag(ch.Mode == ConstantCurrent, 0+i)
		v |= flag(ch.Output == StateOn, 4+i)
		v |= flag(ch.Timer == StateOn, 6+i)
		v |= flag(ch.Display == WaveformDisplay, 8+i)
	}

	return v
}

func bit(v uint16, n int) bool {
	return v&(1<<n) != 0
}

func flag(set bool, n int) uint16 {
	if set {
		return 1 << n
	}

	return 0
}
