package spdtest

import (
	"net/netip"

	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/scpi"
)

const (
	DefaultSerial  = "SPD3XIDQ4R0000"
	DefaultVersion = "1.01.01.02.07R2"
	DefaultLoad    = 10.0 // ohms

	errorQueueSize = 16
)

// TimingStep is one programmed step of a channel timer.
type TimingStep struct {
	Voltage command.Reading
	Current command.Reading
	Time    command.TimeInterval
}

// ChannelState is the simulated state of a programmable channel.
type ChannelState struct {
	VoltageLimit command.Reading
	CurrentLimit command.Reading
	Output       command.State
	Timer        command.State
	Display      command.DisplayMode
	Timing       [5]TimingStep
}

type savedSettings struct {
	mode     command.OperationMode
	channels [2]ChannelState
}

// DeviceState is a snapshot of the simulated power supply.
type DeviceState struct {
	Identity command.IdentityResponse
	Selected command.Channel
	Mode     command.OperationMode
	Channels [2]ChannelState
	Output3  command.State

	Addr    netip.Addr
	Mask    netip.Addr
	Gateway netip.Addr
	DHCP    command.State

	Slots  [5]*savedSettings
	Errors []string
}

// Channel returns the state of ch.
func (d *DeviceState) Channel(ch command.Channel) *ChannelState {
	return &d.Channels[ch.Number()-1]
}

func newDeviceState(serial string) DeviceState {
	ch := ChannelState{
		VoltageLimit: command.ReadingFromFloat(5),
		CurrentLimit: command.ReadingFromFloat(1),
		Output:       command.StateOff,
		Timer:        command.StateOff,
		Display:      command.DigitalDisplay,
	}

	return DeviceState{
		Identity: command.IdentityResponse{
			Manufacturer:    "Siglent Technologies",
			Model:           "SPD3303X",
			Serial:          serial,
			SoftwareVersion: DefaultVersion,
			HardwareVersion: "V5.6",
		},
		Selected: command.Channel1,
		Mode:     command.Independent,
		Channels: [2]ChannelState{ch, ch},
		Output3:  command.StateOff,
		Addr:     netip.MustParseAddr("192.168.1.55"),
		Mask:     netip.MustParseAddr("255.255.255.0"),
		Gateway:  netip.MustParseAddr("192.168.1.1"),
		DHCP:     command.StateOff,
	}
}

func (d *DeviceState) pushError(msg string) {
	if len(d.Errors) >= errorQueueSize {
		return
	}
	d.Errors = append(d.Errors, msg)
}

// measure returns the voltage and current a resistive load draws from ch, and whether the
// channel is current limited.
func (d *DeviceState) measure(ch command.Channel, load float64) (volts float64, amps float64, cc bool) {
	st := d.Channel(ch)
	if !st.Output.Bool() || load <= 0 {
		return 0, 0, false
	}

	volts = st.VoltageLimit.Float64()
	amps = volts / load
	if limit := st.CurrentLimit.Float64(); amps > limit {
		amps = limit
		volts = amps * load
		cc = true
	}

	return volts, amps, cc
}

func (d *DeviceState) status(load float64) command.SystemStatus {
	s := command.SystemStatus{Mode: d.Mode}
	for _, ch := range command.Channels {
		st := d.Channel(ch)
		_, _, cc := d.measure(ch, load)

		cs := command.ChannelStatus{
			Mode:    command.ConstantVoltage,
			Output:  st.Output,
			Timer:   st.Timer,
			Display: st.Display,
		}
		if cc {
			cs.Mode = command.ConstantCurrent
		}

		if ch == command.Channel1 {
			s.CH1 = cs
		} else {
			s.CH2 = cs
		}
	}

	return s
}

func (d *DeviceState) resolve(ch scpi.Optional[command.Channel]) command.Channel {
	if v, ok := ch.Get(); ok {
		return v
	}

	return d.Selected
}
