package spdtest

import (
	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/scpi"
)

// route answers one request line. ok is false when the line is not the route's command.
type route func(srv *Server, line string) (reply string, ok bool)

// handle decodes a request of type Q and encodes the reply returned by fn. fn runs with
// the device lock held.
func handle[Q any, PQ interface {
	*Q
	scpi.Decoder
}](fn func(srv *Server, d *DeviceState, req Q) scpi.Encoder) route {
	return func(srv *Server, line string) (string, bool) {
		req, err := scpi.Decode[Q, PQ](line)
		if err != nil {
			return "", false
		}

		return scpi.Encode(fn(srv, &srv.device, req)), true
	}
}

var empty = scpi.EmptyResponse{}

var routes = []route{
	handle(func(_ *Server, d *DeviceState, _ command.IdentityRequest) scpi.Encoder {
		return d.Identity
	}),
	handle(func(_ *Server, d *DeviceState, req command.SaveRequest) scpi.Encoder {
		d.Slots[req.Slot-1] = &savedSettings{mode: d.Mode, channels: d.Channels}
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.RecallRequest) scpi.Encoder {
		saved := d.Slots[req.Slot-1]
		if saved == nil {
			d.pushError("-222 Data out of range")
			return empty
		}
		d.Mode = saved.mode
		for i := range d.Channels {
			// outputs are not part of a stored setting
			output := d.Channels[i].Output
			d.Channels[i] = saved.channels[i]
			d.Channels[i].Output = output
		}

		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetInstrumentRequest) scpi.Encoder {
		d.Selected = req.Channel
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.GetInstrumentRequest) scpi.Encoder {
		return command.GetInstrumentResponse{Channel: d.Selected}
	}),
	handle(func(srv *Server, d *DeviceState, req command.MeasureRequest) scpi.Encoder {
		volts, amps, _ := d.measure(d.resolve(req.Channel), srv.load)

		var v float64
		switch req.Quantity {
		case command.Voltage:
			v = volts
		case command.Current:
			v = amps
		case command.Power:
			v = volts * amps
		}

		return command.MeasureResponse{Value: command.ReadingFromFloat(v)}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetLimitRequest) scpi.Encoder {
		st := d.Channel(d.resolve(req.Channel))
		switch req.Quantity {
		case command.LimitVoltage:
			if req.Value > maxVoltage {
				d.pushError("-222 Data out of range")
				return empty
			}
			st.VoltageLimit = req.Value
		case command.LimitCurrent:
			if req.Value > maxCurrent {
				d.pushError("-222 Data out of range")
				return empty
			}
			st.CurrentLimit = req.Value
		}

		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.GetLimitRequest) scpi.Encoder {
		st := d.Channel(d.resolve(req.Channel))
		if req.Quantity == command.LimitCurrent {
			return command.GetLimitResponse{Value: st.CurrentLimit}
		}

		return command.GetLimitResponse{Value: st.VoltageLimit}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetOutputStateRequest) scpi.Encoder {
		ch, err := req.Output.Channel()
		if err != nil {
			d.Output3 = req.State
			return empty
		}
		d.Channel(ch).Output = req.State

		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetOperationModeRequest) scpi.Encoder {
		d.Mode = req.Mode
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.WaveformDisplayRequest) scpi.Encoder {
		d.Channel(req.Channel).Display = command.DigitalDisplay
		if req.State.Bool() {
			d.Channel(req.Channel).Display = command.WaveformDisplay
		}

		return empty
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetTimingParametersRequest) scpi.Encoder {
		d.Channel(req.Channel).Timing[req.Group-1] = TimingStep{
			Voltage: req.Voltage,
			Current: req.Current,
			Time:    req.Time,
		}

		return empty
	}),
	handle(func(srv *Server, d *DeviceState, req command.GetTimingParametersRequest) scpi.Encoder {
		step := d.Channel(req.Channel).Timing[req.Group-1]
		return timingReply{step: step}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetTimerStateRequest) scpi.Encoder {
		d.Channel(req.Channel).Timer = req.State
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.SystemErrorRequest) scpi.Encoder {
		if len(d.Errors) == 0 {
			return command.SystemErrorResponse{Content: "0 No Error"}
		}
		msg := d.Errors[0]
		d.Errors = d.Errors[1:]

		return command.SystemErrorResponse{Content: msg}
	}),
	handle(func(_ *Server, d *DeviceState, _ command.SystemVersionRequest) scpi.Encoder {
		return command.SystemVersionResponse{Version: d.Identity.SoftwareVersion}
	}),
	handle(func(srv *Server, d *DeviceState, _ command.SystemStatusRequest) scpi.Encoder {
		return command.SystemStatusResponse{Value: d.status(srv.load).Bits()}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetIPAddressRequest) scpi.Encoder {
		if d.DHCP.Bool() {
			d.pushError("-221 Settings conflict")
			return empty
		}
		d.Addr = req.Addr

		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.GetIPAddressRequest) scpi.Encoder {
		return command.GetIPAddressResponse{Addr: d.Addr}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetSubnetMaskRequest) scpi.Encoder {
		d.Mask = req.Mask
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.GetSubnetMaskRequest) scpi.Encoder {
		return command.GetSubnetMaskResponse{Mask: d.Mask}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetGatewayRequest) scpi.Encoder {
		d.Gateway = req.Gateway
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.GetGatewayRequest) scpi.Encoder {
		return command.GetGatewayResponse{Gateway: d.Gateway}
	}),
	handle(func(_ *Server, d *DeviceState, req command.SetDHCPRequest) scpi.Encoder {
		d.DHCP = req.State
		return empty
	}),
	handle(func(_ *Server, d *DeviceState, _ command.GetDHCPRequest) scpi.Encoder {
		return command.GetDHCPResponse{State: d.DHCP}
	}),
}

var (
	maxVoltage = command.ReadingFromFloat(32)
	maxCurrent = command.ReadingFromFloat(3.2)
)

// timingReply answers a timer query the way the device does, without trailing zeros:
// "3,0.5,2".
type timingReply struct {
	step TimingStep
}

func (r timingReply) AppendSCPI(b []byte) []byte {
	b = appendShort(b, r.step.Voltage)
	b = append(b, ',')
	b = appendShort(b, r.step.Current)
	b = append(b, ',')
	b = r.step.Time.AppendSCPI(b)

	return append(b, '\n')
}

func appendShort(b []byte, r command.Reading) []byte {
	full := r.AppendSCPI(nil)
	for full[len(full)-1] == '0' {
		full = full[:len(full)-1]
	}
	if full[len(full)-1] == '.' {
		full = full[:len(full)-1]
	}

	return append(b, full...)
}
