package spd3303x

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/scpi"
)

// VerifyIdentity queries the device identity and compares its serial number with expectedSerial.
// A different serial number yields a *SerialMismatchError, which matches ErrSerialMismatch.
func (s *Session) VerifyIdentity(ctx context.Context, expectedSerial string) error {
	id, err := s.Identity(ctx)
	if err != nil {
		return err
	}
	if id.Serial != expectedSerial {
		return &SerialMismatchError{Expected: expectedSerial, Actual: id.Serial}
	}
	s.logger.Info("spd3303x: identity verified", "model", id.Model, "serial", id.Serial,
		"softwareVersion", id.SoftwareVersion)

	return nil
}

// Identity returns the manufacturer, model, serial number and versions of the device.
func (s *Session) Identity(ctx context.Context) (command.IdentityResponse, error) {
	return Execute[command.IdentityResponse](ctx, s, command.IdentityRequest{})
}

// Save stores the current settings into slot.
func (s *Session) Save(ctx context.Context, slot command.MemorySlot) error {
	return s.Send(ctx, command.SaveRequest{Slot: slot})
}

// Recall restores the settings stored in slot.
func (s *Session) Recall(ctx context.Context, slot command.MemorySlot) error {
	return s.Send(ctx, command.RecallRequest{Slot: slot})
}

// SelectChannel selects the channel that unqualified commands operate on.
func (s *Session) SelectChannel(ctx context.Context, ch command.Channel) error {
	return s.Send(ctx, command.SetInstrumentRequest{Channel: ch})
}

// SelectedChannel returns the selected channel.
func (s *Session) SelectedChannel(ctx context.Context) (command.Channel, error) {
	resp, err := Execute[command.GetInstrumentResponse](ctx, s, command.GetInstrumentRequest{})
	return resp.Channel, err
}

// Measure reads back the actual voltage, current or power of ch.
func (s *Session) Measure(ctx context.Context, ch command.Channel, q command.Quantity) (command.Reading, error) {
	resp, err := Execute[command.MeasureResponse](ctx, s, command.MeasureRequest{
		Quantity: q,
		Channel:  scpi.Some(ch),
	})

	return resp.Value, err
}

// SetLimit programs the voltage or current limit of ch.
func (s *Session) SetLimit(ctx context.Context, ch command.Channel, q command.LimitQuantity, v command.Reading) error {
	return s.Send(ctx, command.SetLimitRequest{Quantity: q, Value: v, Channel: scpi.Some(ch)})
}

// Limit returns the programmed voltage or current limit of ch.
func (s *Session) Limit(ctx context.Context, ch command.Channel, q command.LimitQuantity) (command.Reading, error) {
	resp, err := Execute[command.GetLimitResponse](ctx, s, command.GetLimitRequest{
		Quantity: q,
		Channel:  scpi.Some(ch),
	})

	return resp.Value, err
}

// SetOutput switches an output on or off.
func (s *Session) SetOutput(ctx context.Context, out command.OutputChannel, state command.State) error {
	return s.Send(ctx, command.SetOutputStateRequest{Output: out, State: state})
}

// Output returns the output state of ch, taken from the status word. The state of the fixed
// output CH3 is not reported by the device.
func (s *Session) Output(ctx context.Context, ch command.Channel) (command.State, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return 0, err
	}

	return status.Channel(ch).Output, nil
}

// SetOperationMode couples the channels in series or parallel, or decouples them.
func (s *Session) SetOperationMode(ctx context.Context, mode command.OperationMode) error {
	return s.Send(ctx, command.SetOperationModeRequest{Mode: mode})
}

// SetWaveformDisplay switches the waveform display of ch.
func (s *Session) SetWaveformDisplay(ctx context.Context, ch command.Channel, state command.State) error {
	return s.Send(ctx, command.WaveformDisplayRequest{Channel: ch, State: state})
}

// SetTimingParameters programs one step of the timer of ch.
func (s *Session) SetTimingParameters(
	ctx context.Context,
	ch command.Channel,
	group command.TimingGroup,
	voltage command.Reading,
	current command.Reading,
	interval command.TimeInterval,
) error {
	return s.Send(ctx, command.SetTimingParametersRequest{
		Channel: ch,
		Group:   group,
		Voltage: voltage,
		Current: current,
		Time:    interval,
	})
}

// TimingParameters returns one step of the timer of ch.
func (s *Session) TimingParameters(
	ctx context.Context,
	ch command.Channel,
	group command.TimingGroup,
) (command.GetTimingParametersResponse, error) {
	return Execute[command.GetTimingParametersResponse](ctx, s, command.GetTimingParametersRequest{
		Channel: ch,
		Group:   group,
	})
}

// SetTimer starts or stops the timer of ch.
func (s *Session) SetTimer(ctx context.Context, ch command.Channel, state command.State) error {
	return s.Send(ctx, command.SetTimerStateRequest{Channel: ch, State: state})
}

// SystemError returns the oldest entry of the device error queue, e.g. "0 No Error".
func (s *Session) SystemError(ctx context.Context) (string, error) {
	resp, err := Execute[command.SystemErrorResponse](ctx, s, command.SystemErrorRequest{})
	return resp.Content, err
}

// SystemVersion returns the firmware version.
func (s *Session) SystemVersion(ctx context.Context) (string, error) {
	resp, err := Execute[command.SystemVersionResponse](ctx, s, command.SystemVersionRequest{})
	return resp.Version, err
}

// Status returns the decoded status word.
func (s *Session) Status(ctx context.Context) (command.SystemStatus, error) {
	resp, err := Execute[command.SystemStatusResponse](ctx, s, command.SystemStatusRequest{})
	if err != nil {
		return command.SystemStatus{}, err
	}

	return resp.Status()
}

// SetIPAddress assigns a static address. The device ignores it while DHCP is on.
func (s *Session) SetIPAddress(ctx context.Context, addr netip.Addr) error {
	if err := requireIPv4(addr); err != nil {
		return err
	}

	return s.Send(ctx, command.SetIPAddressRequest{Addr: addr.Unmap()})
}

// IPAddress returns the current address.
func (s *Session) IPAddress(ctx context.Context) (netip.Addr, error) {
	resp, err := Execute[command.GetIPAddressResponse](ctx, s, command.GetIPAddressRequest{})
	return resp.Addr, err
}

// SetSubnetMask assigns the subnet mask.
func (s *Session) SetSubnetMask(ctx context.Context, mask netip.Addr) error {
	if err := requireIPv4(mask); err != nil {
		return err
	}

	return s.Send(ctx, command.SetSubnetMaskRequest{Mask: mask.Unmap()})
}

// SubnetMask returns the subnet mask.
func (s *Session) SubnetMask(ctx context.Context) (netip.Addr, error) {
	resp, err := Execute[command.GetSubnetMaskResponse](ctx, s, command.GetSubnetMaskRequest{})
	return resp.Mask, err
}

// SetGateway assigns the default gateway.
func (s *Session) SetGateway(ctx context.Context, gateway netip.Addr) error {
	if err := requireIPv4(gateway); err != nil {
		return err
	}

	return s.Send(ctx, command.SetGatewayRequest{Gateway: gateway.Unmap()})
}

// Gateway returns the default gateway.
func (s *Session) Gateway(ctx context.Context) (netip.Addr, error) {
	resp, err := Execute[command.GetGatewayResponse](ctx, s, command.GetGatewayRequest{})
	return resp.Gateway, err
}

// SetDHCP switches DHCP on or off.
func (s *Session) SetDHCP(ctx context.Context, state command.State) error {
	return s.Send(ctx, command.SetDHCPRequest{State: state})
}

// DHCP returns the DHCP state.
func (s *Session) DHCP(ctx context.Context) (command.State, error) {
	resp, err := Execute[command.GetDHCPResponse](ctx, s, command.GetDHCPRequest{})
	return resp.State, err
}

func requireIPv4(addr netip.Addr) error {
	if !addr.Unmap().Is4() {
		return fmt.Errorf("%w: %s", ErrNotIPv4, addr)
	}

	return nil
}
