package spd3303x

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/scpi"
	"github.com/arloliu/go-spd3303x/spd3303x/spdtest"
)

func TestSession_VerifyIdentity(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t, spdtest.WithSerial("SPD3XIDX000042"))

	id, err := s.Identity(ctx)
	require.NoError(err)
	require.Equal("Siglent Technologies", id.Manufacturer)
	require.Equal("SPD3303X", id.Model)
	require.Equal(srv.Serial(), id.Serial)

	require.NoError(s.VerifyIdentity(ctx, "SPD3XIDX000042"))

	err = s.VerifyIdentity(ctx, "SPD3XIDX999999")
	require.ErrorIs(err, ErrSerialMismatch)

	var mismatch *SerialMismatchError
	require.True(errors.As(err, &mismatch))
	require.Equal("SPD3XIDX000042", mismatch.Actual)
	require.Equal("SPD3XIDX999999", mismatch.Expected)
	require.False(s.IsClosed(), "a mismatch is not a transport fault")
}

func TestSession_ExecuteWireFormat(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t)

	require.NoError(s.Send(ctx, command.SetLimitRequest{
		Quantity: command.LimitVoltage,
		Value:    command.ReadingFromFloat(25),
		Channel:  scpi.Some(command.Channel1),
	}))
	require.NoError(s.SetOutput(ctx, command.Output1, command.StateOn))

	resp, err := Execute[command.MeasureResponse](ctx, s, command.MeasureRequest{
		Quantity: command.Voltage,
		Channel:  scpi.Some(command.Channel1),
	})
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(10), resp.Value, "1 A current limit into 10 ohms")

	require.Equal([]string{
		"CH1:VOLTage 25.000",
		"OUTPut CH1,ON",
		"MEASure:VOLTage? CH1",
	}, srv.Requests())
}

func TestSession_Limits(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t)

	require.NoError(s.SetLimit(ctx, command.Channel2, command.LimitVoltage, command.ReadingFromFloat(12.5)))
	require.NoError(s.SetLimit(ctx, command.Channel2, command.LimitCurrent, command.ReadingFromFloat(0.25)))

	v, err := s.Limit(ctx, command.Channel2, command.LimitVoltage)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(12.5), v)

	i, err := s.Limit(ctx, command.Channel2, command.LimitCurrent)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(0.25), i)

	// out of range limits are rejected by the device through its error queue
	require.NoError(s.SetLimit(ctx, command.Channel2, command.LimitVoltage, command.ReadingFromFloat(40)))
	msg, err := s.SystemError(ctx)
	require.NoError(err)
	require.Equal("-222 Data out of range", msg)

	msg, err = s.SystemError(ctx)
	require.NoError(err)
	require.Equal("0 No Error", msg)
}

func TestSession_Measure(t *testing.T) {
	tests := []struct {
		desc    string
		voltage float64
		current float64
		volts   command.Reading
		amps    command.Reading
		watts   command.Reading
		mode    command.ChannelMode
	}{
		{
			desc:    "constant voltage",
			voltage: 3.3,
			current: 1,
			volts:   command.ReadingFromFloat(3.3),
			amps:    command.ReadingFromFloat(0.33),
			watts:   command.ReadingFromFloat(1.089),
			mode:    command.ConstantVoltage,
		},
		{
			desc:    "constant current",
			voltage: 5,
			current: 0.1,
			volts:   command.ReadingFromFloat(1),
			amps:    command.ReadingFromFloat(0.1),
			watts:   command.ReadingFromFloat(0.1),
			mode:    command.ConstantCurrent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()

			_, s := newTestSession(t, spdtest.WithLoad(10))

			require.NoError(s.SetLimit(ctx, command.Channel1, command.LimitVoltage, command.ReadingFromFloat(tt.voltage)))
			require.NoError(s.SetLimit(ctx, command.Channel1, command.LimitCurrent, command.ReadingFromFloat(tt.current)))

			v, err := s.Measure(ctx, command.Channel1, command.Voltage)
			require.NoError(err)
			require.Equal(command.Reading(0), v, "output is off")

			require.NoError(s.SetOutput(ctx, command.Output1, command.StateOn))

			v, err = s.Measure(ctx, command.Channel1, command.Voltage)
			require.NoError(err)
			require.Equal(tt.volts, v)

			a, err := s.Measure(ctx, command.Channel1, command.Current)
			require.NoError(err)
			require.Equal(tt.amps, a)

			w, err := s.Measure(ctx, command.Channel1, command.Power)
			require.NoError(err)
			require.Equal(tt.watts, w)

			status, err := s.Status(ctx)
			require.NoError(err)
			require.Equal(tt.mode, status.CH1.Mode)
			require.Equal(command.ConstantVoltage, status.CH2.Mode)
		})
	}
}

func TestSession_Output(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t)

	state, err := s.Output(ctx, command.Channel2)
	require.NoError(err)
	require.Equal(command.StateOff, state)

	require.NoError(s.SetOutput(ctx, command.Output2, command.StateOn))
	require.NoError(s.SetOutput(ctx, command.Output3, command.StateOn))

	state, err = s.Output(ctx, command.Channel2)
	require.NoError(err)
	require.Equal(command.StateOn, state)

	state, err = s.Output(ctx, command.Channel1)
	require.NoError(err)
	require.Equal(command.StateOff, state)

	require.Equal(command.StateOn, srv.State().Output3)
}

func TestSession_SaveRecall(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t)

	require.NoError(s.SetLimit(ctx, command.Channel1, command.LimitVoltage, command.ReadingFromFloat(1.8)))
	require.NoError(s.Save(ctx, command.Slot3))

	require.NoError(s.SetLimit(ctx, command.Channel1, command.LimitVoltage, command.ReadingFromFloat(24)))
	v, err := s.Limit(ctx, command.Channel1, command.LimitVoltage)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(24), v)

	require.NoError(s.Recall(ctx, command.Slot3))
	v, err = s.Limit(ctx, command.Channel1, command.LimitVoltage)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(1.8), v)
}

func TestSession_SelectedChannel(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t)

	ch, err := s.SelectedChannel(ctx)
	require.NoError(err)
	require.Equal(command.Channel1, ch)

	require.NoError(s.SelectChannel(ctx, command.Channel2))
	ch, err = s.SelectedChannel(ctx)
	require.NoError(err)
	require.Equal(command.Channel2, ch)

	// unqualified limits apply to the selected channel
	require.NoError(s.Send(ctx, command.SetLimitRequest{Quantity: command.LimitCurrent, Value: command.ReadingFromFloat(2)}))
	i, err := s.Limit(ctx, command.Channel2, command.LimitCurrent)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(2), i)
}

func TestSession_TimingParameters(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t)

	require.NoError(s.SetTimingParameters(ctx, command.Channel1, command.Group2,
		command.ReadingFromFloat(3), command.ReadingFromFloat(0.5), command.MustTimeInterval(2)))
	require.NoError(s.SetTimer(ctx, command.Channel1, command.StateOn))

	resp, err := s.TimingParameters(ctx, command.Channel1, command.Group2)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(3), resp.Voltage)
	require.Equal(command.ReadingFromFloat(0.5), resp.Current)
	require.Equal(command.MustTimeInterval(2), resp.Time)

	// steps longer than a Reading can hold
	for _, seconds := range []uint{100, command.MaxTimeInterval} {
		require.NoError(s.SetTimingParameters(ctx, command.Channel2, command.Group1,
			command.ReadingFromFloat(12), command.ReadingFromFloat(1), command.MustTimeInterval(seconds)))

		resp, err = s.TimingParameters(ctx, command.Channel2, command.Group1)
		require.NoError(err)
		require.Equal(seconds, resp.Interval().Seconds())
	}
	require.Zero(s.GetMetrics().DecodeErrCount.Load())

	status, err := s.Status(ctx)
	require.NoError(err)
	require.Equal(command.StateOn, status.CH1.Timer)
	require.Equal(command.StateOff, status.CH2.Timer)

	require.Contains(srv.Requests(), "TIMEr:SET CH1,2,3.000,0.500,2")
}

func TestSession_DisplayAndMode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t)

	require.NoError(s.SetWaveformDisplay(ctx, command.Channel2, command.StateOn))
	require.NoError(s.SetOperationMode(ctx, command.Series))

	status, err := s.Status(ctx)
	require.NoError(err)
	require.Equal(command.Series, status.Mode)
	require.Equal(command.WaveformDisplay, status.CH2.Display)
	require.Equal(command.DigitalDisplay, status.CH1.Display)

	version, err := s.SystemVersion(ctx)
	require.NoError(err)
	require.Equal(spdtest.DefaultVersion, version)
}

func TestSession_Network(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t)

	addr := netip.MustParseAddr("10.11.13.214")
	mask := netip.MustParseAddr("255.255.0.0")
	gateway := netip.MustParseAddr("10.11.0.1")

	require.NoError(s.SetIPAddress(ctx, addr))
	require.NoError(s.SetSubnetMask(ctx, mask))
	require.NoError(s.SetGateway(ctx, gateway))
	require.NoError(s.SetDHCP(ctx, command.StateOn))

	got, err := s.IPAddress(ctx)
	require.NoError(err)
	require.Equal(addr, got)

	got, err = s.SubnetMask(ctx)
	require.NoError(err)
	require.Equal(mask, got)

	got, err = s.Gateway(ctx)
	require.NoError(err)
	require.Equal(gateway, got)

	dhcp, err := s.DHCP(ctx)
	require.NoError(err)
	require.Equal(command.StateOn, dhcp)

	n := len(srv.Requests())
	err = s.SetIPAddress(ctx, netip.MustParseAddr("fe80::1"))
	require.ErrorIs(err, ErrNotIPv4)
	require.Len(srv.Requests(), n, "an invalid address is never written")
}

func TestSession_DecodeFaultKeepsSessionOpen(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t,
		spdtest.WithReply("MEASure:VOLTage? CH1", "30,000\n"),
		spdtest.WithReply("SYSTem:STATus?", "0x0220\n"),
	)

	_, err := s.Measure(ctx, command.Channel1, command.Voltage)
	require.ErrorIs(err, scpi.ErrDecode)

	var derr *scpi.DecodeError
	require.True(errors.As(err, &derr))
	require.Equal(",000\n", derr.Remaining)

	_, err = s.Status(ctx)
	require.ErrorIs(err, scpi.ErrDecode)

	require.False(s.IsClosed())
	_, err = s.Identity(ctx)
	require.NoError(err)

	m := s.GetMetrics()
	require.Equal(uint64(1), m.DecodeErrCount.Load(), "the status word decodes, its mode bits do not")
	require.Equal(uint64(3), m.ReplyCount.Load())
}

func TestSession_DeadlineClosesSession(t *testing.T) {
	require := require.New(t)

	_, s := newTestSession(t, spdtest.WithReply("SYSTem:VERSion?", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.SystemVersion(ctx)
	require.Error(err)

	var terr *TransportError
	require.True(errors.As(err, &terr))
	require.Equal("read", terr.Op)
	require.ErrorIs(err, context.DeadlineExceeded)

	require.True(s.IsClosed())
	require.Equal(ClosedState, s.State())

	_, err = s.Identity(context.Background())
	require.ErrorIs(err, ErrSessionClosed)
}

func TestSession_CancelInterruptsRead(t *testing.T) {
	require := require.New(t)

	_, s := newTestSession(t, spdtest.WithReply("SYSTem:VERSion?", ""))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := s.SystemVersion(ctx)
	require.ErrorIs(err, context.Canceled)
	require.True(s.IsClosed())
}

func TestSession_TransportFault(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, s := newTestSession(t)

	_, err := s.Identity(ctx)
	require.NoError(err)

	srv.DropConnections()

	_, err = s.Identity(ctx)
	var terr *TransportError
	require.True(errors.As(err, &terr))
	require.True(s.IsClosed())
	require.Equal(uint64(1), s.GetMetrics().TransportErrCount.Load())

	require.ErrorIs(s.Send(ctx, command.SaveRequest{Slot: command.Slot1}), ErrSessionClosed)
	require.NoError(s.Close())
}

func TestSession_CanceledContext(t *testing.T) {
	require := require.New(t)

	srv, s := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Identity(ctx)
	require.ErrorIs(err, context.Canceled)
	require.False(s.IsClosed(), "nothing was written")
	require.Empty(srv.Requests())
}

func TestSession_Metrics(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, s := newTestSession(t)

	for range 3 {
		_, err := s.Measure(ctx, command.Channel1, command.Current)
		require.NoError(err)
	}
	require.NoError(s.SetOutput(ctx, command.Output1, command.StateOff))

	m := s.GetMetrics()
	require.Equal(uint64(4), m.RequestCount.Load())
	require.Equal(uint64(3), m.ReplyCount.Load())
	require.Equal(int64(3), m.CommandCount("MEASure:CURRent?"))
	require.Equal(int64(1), m.CommandCount("OUTPut"))
	require.Equal(int64(0), m.CommandCount("*IDN?"))

	seen := map[string]int64{}
	m.RangeCommands(func(header string, count int64) bool {
		seen[header] = count
		return true
	})
	require.Equal(map[string]int64{"MEASure:CURRent?": 3, "OUTPut": 1}, seen)
}
