package spd3303x

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spd3303x/command"
	"github.com/arloliu/go-spd3303x/spd3303x/spdtest"
)

// countingConn records, at every write, whether all previous requests had their reply line read.
type countingConn struct {
	net.Conn

	mu         sync.Mutex
	writes     int
	lines      int
	interleave int
}

func (c *countingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	if c.lines != c.writes {
		c.interleave++
	}
	c.writes++
	c.mu.Unlock()

	return c.Conn.Write(b)
}

func (c *countingConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)

	c.mu.Lock()
	c.lines += bytes.Count(b[:n], []byte{'\n'})
	c.mu.Unlock()

	return n, err
}

func newTestChannels(t *testing.T) (*spdtest.Server, *countingConn, *ChannelControl, *ChannelControl, *FixedChannelControl) {
	t.Helper()

	r := require.New(t)

	srv, err := spdtest.NewServer()
	r.NoError(err)
	t.Cleanup(func() { _ = srv.Close() })

	raw, err := net.Dial("tcp", srv.Host())
	r.NoError(err)

	conn := &countingConn{Conn: raw}
	s, err := NewSession(conn)
	r.NoError(err)

	ch1, ch2, ch3, err := s.IntoChannels()
	r.NoError(err)
	t.Cleanup(ch1.Supply().Close)

	return srv, conn, ch1, ch2, ch3
}

func TestSupply_ConcurrentExchangesDoNotInterleave(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	_, conn, ch1, ch2, _ := newTestChannels(t)

	const workers = 8
	const rounds = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ch := ch1
			if w%2 == 1 {
				ch = ch2
			}
			for range rounds {
				if _, err := ch.Measure(ctx, command.Voltage); err != nil {
					errs <- err
				}
				if _, err := ch.Limit(ctx, command.LimitCurrent); err != nil {
					errs <- err
				}
				if _, err := ch.Output(ctx); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Equal(workers*rounds*3, conn.writes)
	require.Equal(conn.writes, conn.lines, "one reply line per request")
	require.Zero(conn.interleave, "a request was written before the previous reply was read")
}

func TestChannelControl_Operations(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, _, ch1, ch2, ch3 := newTestChannels(t)

	require.Equal(command.Channel1, ch1.Channel())
	require.Equal(command.Channel2, ch2.Channel())
	require.Equal(command.Output3, ch3.Output())

	require.NoError(ch1.SetLimit(ctx, command.LimitVoltage, command.ReadingFromFloat(2.5)))
	v, err := ch1.Limit(ctx, command.LimitVoltage)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(2.5), v)

	require.NoError(ch1.SetOutput(ctx, command.StateOn))
	state, err := ch1.Output(ctx)
	require.NoError(err)
	require.Equal(command.StateOn, state)

	v, err = ch1.Measure(ctx, command.Voltage)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(2.5), v)

	require.NoError(ch2.SetWaveformDisplay(ctx, command.StateOn))
	require.NoError(ch2.SetTimingParameters(ctx, command.Group5,
		command.ReadingFromFloat(12), command.ReadingFromFloat(1.5), command.MustTimeInterval(30)))
	require.NoError(ch2.SetTimer(ctx, command.StateOn))

	timing, err := ch2.TimingParameters(ctx, command.Group5)
	require.NoError(err)
	require.Equal(command.ReadingFromFloat(12), timing.Voltage)
	require.Equal(command.ReadingFromFloat(1.5), timing.Current)
	require.Equal(command.MustTimeInterval(30), timing.Interval())

	require.NoError(ch3.SetOutput(ctx, command.StateOn))
	require.NoError(ch2.Fixed().SetOutput(ctx, command.StateOn))
	state, err = ch2.Output(ctx)
	require.NoError(err)
	require.Equal(command.StateOn, state)

	st := srv.State()
	require.Equal(command.StateOn, st.Output3)
	require.Equal(command.WaveformDisplay, st.Channel(command.Channel2).Display)
	require.Equal(command.StateOn, st.Channel(command.Channel2).Timer)
}

func TestSupply_TransportFaultIsNotRecovered(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv, _, ch1, ch2, ch3 := newTestChannels(t)

	_, err := ch1.Measure(ctx, command.Voltage)
	require.NoError(err)

	srv.DropConnections()

	_, err = ch1.Measure(ctx, command.Voltage)
	var terr *TransportError
	require.True(errors.As(err, &terr))

	_, err = ch2.Measure(ctx, command.Voltage)
	require.ErrorIs(err, ErrSessionClosed)
	require.ErrorIs(ch3.SetOutput(ctx, command.StateOff), ErrSessionClosed)
}

func TestSupply_ReleasesOnPanic(t *testing.T) {
	require := require.New(t)

	_, s := newTestSession(t)
	sup, err := NewSupply(s)
	require.NoError(err)
	defer sup.Close()

	require.Panics(func() {
		_ = sup.Do(context.Background(), func(*Session) error {
			panic("boom")
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = sup.Do(ctx, func(s *Session) error {
		_, err := s.Identity(ctx)
		return err
	})
	require.NoError(err)
}

func TestSupply_Close(t *testing.T) {
	require := require.New(t)

	_, s := newTestSession(t)
	sup, err := NewSupply(s)
	require.NoError(err)

	sup.Close()
	require.True(s.IsClosed(), "closing an unused supply closes its session")

	err = sup.Do(context.Background(), func(*Session) error { return nil })
	require.ErrorIs(err, ErrSessionClosed)

	_, s2 := newTestSession(t)
	sup2, err := NewSupply(s2)
	require.NoError(err)
	require.NoError(sup2.Do(context.Background(), func(*Session) error { return nil }))

	sup2.Close()
	require.True(s2.IsClosed())
	require.Same(s2.GetMetrics(), sup2.GetMetrics())
}
