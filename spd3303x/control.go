package spd3303x

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jackc/puddle/v2"

	"github.com/arloliu/go-spd3303x/command"
)

// Supply shares one Session between goroutines. Each Do call owns the session for the whole
// callback, so request/reply exchanges of concurrent callers never interleave.
//
// The session is the single resource of a puddle pool of size one. A session that is closed
// while acquired, e.g. by a transport fault, is destroyed instead of released and is never
// replaced: later calls fail with ErrSessionClosed.
type Supply struct {
	session   *Session
	pool      *puddle.Pool[*Session]
	handedOut atomic.Bool
}

// NewSupply takes ownership of s.
func NewSupply(s *Session) (*Supply, error) {
	sup := &Supply{session: s}

	pool, err := puddle.NewPool(&puddle.Config[*Session]{
		Constructor: func(context.Context) (*Session, error) {
			if !sup.handedOut.CompareAndSwap(false, true) || s.IsClosed() {
				return nil, ErrSessionClosed
			}

			return s, nil
		},
		Destructor: func(s *Session) {
			if err := s.Close(); err != nil {
				s.logger.Debug("spd3303x: failed to close session", "error", err)
			}
		},
		MaxSize: 1,
	})
	if err != nil {
		return nil, err
	}
	sup.pool = pool

	return sup, nil
}

// Do acquires the session, waiting for other callers to finish, and calls fn with it. The
// session is returned on every exit path of fn, including a panic.
func (sup *Supply) Do(ctx context.Context, fn func(*Session) error) error {
	res, err := sup.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return ErrSessionClosed
		}

		return err
	}

	s := res.Value()
	defer func() {
		if s.IsClosed() {
			res.Destroy()
		} else {
			res.Release()
		}
	}()

	if s.IsClosed() {
		return ErrSessionClosed
	}

	return fn(s)
}

// Close closes the session once no callback holds it.
func (sup *Supply) Close() {
	sup.pool.Close()
	if sup.handedOut.CompareAndSwap(false, true) {
		_ = sup.session.Close()
	}
}

// GetMetrics returns the metrics of the shared session.
func (sup *Supply) GetMetrics() *SessionMetrics {
	return sup.session.GetMetrics()
}

// IntoChannels hands the session to a new Supply and returns views of the two programmable
// channels and of the fixed output CH3. The session must not be used directly afterwards.
func (s *Session) IntoChannels() (*ChannelControl, *ChannelControl, *FixedChannelControl, error) {
	sup, err := NewSupply(s)
	if err != nil {
		return nil, nil, nil, err
	}

	return sup.Channel(command.Channel1), sup.Channel(command.Channel2), sup.Fixed(command.Output3), nil
}

// Channel returns a view of a programmable channel.
func (sup *Supply) Channel(ch command.Channel) *ChannelControl {
	return &ChannelControl{supply: sup, channel: ch}
}

// Fixed returns a view that can only switch an output on and off.
func (sup *Supply) Fixed(out command.OutputChannel) *FixedChannelControl {
	return &FixedChannelControl{supply: sup, output: out}
}

// ChannelControl operates one programmable channel of a shared Supply.
type ChannelControl struct {
	supply  *Supply
	channel command.Channel
}

// Channel returns the controlled channel.
func (c *ChannelControl) Channel() command.Channel {
	return c.channel
}

// Supply returns the shared supply.
func (c *ChannelControl) Supply() *Supply {
	return c.supply
}

func (c *ChannelControl) Measure(ctx context.Context, q command.Quantity) (command.Reading, error) {
	var v command.Reading
	err := c.supply.Do(ctx, func(s *Session) error {
		var err error
		v, err = s.Measure(ctx, c.channel, q)

		return err
	})

	return v, err
}

func (c *ChannelControl) SetLimit(ctx context.Context, q command.LimitQuantity, v command.Reading) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetLimit(ctx, c.channel, q, v)
	})
}

func (c *ChannelControl) Limit(ctx context.Context, q command.LimitQuantity) (command.Reading, error) {
	var v command.Reading
	err := c.supply.Do(ctx, func(s *Session) error {
		var err error
		v, err = s.Limit(ctx, c.channel, q)

		return err
	})

	return v, err
}

func (c *ChannelControl) SetOutput(ctx context.Context, state command.State) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetOutput(ctx, c.channel.Output(), state)
	})
}

func (c *ChannelControl) Output(ctx context.Context) (command.State, error) {
	var state command.State
	err := c.supply.Do(ctx, func(s *Session) error {
		var err error
		state, err = s.Output(ctx, c.channel)

		return err
	})

	return state, err
}

func (c *ChannelControl) SetWaveformDisplay(ctx context.Context, state command.State) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetWaveformDisplay(ctx, c.channel, state)
	})
}

func (c *ChannelControl) SetTimingParameters(
	ctx context.Context,
	group command.TimingGroup,
	voltage command.Reading,
	current command.Reading,
	interval command.TimeInterval,
) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetTimingParameters(ctx, c.channel, group, voltage, current, interval)
	})
}

func (c *ChannelControl) TimingParameters(
	ctx context.Context,
	group command.TimingGroup,
) (command.GetTimingParametersResponse, error) {
	var resp command.GetTimingParametersResponse
	err := c.supply.Do(ctx, func(s *Session) error {
		var err error
		resp, err = s.TimingParameters(ctx, c.channel, group)

		return err
	})

	return resp, err
}

func (c *ChannelControl) SetTimer(ctx context.Context, state command.State) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetTimer(ctx, c.channel, state)
	})
}

// Fixed narrows the view to output switching.
func (c *ChannelControl) Fixed() *FixedChannelControl {
	return c.supply.Fixed(c.channel.Output())
}

// FixedChannelControl switches one output of a shared Supply.
type FixedChannelControl struct {
	supply *Supply
	output command.OutputChannel
}

// Output returns the controlled output.
func (c *FixedChannelControl) Output() command.OutputChannel {
	return c.output
}

func (c *FixedChannelControl) SetOutput(ctx context.Context, state command.State) error {
	return c.supply.Do(ctx, func(s *Session) error {
		return s.SetOutput(ctx, c.output, state)
	})
}
