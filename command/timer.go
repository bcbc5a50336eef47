package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arloliu/go-spd3303x/scpi"
)

// MaxTimeInterval is the longest timer step the device accepts, in seconds.
const MaxTimeInterval = 10000

// TimeInterval is the duration of one timer step in whole seconds, 0 to MaxTimeInterval.
// The zero value is a zero-length step.
type TimeInterval struct {
	seconds uint16
}

// NewTimeInterval returns the interval of the given seconds, or ErrTimeIntervalRange above MaxTimeInterval.
func NewTimeInterval(seconds uint) (TimeInterval, error) {
	if seconds > MaxTimeInterval {
		return TimeInterval{}, fmt.Errorf("%w: %d seconds exceeds %d", ErrTimeIntervalRange, seconds, MaxTimeInterval)
	}

	return TimeInterval{seconds: uint16(seconds)}, nil
}

// MustTimeInterval is like NewTimeInterval but panics on an out-of-range value.
func MustTimeInterval(seconds uint) TimeInterval {
	t, err := NewTimeInterval(seconds)
	if err != nil {
		panic(err)
	}

	return t
}

// Seconds returns the interval in seconds.
func (t TimeInterval) Seconds() uint {
	return uint(t.seconds)
}

// Duration returns the interval as a time.Duration.
func (t TimeInterval) Duration() time.Duration {
	return time.Duration(t.seconds) * time.Second
}

func (t TimeInterval) String() string {
	return t.Duration().String()
}

func (t TimeInterval) AppendSCPI(b []byte) []byte {
	return strconv.AppendUint(b, uint64(t.seconds), 10)
}

func (t *TimeInterval) DecodeSCPI(c *scpi.Cursor) error {
	mark := c.Mark()
	v, err := c.ReadUint16()
	if err != nil {
		return err
	}
	if v > MaxTimeInterval {
		c.Rewind(mark)
		return scpi.NewDecodeError(c, "interval up to 10000 seconds", "time interval out of range")
	}
	// a fractional part is accepted and dropped
	if c.MatchLiteral(".") == nil {
		if c.ReadWhile(scpi.IsDigit) == "" {
			c.Rewind(mark)
			return scpi.NewDecodeError(c, "fractional seconds digits", "malformed time interval")
		}
	}
	t.seconds = v

	return nil
}

// SetTimingParametersRequest programs one step of a channel's timer:
// "TIMEr:SET CH1,2,3.000,0.500,2".
type SetTimingParametersRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Channel Channel
	Group   TimingGroup
	Voltage Reading
	Current Reading
	Time    TimeInterval
}

func (r SetTimingParametersRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b,
		scpi.Lit("TIMEr:SET "), r.Channel,
		scpi.Lit(","), r.Group,
		scpi.Lit(","), r.Voltage,
		scpi.Lit(","), r.Current,
		scpi.Lit(","), r.Time,
	)
}

func (r *SetTimingParametersRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(
		scpi.Lit("TIMEr:SET "), &r.Channel,
		scpi.Lit(","), &r.Group,
		scpi.Lit(","), &r.Voltage,
		scpi.Lit(","), &r.Current,
		scpi.Lit(","), &r.Time,
	)
}

// GetTimingParametersRequest queries one step of a channel's timer: "TIMEr:SET? CH1,2".
type GetTimingParametersRequest struct {
	scpi.Expects[GetTimingParametersResponse]
	Channel Channel
	Group   TimingGroup
}

func (r GetTimingParametersRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("TIMEr:SET? "), r.Channel, scpi.Lit(","), r.Group)
}

func (r *GetTimingParametersRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("TIMEr:SET? "), &r.Channel, scpi.Lit(","), &r.Group)
}

// GetTimingParametersResponse is the reply to GetTimingParametersRequest, e.g. "3,0.5,100".
// The device reports the step time in whole seconds.
type GetTimingParametersResponse struct {
	Voltage Reading
	Current Reading
	Time    TimeInterval
}

// Interval returns the step time.
func (r GetTimingParametersResponse) Interval() TimeInterval {
	return r.Time
}

func (r GetTimingParametersResponse) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, r.Voltage, scpi.Lit(","), r.Current, scpi.Lit(","), r.Time, scpi.Newline)
}

func (r *GetTimingParametersResponse) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(&r.Voltage, scpi.Lit(","), &r.Current, scpi.Lit(","), &r.Time, scpi.Newline)
}

// SetTimerStateRequest starts or stops the timer program of a channel: "TIMEr CH1,ON".
type SetTimerStateRequest struct {
	scpi.Expects[scpi.EmptyResponse]
	Channel Channel
	State   State
}

func (r SetTimerStateRequest) AppendSCPI(b []byte) []byte {
	return scpi.AppendAll(b, scpi.Lit("TIMEr "), r.Channel, scpi.Lit(","), r.State)
}

func (r *SetTimerStateRequest) DecodeSCPI(c *scpi.Cursor) error {
	return c.DecodeAll(scpi.Lit("TIMEr "), &r.Channel, scpi.Lit(","), &r.State)
}
