package command

import (
	"math"
	"strconv"

	"github.com/arloliu/go-spd3303x/scpi"
)

// Reading is a fixed-point quantity in thousandths of a unit (volts, amperes, watts or seconds).
// It covers 0.000 to 65.535.
type Reading uint16

// MaxReading is the largest representable reading, 65.535.
const MaxReading = Reading(math.MaxUint16)

// ReadingFromMillis returns the reading of m thousandths.
func ReadingFromMillis(m uint16) Reading {
	return Reading(m)
}

// ReadingFromFloat rounds f to the nearest thousandth. Values below zero (and NaN) become 0,
// values above 65.535 become 65.535.
func ReadingFromFloat(f float64) Reading {
	m := math.Round(f * 1000)
	switch {
	case math.IsNaN(m) || m <= 0:
		return 0
	case m >= math.MaxUint16:
		return MaxReading
	default:
		return Reading(m)
	}
}

// Millis returns the reading in thousandths.
func (r Reading) Millis() uint16 {
	return uint16(r)
}

// Float64 returns the reading in whole units.
func (r Reading) Float64() float64 {
	return float64(r) / 1000
}

func (r Reading) String() string {
	return string(r.AppendSCPI(make([]byte, 0, 6)))
}

// AppendSCPI appends "<whole>.<three digits>".
func (r Reading) AppendSCPI(b []byte) []byte {
	b = strconv.AppendUint(b, uint64(r/1000), 10)
	frac := uint16(r % 1000)
	return append(b, '.', byte('0'+frac/100), byte('0'+frac/10%10), byte('0'+frac%10))
}

// DecodeSCPI accepts "<whole>" optionally followed by "." and one to three fractional digits.
// The device shortens trailing zeros in some replies, e.g. "0.5".
func (r *Reading) DecodeSCPI(c *scpi.Cursor) error {
	mark := c.Mark()

	whole, err := c.ReadUint16()
	if err != nil {
		return err
	}

	var frac uint64
	if c.MatchLiteral(".") == nil {
		digits := c.ReadWhile(scpi.IsDigit)
		if digits == "" || len(digits) > 3 {
			c.Rewind(mark)
			return scpi.NewDecodeError(c, "1 to 3 fractional digits", "malformed reading")
		}
		frac, _ = strconv.ParseUint(digits, 10, 16)
		for i := len(digits); i < 3; i++ {
			frac *= 10
		}
	}

	total := uint64(whole)*1000 + frac
	if total > math.MaxUint16 {
		c.Rewind(mark)
		return scpi.NewDecodeError(c, "reading up to 65.535", "reading out of range")
	}
	*r = Reading(total)

	return nil
}
