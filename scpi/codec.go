package scpi

import (
	"bytes"
	"strconv"
)

// Encoder is implemented by values that have a wire representation.
type Encoder interface {
	// AppendSCPI appends the wire form of the value to b and returns the extended slice.
	AppendSCPI(b []byte) []byte
}

// Decoder is implemented by values that can be parsed from wire text.
type Decoder interface {
	// DecodeSCPI consumes the wire form of the value from c. On failure c is left unchanged.
	DecodeSCPI(c *Cursor) error
}

// Request is a command whose reply decodes into R.
//
// The interface can only be satisfied by embedding Expects[R].
type Request[R any] interface {
	Encoder
	expects(R)
}

// Expects binds the embedding request type to its reply type R.
type Expects[R any] struct{}

func (Expects[R]) expects(R) {}

// NoReply is implemented by reply types for which the instrument sends no line at all.
type NoReply interface {
	noReply()
}

// ExpectsReply reports whether the instrument answers with a line for the reply value resp.
func ExpectsReply(resp any) bool {
	_, ok := resp.(NoReply)
	return !ok
}

// EmptyResponse is the reply of commands that produce no payload.
type EmptyResponse struct{}

func (EmptyResponse) AppendSCPI(b []byte) []byte { return b }

func (*EmptyResponse) DecodeSCPI(*Cursor) error { return nil }

func (EmptyResponse) noReply() {}

// Lit is a literal element of a command template.
type Lit string

func (l Lit) AppendSCPI(b []byte) []byte {
	return append(b, l...)
}

func (l Lit) DecodeSCPI(c *Cursor) error {
	return c.MatchLiteral(string(l))
}

// Newline is the line terminator every reply ends with.
const Newline = Lit("\n")

// AppendAll appends the wire form of each part in order.
func AppendAll(b []byte, parts ...Encoder) []byte {
	for _, p := range parts {
		b = p.AppendSCPI(b)
	}

	return b
}

// Encode returns the wire form of e as a string.
func Encode(e Encoder) string {
	return string(e.AppendSCPI(make([]byte, 0, 64)))
}

// Decode parses s as a complete T; trailing data is a decode fault.
func Decode[T any, PT interface {
	*T
	Decoder
}](s string) (T, error) {
	var v T
	c := NewCursor(s)
	if err := PT(&v).DecodeSCPI(c); err != nil {
		return v, err
	}
	if err := c.ExpectEnd(); err != nil {
		return v, err
	}

	return v, nil
}

// AppendUint appends the decimal form of v.
func AppendUint(b []byte, v uint64) []byte {
	return strconv.AppendUint(b, v, 10)
}

// Header returns the command header of an encoded request line: the text before the
// first space, without the line terminator.
func Header(line []byte) string {
	line = bytes.TrimRight(line, "\r\n")
	if idx := bytes.IndexByte(line, ' '); idx >= 0 {
		line = line[:idx]
	}

	return string(line)
}
