package scpi

import (
	"strconv"
	"strings"
)

// Cursor is a forward-only read position over wire text.
//
// Every primitive either consumes a prefix of the remaining input and succeeds, or
// fails with a *DecodeError and leaves the position unchanged.
type Cursor struct {
	input string
	pos   int
}

// NewCursor returns a cursor positioned at the start of input.
func NewCursor(input string) *Cursor {
	return &Cursor{input: input}
}

// Remaining returns the unconsumed input.
func (c *Cursor) Remaining() string {
	return c.input[c.pos:]
}

// Len returns the number of unconsumed bytes.
func (c *Cursor) Len() int {
	return len(c.input) - c.pos
}

// Pos returns the number of consumed bytes.
func (c *Cursor) Pos() int {
	return c.pos
}

// Mark returns the current position for a later Rewind.
func (c *Cursor) Mark() int {
	return c.pos
}

// Rewind moves the cursor back to a position returned by Mark.
func (c *Cursor) Rewind(mark int) {
	if mark < 0 || mark > c.pos {
		panic("scpi: rewind to a position that was not consumed")
	}
	c.pos = mark
}

// HasPrefix reports whether the remaining input starts with prefix.
func (c *Cursor) HasPrefix(prefix string) bool {
	return strings.HasPrefix(c.Remaining(), prefix)
}

// Try runs fn and rewinds the cursor to its current position when fn fails.
func (c *Cursor) Try(fn func() error) error {
	mark := c.pos
	if err := fn(); err != nil {
		c.pos = mark
		return err
	}

	return nil
}

// MatchLiteral consumes literal, which must match the remaining input exactly (case-sensitive).
func (c *Cursor) MatchLiteral(literal string) error {
	if !c.HasPrefix(literal) {
		return NewDecodeError(c, literal, "literal not matched")
	}
	c.pos += len(literal)

	return nil
}

// ReadUntil returns the input before the next delim and consumes it together with delim.
func (c *Cursor) ReadUntil(delim byte) (string, error) {
	rest := c.Remaining()
	idx := strings.IndexByte(rest, delim)
	if idx < 0 {
		return "", NewDecodeError(c, string(delim), "delimiter not found")
	}
	c.pos += idx + 1

	return rest[:idx], nil
}

// ReadWhile returns the longest prefix whose runes all satisfy pred. The prefix may be empty.
func (c *Cursor) ReadWhile(pred func(rune) bool) string {
	rest := c.Remaining()
	end := len(rest)
	for i, r := range rest {
		if !pred(r) {
			end = i
			break
		}
	}
	c.pos += end

	return rest[:end]
}

// ReadExact returns the next n bytes.
func (c *Cursor) ReadExact(n int) (string, error) {
	if n < 0 || c.Len() < n {
		return "", NewDecodeError(c, strconv.Itoa(n)+" characters", "input too short")
	}
	s := c.input[c.pos : c.pos+n]
	c.pos += n

	return s, nil
}

// ReadLine returns the input up to the next newline and consumes the newline.
func (c *Cursor) ReadLine() (string, error) {
	line, err := c.ReadUntil('\n')
	if err != nil {
		return "", NewDecodeError(c, "\n", "line terminator not found")
	}

	return line, nil
}

// ExpectEnd fails if any input is left. It is the final check after decoding a complete line.
func (c *Cursor) ExpectEnd() error {
	if c.Len() != 0 {
		return NewDecodeError(c, "", "unexpected trailing data")
	}

	return nil
}

// ReadUint16 consumes a maximal run of decimal digits and returns its value.
func (c *Cursor) ReadUint16() (uint16, error) {
	return c.readUint16(IsDigit, 10, "decimal digits")
}

// ReadHex16 consumes a maximal run of hexadecimal digits and returns its value.
func (c *Cursor) ReadHex16() (uint16, error) {
	return c.readUint16(IsHexDigit, 16, "hexadecimal digits")
}

func (c *Cursor) readUint16(pred func(rune) bool, base int, expected string) (uint16, error) {
	mark := c.pos
	digits := c.ReadWhile(pred)
	if digits == "" {
		return 0, NewDecodeError(c, expected, "number parsing failed")
	}

	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		c.pos = mark
		derr := NewDecodeError(c, expected, "number parsing failed")
		derr.Err = err

		return 0, derr
	}

	return uint16(v), nil
}

// DecodeAll decodes parts in order. On failure the cursor is rewound to where it started;
// fields decoded before the failure may already have been assigned.
func (c *Cursor) DecodeAll(parts ...Decoder) error {
	return c.Try(func() error {
		for _, p := range parts {
			if err := p.DecodeSCPI(c); err != nil {
				return err
			}
		}

		return nil
	})
}

// IsDigit reports whether r is an ASCII decimal digit.
func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IsHexDigit reports whether r is an ASCII hexadecimal digit.
func IsHexDigit(r rune) bool {
	return IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// IsBlank reports whether r is a space or a horizontal tab.
func IsBlank(r rune) bool {
	return r == ' ' || r == '\t'
}
